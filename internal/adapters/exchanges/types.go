package exchanges

// OptionType is the call/put flag of an option contract.
type OptionType string

const (
	OptionTypeCall OptionType = "C"
	OptionTypePut  OptionType = "P"
)

// InstrumentSummary is one entry of the instrument listing.
type InstrumentSummary struct {
	Name     string
	Type     string
	IsActive bool
}

// OptionInstrument holds static per-instrument metadata.
// Numeric fields are already coerced: null or missing upstream values are 0.
type OptionInstrument struct {
	Name          string
	Index         string
	Type          string
	IsActive      bool
	OptionType    OptionType
	Strike        float64
	ExpiryUnix    int64 // seconds
	TickSize      float64
	MinimumAmount float64
	AmountStep    float64
	MakerFeeRate  float64
	TakerFeeRate  float64
}

// OptionTicker is a live quote with option pricing.
// Numeric fields are already coerced: null or missing upstream values are 0.
type OptionTicker struct {
	InstrumentName string
	AskPrice       float64
	AskSize        float64
	BidPrice       float64
	BidSize        float64
	IndexPrice     float64
	Delta          float64
	Gamma          float64
	Vega           float64
	Theta          float64
	IV             float64
	MarkPrice      float64
	Timestamp      int64 // ms
}
