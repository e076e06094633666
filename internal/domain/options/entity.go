package options

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// ExpiryLayout is the normalized expiry format used as the join key
const ExpiryLayout = "20060102"

// Instrument is the static metadata of one option contract
type Instrument struct {
	Name          string
	Index         string
	Type          string
	IsActive      bool
	OptionType    string // C or P
	Strike        float64
	ExpiryUnix    int64  // seconds
	Expiry        string // YYYYMMDD, UTC
	TickSize      float64
	MinimumAmount float64
	AmountStep    float64
	MakerFeeRate  float64
	TakerFeeRate  float64
}

// Quote is a live ticker for one instrument of one expiry
type Quote struct {
	InstrumentName string
	Expiry         string

	AskPrice    float64
	AskSize     float64
	BidPrice    float64
	BidSize     float64
	MarketPrice float64 // underlying index price

	// Option pricing
	Delta float64
	Gamma float64
	Vega  float64
	Theta float64
	IV    float64
	Mark  float64

	Timestamp int64 // ms
}

// Row is an instrument left-joined with its quote. Quote is nil when the
// ticker batch had no entry for the instrument.
type Row struct {
	Instrument
	Quote *Quote
}

// ZeroAsk reports whether the row has a quote whose ask is exactly zero
func (r Row) ZeroAsk() bool {
	return r.Quote != nil && r.Quote.AskPrice == 0
}

// Tradable reports whether the row has a quote with a non-zero ask
func (r Row) Tradable() bool {
	return r.Quote != nil && !r.ZeroAsk()
}

// Record is the flat persisted form of a Row, shared by the CSV file and the
// ClickHouse sink. Quote columns are nil when the row has no quote.
type Record struct {
	RunID        string    `csv:"-" ch:"run_id"`
	SnapshotTime time.Time `csv:"-" ch:"snapshot_time"`
	Currency     string    `csv:"-" ch:"currency"`

	Index          string  `csv:"index" ch:"underlying_index"`
	InstrumentName string  `csv:"instrument_name" ch:"instrument_name"`
	InstrumentType string  `csv:"instrument_type" ch:"instrument_type"`
	IsActive       bool    `csv:"is_active" ch:"is_active"`
	TickSize       float64 `csv:"tick_size" ch:"tick_size"`
	OptionType     string  `csv:"option_type" ch:"option_type"`
	Strike         float64 `csv:"strike" ch:"strike"`
	Expiry         string  `csv:"expiry" ch:"expiry"`
	MinimumAmount  float64 `csv:"minimum_amount" ch:"minimum_amount"`
	AmountStep     float64 `csv:"amount_step" ch:"amount_step"`
	MakerFeeRate   float64 `csv:"maker_fee_rate" ch:"maker_fee_rate"`
	TakerFeeRate   float64 `csv:"taker_fee_rate" ch:"taker_fee_rate"`

	AskPrice    *float64 `csv:"ask_price" ch:"ask_price"`
	AskSize     *float64 `csv:"ask_size" ch:"ask_size"`
	BidPrice    *float64 `csv:"bid_price" ch:"bid_price"`
	BidSize     *float64 `csv:"bid_size" ch:"bid_size"`
	MarketPrice *float64 `csv:"market_price" ch:"market_price"`
	Delta       *float64 `csv:"delta" ch:"delta"`
	Gamma       *float64 `csv:"gamma" ch:"gamma"`
	Vega        *float64 `csv:"vega" ch:"vega"`
	Theta       *float64 `csv:"theta" ch:"theta"`
	IV          *float64 `csv:"iv" ch:"iv"`
	Mark        *float64 `csv:"mark" ch:"mark"`
	Timestamp   *int64   `csv:"ts" ch:"ts"`
}

// Record flattens the row for persistence
func (r Row) Record(runID uuid.UUID, currency string, at time.Time) Record {
	rec := Record{
		RunID:          runID.String(),
		SnapshotTime:   at,
		Currency:       currency,
		Index:          r.Index,
		InstrumentName: r.Name,
		InstrumentType: r.Type,
		IsActive:       r.IsActive,
		TickSize:       r.TickSize,
		OptionType:     r.OptionType,
		Strike:         r.Strike,
		Expiry:         r.Expiry,
		MinimumAmount:  r.MinimumAmount,
		AmountStep:     r.AmountStep,
		MakerFeeRate:   r.MakerFeeRate,
		TakerFeeRate:   r.TakerFeeRate,
	}
	if q := r.Quote; q != nil {
		rec.AskPrice = &q.AskPrice
		rec.AskSize = &q.AskSize
		rec.BidPrice = &q.BidPrice
		rec.BidSize = &q.BidSize
		rec.MarketPrice = &q.MarketPrice
		rec.Delta = &q.Delta
		rec.Gamma = &q.Gamma
		rec.Vega = &q.Vega
		rec.Theta = &q.Theta
		rec.IV = &q.IV
		rec.Mark = &q.Mark
		rec.Timestamp = &q.Timestamp
	}
	return rec
}

// Report summarizes the completeness of one snapshot run
type Report struct {
	RunID       uuid.UUID `json:"run_id"`
	Currency    string    `json:"currency"`
	SeedExpiry  string    `json:"seed_expiry"`
	GeneratedAt time.Time `json:"generated_at"`

	Listed   int      `json:"listed"`
	Active   int      `json:"active"`
	Details  int      `json:"details"`
	Expiries []string `json:"expiries"`

	QuotedRows      int            `json:"quoted_rows"`
	MissingQuotes   int            `json:"missing_quotes"`
	MissingByExpiry map[string]int `json:"missing_by_expiry"`
	ZeroAskRows     int            `json:"zero_ask_rows"`

	RowsWritten int           `json:"rows_written"`
	RowsStored  int           `json:"rows_stored"` // rows confirmed in the analytics store
	OutputPath  string        `json:"output_path"`
	FileSize    int64         `json:"file_size"`
	Duration    time.Duration `json:"duration_ns"`
}

// Complete reports whether every active instrument had a quote
func (r *Report) Complete() bool {
	return r.MissingQuotes == 0
}

// HumanFileSize formats the output size for logs
func (r *Report) HumanFileSize() string {
	if r.FileSize <= 0 {
		return "0 B"
	}
	return humanize.Bytes(uint64(r.FileSize))
}

// NormalizeExpiry converts epoch seconds to the YYYYMMDD join key in UTC
func NormalizeExpiry(unix int64) string {
	return time.Unix(unix, 0).UTC().Format(ExpiryLayout)
}

// DistinctExpiries returns the distinct normalized expiries in first-seen order
func DistinctExpiries(instruments []Instrument) []string {
	seen := make(map[string]struct{}, len(instruments))
	var out []string
	for _, inst := range instruments {
		if _, ok := seen[inst.Expiry]; ok {
			continue
		}
		seen[inst.Expiry] = struct{}{}
		out = append(out, inst.Expiry)
	}
	return out
}
