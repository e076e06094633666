package lyra

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"lyrasnap/internal/adapters/exchanges"
	"lyrasnap/pkg/errors"
)

type envelope struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type instrumentsResult struct {
	Instruments json.RawMessage `json:"instruments"`
	Pagination  struct {
		NumPages int `json:"num_pages"`
		Count    int `json:"count"`
	} `json:"pagination"`
}

type instrumentEntry struct {
	InstrumentName string          `json:"instrument_name"`
	InstrumentType string          `json:"instrument_type"`
	IsActive       json.RawMessage `json:"is_active"`
}

type instrumentResult struct {
	InstrumentName string          `json:"instrument_name"`
	InstrumentType string          `json:"instrument_type"`
	IsActive       json.RawMessage `json:"is_active"`
	TickSize       Number          `json:"tick_size"`
	MinimumAmount  Number          `json:"minimum_amount"`
	AmountStep     Number          `json:"amount_step"`
	MakerFeeRate   Number          `json:"maker_fee_rate"`
	TakerFeeRate   Number          `json:"taker_fee_rate"`
	OptionDetails  json.RawMessage `json:"option_details"`
}

type optionDetails struct {
	index      string
	optionType string
	strike     float64
	expiry     int64
}

// isTrue accepts only a literal JSON true
func isTrue(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("true"))
}

func parseOptionDetails(raw json.RawMessage) (optionDetails, error) {
	var out optionDetails

	if isAbsent(raw) {
		return out, errors.NewMissingFieldError("option_details")
	}
	fields, err := objectFields("option_details", raw)
	if err != nil {
		return out, err
	}

	for _, key := range []string{"index", "option_type", "strike", "expiry"} {
		if _, ok := fields[key]; !ok {
			return out, errors.NewMissingFieldError("option_details." + key)
		}
	}

	strike, ok := number(fields, "strike")
	if !ok {
		return out, errors.NewMissingFieldError("option_details.strike")
	}
	expiry, ok := number(fields, "expiry")
	if !ok {
		return out, errors.NewMissingFieldError("option_details.expiry")
	}

	out.index = strField(fields, "index")
	out.optionType = strings.ToUpper(strField(fields, "option_type"))
	out.strike = strike.Float()
	out.expiry = expiry.Int()
	return out, nil
}

// parseTickers converts the tickers mapping. A null or missing mapping is empty,
// a null entry counts as absent, anything else that is not an object is a shape error.
func parseTickers(raw json.RawMessage) (map[string]exchanges.OptionTicker, error) {
	out := make(map[string]exchanges.OptionTicker)
	if isAbsent(raw) {
		return out, nil
	}

	entries, err := objectFields("tickers", raw)
	if err != nil {
		return nil, err
	}

	for name, entry := range entries {
		if isAbsent(entry) {
			continue
		}
		field := fmt.Sprintf("tickers[%s]", name)
		ticker, err := objectFields(field, entry)
		if err != nil {
			return nil, err
		}

		var pricing map[string]json.RawMessage
		if p := ticker["option_pricing"]; !isAbsent(p) {
			if pricing, err = objectFields(field+".option_pricing", p); err != nil {
				return nil, err
			}
		}

		out[name] = exchanges.OptionTicker{
			InstrumentName: name,
			AskPrice:       floatField(ticker, "a"),
			AskSize:        floatField(ticker, "A"),
			BidPrice:       floatField(ticker, "b"),
			BidSize:        floatField(ticker, "B"),
			IndexPrice:     floatField(ticker, "I"),
			Timestamp:      intField(ticker, "t"),
			Delta:          floatField(pricing, "d"),
			Gamma:          floatField(pricing, "g"),
			Vega:           floatField(pricing, "v"),
			Theta:          floatField(pricing, "t"),
			IV:             floatField(pricing, "i"),
			MarkPrice:      floatField(pricing, "m"),
		}
	}
	return out, nil
}

func objectFields(field string, raw json.RawMessage) (map[string]json.RawMessage, error) {
	if kind := jsonKind(raw); kind != "object" {
		return nil, errors.NewShapeError(field, "object", kind)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, errors.Wrap(errors.NewShapeError(field, "object", "malformed JSON"), err.Error())
	}
	return fields, nil
}

func number(fields map[string]json.RawMessage, key string) (Number, bool) {
	var n Number
	if raw, ok := fields[key]; ok {
		_ = json.Unmarshal(raw, &n)
	}
	return n, n.Valid
}

func floatField(fields map[string]json.RawMessage, key string) float64 {
	n, _ := number(fields, key)
	return n.Float()
}

func intField(fields map[string]json.RawMessage, key string) int64 {
	n, _ := number(fields, key)
	return n.Int()
}

func strField(fields map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := fields[key]; ok && jsonKind(raw) == "string" {
		_ = json.Unmarshal(raw, &s)
	}
	return s
}
