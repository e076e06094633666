package exchanges

import (
	"context"
)

// OptionsExchange is the read-only options market data contract the snapshot pipeline needs.
type OptionsExchange interface {
	Name() string

	// ListInstruments returns every non-expired option instrument of a currency, active or not.
	ListInstruments(ctx context.Context, currency string) ([]InstrumentSummary, error)

	// GetInstrument returns the static metadata of one instrument.
	GetInstrument(ctx context.Context, name string) (*OptionInstrument, error)

	// GetTickers returns live quotes for every option of a currency expiring on expiry (YYYYMMDD),
	// keyed by instrument name.
	GetTickers(ctx context.Context, currency, expiry string) (map[string]OptionTicker, error)
}
