package snapshot

import (
	"context"

	"golang.org/x/sync/errgroup"

	"lyrasnap/internal/adapters/exchanges"
	"lyrasnap/internal/domain/options"
	"lyrasnap/pkg/errors"
)

// ListActive returns the names of active instruments in listing order,
// along with the total number listed.
func (s *Service) ListActive(ctx context.Context) ([]string, int, error) {
	summaries, err := s.exchange.ListInstruments(ctx, s.cfg.Currency)
	if err != nil {
		return nil, 0, err
	}

	names := make([]string, 0, len(summaries))
	for _, inst := range summaries {
		if inst.IsActive {
			names = append(names, inst.Name)
		}
	}
	return names, len(summaries), nil
}

// FetchDetails fetches metadata for every name with at most DetailConcurrency
// calls in flight. Results keep the order of names. The first failure cancels
// the remaining calls and aborts.
func (s *Service) FetchDetails(ctx context.Context, names []string) ([]options.Instrument, error) {
	slots := make([]options.Instrument, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.DetailConcurrency)

	for i, name := range names {
		g.Go(func() error {
			inst, err := s.instrument(gctx, name)
			if err != nil {
				return err
			}
			slots[i] = *inst
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range slots {
		slots[i].Expiry = options.NormalizeExpiry(slots[i].ExpiryUnix)
	}
	return slots, nil
}

// instrument reads through the metadata cache when one is configured
func (s *Service) instrument(ctx context.Context, name string) (*options.Instrument, error) {
	if s.sinks.Cache != nil {
		cached, err := s.sinks.Cache.Get(ctx, name)
		if err != nil {
			s.log.Warnw("Instrument cache read failed", "instrument", name, "error", err)
		} else if cached != nil {
			return cached, nil
		}
	}

	detail, err := s.exchange.GetInstrument(ctx, name)
	if err != nil {
		return nil, err
	}
	inst := fromExchange(detail)

	if s.sinks.Cache != nil {
		if err := s.sinks.Cache.Set(ctx, inst); err != nil {
			s.log.Warnw("Instrument cache write failed", "instrument", name, "error", err)
		}
	}
	return inst, nil
}

// FetchQuotes requests one ticker batch per distinct expiry and extracts a quote
// for each instrument of that expiry. Instruments absent from their batch are
// counted per expiry and produce no quote.
func (s *Service) FetchQuotes(ctx context.Context, instruments []options.Instrument) ([]options.Quote, map[string]int, error) {
	byExpiry := make(map[string][]string)
	for _, inst := range instruments {
		byExpiry[inst.Expiry] = append(byExpiry[inst.Expiry], inst.Name)
	}

	var quotes []options.Quote
	missing := make(map[string]int)

	for _, expiry := range options.DistinctExpiries(instruments) {
		tickers, err := s.exchange.GetTickers(ctx, s.cfg.Currency, expiry)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "expiry %s", expiry)
		}

		for _, name := range byExpiry[expiry] {
			ticker, ok := tickers[name]
			if !ok {
				missing[expiry]++
				continue
			}
			quotes = append(quotes, fromTicker(ticker, expiry))
		}

		if missing[expiry] > 0 {
			s.log.Debugw("Instruments without quotes", "expiry", expiry, "missing", missing[expiry], "tickers", len(tickers))
		}
	}
	return quotes, missing, nil
}

type joinKey struct {
	name   string
	expiry string
}

// Merge left-joins instruments with quotes on (name, expiry), keeping
// instrument order. Unmatched instruments get a nil quote.
func Merge(instruments []options.Instrument, quotes []options.Quote) []options.Row {
	index := make(map[joinKey]*options.Quote, len(quotes))
	for i := range quotes {
		q := &quotes[i]
		index[joinKey{q.InstrumentName, q.Expiry}] = q
	}

	rows := make([]options.Row, len(instruments))
	for i, inst := range instruments {
		rows[i] = options.Row{Instrument: inst}
		if q, ok := index[joinKey{inst.Name, inst.Expiry}]; ok {
			quote := *q
			rows[i].Quote = &quote
		}
	}
	return rows
}

// Tradable keeps rows with a quote and a non-zero ask
func Tradable(rows []options.Row) []options.Row {
	out := make([]options.Row, 0, len(rows))
	for _, row := range rows {
		if row.Tradable() {
			out = append(out, row)
		}
	}
	return out
}

// Preview returns the first n rows whose ask is not exactly zero. Rows
// without a quote are kept.
func Preview(rows []options.Row, n int) []options.Row {
	if n <= 0 {
		return nil
	}
	out := make([]options.Row, 0, n)
	for _, row := range rows {
		if len(out) >= n {
			break
		}
		if !row.ZeroAsk() {
			out = append(out, row)
		}
	}
	return out
}

func fromExchange(d *exchanges.OptionInstrument) *options.Instrument {
	return &options.Instrument{
		Name:          d.Name,
		Index:         d.Index,
		Type:          d.Type,
		IsActive:      d.IsActive,
		OptionType:    string(d.OptionType),
		Strike:        d.Strike,
		ExpiryUnix:    d.ExpiryUnix,
		TickSize:      d.TickSize,
		MinimumAmount: d.MinimumAmount,
		AmountStep:    d.AmountStep,
		MakerFeeRate:  d.MakerFeeRate,
		TakerFeeRate:  d.TakerFeeRate,
	}
}

func fromTicker(t exchanges.OptionTicker, expiry string) options.Quote {
	return options.Quote{
		InstrumentName: t.InstrumentName,
		Expiry:         expiry,
		AskPrice:       t.AskPrice,
		AskSize:        t.AskSize,
		BidPrice:       t.BidPrice,
		BidSize:        t.BidSize,
		MarketPrice:    t.IndexPrice,
		Delta:          t.Delta,
		Gamma:          t.Gamma,
		Vega:           t.Vega,
		Theta:          t.Theta,
		IV:             t.IV,
		Mark:           t.MarkPrice,
		Timestamp:      t.Timestamp,
	}
}
