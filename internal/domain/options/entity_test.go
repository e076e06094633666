package options

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeExpiry(t *testing.T) {
	assert.Equal(t, "20260925", NormalizeExpiry(1790323200))
	// 08:00 UTC settlement and the last second of the day map to the same date
	assert.Equal(t, "20260925", NormalizeExpiry(1790380799))
	assert.Equal(t, "19700101", NormalizeExpiry(0))
}

func TestDistinctExpiries_FirstSeenOrder(t *testing.T) {
	got := DistinctExpiries([]Instrument{
		{Name: "a", Expiry: "20261225"},
		{Name: "b", Expiry: "20260925"},
		{Name: "c", Expiry: "20261225"},
		{Name: "d", Expiry: "20270326"},
	})
	assert.Equal(t, []string{"20261225", "20260925", "20270326"}, got)
	assert.Empty(t, DistinctExpiries(nil))
}

func TestRow_Tradable(t *testing.T) {
	assert.False(t, Row{}.Tradable())
	assert.False(t, Row{Quote: &Quote{AskPrice: 0, BidPrice: 3}}.Tradable())
	assert.True(t, Row{Quote: &Quote{AskPrice: 0.1}}.Tradable())
}

func TestRow_ZeroAsk(t *testing.T) {
	assert.False(t, Row{}.ZeroAsk())
	assert.True(t, Row{Quote: &Quote{AskPrice: 0, BidPrice: 3}}.ZeroAsk())
	assert.False(t, Row{Quote: &Quote{AskPrice: 0.1}}.ZeroAsk())
}

func TestRow_Record(t *testing.T) {
	runID := uuid.New()
	at := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)

	row := Row{
		Instrument: Instrument{Name: "BTC-20260925-95000-C", OptionType: "C", Strike: 95000, Expiry: "20260925"},
		Quote:      &Quote{AskPrice: 50.5, BidPrice: 49.0, Timestamp: 1700000000},
	}
	rec := row.Record(runID, "BTC", at)

	assert.Equal(t, runID.String(), rec.RunID)
	assert.Equal(t, "BTC-20260925-95000-C", rec.InstrumentName)
	assert.Equal(t, 95000.0, rec.Strike)
	assert.Equal(t, "20260925", rec.Expiry)
	require.NotNil(t, rec.AskPrice)
	assert.Equal(t, 50.5, *rec.AskPrice)
	assert.Equal(t, 49.0, *rec.BidPrice)
	assert.Equal(t, int64(1700000000), *rec.Timestamp)

	bare := Row{Instrument: row.Instrument}.Record(runID, "BTC", at)
	assert.Nil(t, bare.AskPrice)
	assert.Nil(t, bare.Timestamp)
	assert.Nil(t, bare.Mark)
}

func TestReport_HumanFileSize(t *testing.T) {
	assert.Equal(t, "0 B", (&Report{}).HumanFileSize())
	assert.Equal(t, "2.0 kB", (&Report{FileSize: 2000}).HumanFileSize())
	assert.True(t, (&Report{}).Complete())
	assert.False(t, (&Report{MissingQuotes: 1}).Complete())
}
