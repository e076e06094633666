package snapshot

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"lyrasnap/internal/domain/options"
	"lyrasnap/pkg/errors"
)

var previewHeader = []string{"instrument_name", "option_type", "strike", "expiry", "bid", "ask", "mark", "iv", "delta"}

// WritePreview renders rows as an aligned table. Rows without a quote print empty quote cells.
func WritePreview(w io.Writer, rows []options.Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	writeLine(tw, previewHeader)
	for _, row := range rows {
		cells := []string{
			row.Name,
			row.OptionType,
			formatFloat(row.Strike),
			row.Expiry,
			"", "", "", "", "",
		}
		if q := row.Quote; q != nil {
			cells[4] = formatFloat(q.BidPrice)
			cells[5] = formatFloat(q.AskPrice)
			cells[6] = formatFloat(q.Mark)
			cells[7] = formatFloat(q.IV)
			cells[8] = formatFloat(q.Delta)
		}
		writeLine(tw, cells)
	}

	return errors.Wrap(tw.Flush(), "write preview")
}

func writeLine(w io.Writer, cells []string) {
	for i, cell := range cells {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, cell)
	}
	fmt.Fprint(w, "\n")
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
