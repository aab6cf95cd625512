// Package render hands aggregated ratios to output collaborators such as
// reports or plots. Nothing in the quantification core depends on it; the
// command line passes a Renderer explicitly.
package render

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ChrisMcGann/PairQuant/pkg/colorize"
	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
)

// Row is one rendered label pair.
type Row struct {
	Key                molecule.MoleculeKey
	Ratio              float64
	Curated            bool
	HasRequiredMatches bool
	Color              colorize.RGB
}

// Renderer writes rows to w.
type Renderer interface {
	Render(w io.Writer, rows []Row) error
}

// TableRenderer renders rows as an aligned plain-text table.
type TableRenderer struct {
	Precision int // decimal places of the ratio
}

// Render implements Renderer.
func (r TableRenderer) Render(w io.Writer, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQUENCE\tCHARGE\tLABEL POS\tMODS\tRATIO\tCURATED\tREQUIRED MATCHES\tCOLOR")
	for _, row := range rows {
		curation := "-"
		if row.Curated {
			curation = fmt.Sprint(row.HasRequiredMatches)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%v\t%t\t%s\t%s\n",
			row.Key.Sequence,
			row.Key.Charge,
			row.Key.LabelPosition,
			orDash(row.Key.Mods),
			core.RoundFloat(row.Ratio, r.Precision),
			row.Curated,
			curation,
			row.Color.Hex())
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
