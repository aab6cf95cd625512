package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/render"
)

var precision int

var ratiosCmd = &cobra.Command{
	Use:   "ratios",
	Short: "Print label pair ratios",
	Long: `Aggregate and curate like the aggregate command, then print the ratio,
curation outcome and gradient color of every pair as a table.

Example:
  pairquant ratios --summary quant_summary.csv --matches matches.csv --ratio-field "calc auc in window"`,
	RunE: runRatios,
}

func init() {
	addAggregateFlags(ratiosCmd)
	ratiosCmd.Flags().IntVar(&precision, "precision", 3, "Decimal places of printed ratios")
}

func runRatios(cmd *cobra.Command, args []string) error {
	codec := molecule.NewCodec(cfg.LabelNames(), cfg.Codec.PrefixOffset)

	res, err := aggregate(cmd.Context(), codec)
	if err != nil {
		return err
	}

	rows, err := ratioRows(res)
	if err != nil {
		return err
	}

	var r render.Renderer = render.TableRenderer{Precision: precision}
	return r.Render(cmd.OutOrStdout(), renderRows(rows))
}
