package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/writer/sqlite"
)

var outputFile string

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate, curate and store label pairs in a SQLite database",
	Long: `Group quantification summary rows by molecule key, attach the matches of
every label, curate each pair and store pairs, ratios and gradient colors
in a SQLite database.

Examples:
  # Aggregate with default settings
  pairquant aggregate --summary quant_summary.csv --matches matches.csv --out results.db

  # Require five matches per label and a minimum match score
  pairquant aggregate --summary quant_summary.xlsx --matches matches.csv --out results.db --min-matches 5 --min-score 0.8`,
	RunE: runAggregate,
}

func init() {
	addAggregateFlags(aggregateCmd)
	aggregateCmd.Flags().StringVarP(&outputFile, "out", "o", "", "Output database file (required)")
	aggregateCmd.MarkFlagRequired("out")
}

func runAggregate(cmd *cobra.Command, args []string) error {
	fmt.Printf("Aggregating %s with %s...\n", summaryFile, matchesFile)

	modDB, err := loadModDatabase()
	if err != nil {
		return err
	}
	codec := molecule.NewCodec(cfg.LabelNames(), cfg.Codec.PrefixOffset)
	signer := molecule.NewSigner(modDB)

	res, err := aggregate(cmd.Context(), codec)
	if err != nil {
		return err
	}

	rows, err := ratioRows(res)
	if err != nil {
		return err
	}

	writer, err := sqlite.NewWriter(outputFile, sqlite.RunInfo{
		Labels:      cfg.LabelNames(),
		MinMatches:  cfg.MinMatches,
		RatioField:  cfg.Ratio.Field,
		SummaryFile: summaryFile,
		MatchesFile: matchesFile,
	})
	if err != nil {
		return fmt.Errorf("failed to create output database: %w", err)
	}
	defer writer.Close()

	count := 0
	for _, row := range rows {
		err := writer.WritePair(sqlite.PairRecord{
			Entry:         row.entry,
			Ratio:         row.ratio,
			Color:         row.hex,
			TheoreticalMZ: theoreticalMZ(signer, row.entry),
		})
		if err != nil {
			return err
		}

		count++
		if count%1000 == 0 {
			fmt.Printf("Processed %d pairs...\n", count)
		}
	}

	// Finalize database
	if err := writer.Finalize(); err != nil {
		return fmt.Errorf("failed to finalize database: %w", err)
	}

	fmt.Printf("\nAggregation complete!\n")
	fmt.Printf("Pairs: %d\n", count)
	fmt.Printf("Run: %s\n", writer.RunID())
	fmt.Printf("Output: %s\n", outputFile)
	return nil
}
