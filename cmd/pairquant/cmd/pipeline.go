package cmd

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ChrisMcGann/PairQuant/pkg/colorize"
	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/curate"
	"github.com/ChrisMcGann/PairQuant/pkg/filter"
	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/quant"
	"github.com/ChrisMcGann/PairQuant/pkg/ratio"
	"github.com/ChrisMcGann/PairQuant/pkg/reader/summary"
	"github.com/ChrisMcGann/PairQuant/pkg/render"
	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

// customModsFile is picked up from the working directory when no
// modification CSV is configured.
const customModsFile = "unimod_custom.csv"

// Flags shared by aggregate and ratios
var (
	summaryFile   string
	matchesFile   string
	topN          int
	cutoffPercent float64
	curateKeys    []string
)

// loadModDatabase builds the modification database from the defaults,
// the configured labels and the optional modification CSV.
func loadModDatabase() (*core.ModDatabase, error) {
	modDB := core.DefaultModDatabase()

	labels, err := cfg.CoreLabels()
	if err != nil {
		return nil, err
	}
	modDB.AddLabels(labels)

	path := cfg.ModificationsCSV
	if path == "" {
		if _, err := os.Stat(customModsFile); err != nil {
			return modDB, nil
		}
		path = customModsFile
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open modification file: %w", err)
	}
	defer f.Close()

	if err := modDB.LoadFromCSV(f); err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	logger.Info("Loaded modification definitions", zap.String("file", path), zap.Int("total", modDB.Len()))
	return modDB, nil
}

// aggregate reads the summary and match files into curated results.
func aggregate(ctx context.Context, codec *molecule.Codec) (*results.Results, error) {
	rows, err := summary.Open(summaryFile)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	table, err := quant.OpenCSV(matchesFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load matches: %w", err)
	}
	fmt.Printf("Loaded %d matches from %s\n", table.Len(), matchesFile)

	agg := results.NewAggregator(codec, table,
		results.WithFilter(filter.Config{
			MinScore:        cfg.MinScore,
			TopN:            topN,
			IntensityCutoff: cutoffPercent,
		}),
		results.WithRTTolerance(cfg.RTBorderTolerance),
		results.WithLogger(logger))

	res, err := agg.Aggregate(ctx, rows)
	if err != nil {
		return nil, err
	}

	keys, err := parseKeys(codec, curateKeys)
	if err != nil {
		return nil, err
	}
	// results are aggregated from scratch, so no key is curated yet
	s := curate.New(logger).Curate(res, cfg.MinMatches, keys, false)
	fmt.Printf("Curated %d pairs, %d with required matches\n", s.Evaluated, s.Passed)

	return res, nil
}

// parseKeys decodes "MOLECULE/CHARGE" entries with charges normalized the
// way aggregation normalizes them. nil means every key.
func parseKeys(codec *molecule.Codec, entries []string) ([]molecule.MoleculeKey, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	keys := make([]molecule.MoleculeKey, 0, len(entries))
	for _, entry := range entries {
		idx := strings.LastIndex(entry, "/")
		if idx < 0 {
			return nil, fmt.Errorf("invalid curation key %q, expected MOLECULE/CHARGE", entry)
		}
		keys = append(keys, codec.Decode(entry[:idx]).Key(quant.NormalizeCharge(entry[idx+1:])))
	}
	return keys, nil
}

// pairRow is the ratio and color of one aggregated key.
type pairRow struct {
	entry *results.Entry
	ratio float64
	color colorize.RGB
	hex   string
}

// ratioRows computes the configured ratio of every key and its color.
func ratioRows(res *results.Results) ([]pairRow, error) {
	gradient, err := cfg.ColorGradient()
	if err != nil {
		return nil, err
	}

	var rows []pairRow
	for key, r := range ratio.Ratios(res, cfg.Ratio.Numerator, cfg.Ratio.Denominator, cfg.Ratio.Field) {
		e, _ := res.Get(key)
		c, hex := colorize.Colorize(r, gradient)
		rows = append(rows, pairRow{entry: e, ratio: r, color: c, hex: hex})
	}
	return rows, nil
}

func renderRows(rows []pairRow) []render.Row {
	out := make([]render.Row, len(rows))
	for i, r := range rows {
		out[i] = render.Row{
			Key:                r.entry.Key,
			Ratio:              r.ratio,
			Curated:            r.entry.Curation.Curated,
			HasRequiredMatches: r.entry.Curation.HasRequiredMatches,
			Color:              r.color,
		}
	}
	return out
}

// theoreticalMZ computes the m/z of every label molecule of e. Molecules
// the signer cannot resolve are logged and left out.
func theoreticalMZ(signer *molecule.Signer, e *results.Entry) map[string]float64 {
	charge, err := strconv.Atoi(quant.NormalizeCharge(e.Key.Charge))
	if err != nil || charge <= 0 {
		return nil
	}

	mzs := make(map[string]float64)
	for _, label := range e.Labels() {
		info, _ := e.Label(label)
		mz, err := signer.MZ(info.Molecule, charge)
		if err != nil {
			logger.Debug("Cannot compute theoretical m/z",
				zap.String("molecule", info.Molecule),
				zap.Error(err))
			continue
		}
		mzs[label] = mz
	}
	return mzs
}

func addAggregateFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&summaryFile, "summary", "", "Quantification summary file, .csv or .xlsx (required)")
	fs.StringVar(&matchesFile, "matches", "", "Quantification match table CSV (required)")
	fs.IntVar(&topN, "top-n", 0, "Keep only top N most intense peaks per match (0 = no limit)")
	fs.Float64Var(&cutoffPercent, "cutoff", 0, "Peak intensity cutoff as % of base peak (0 = no cutoff)")
	fs.StringSliceVar(&curateKeys, "curate", nil, "Curate only these keys, as MOLECULE/CHARGE (default: all)")

	cmd.MarkFlagRequired("summary")
	cmd.MarkFlagRequired("matches")
}
