package results

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ChrisMcGann/PairQuant/pkg/filter"
	"github.com/ChrisMcGann/PairQuant/pkg/molecule"
	"github.com/ChrisMcGann/PairQuant/pkg/quant"
)

// RowReader streams summary rows.
type RowReader interface {
	Next() bool
	Row() map[string]string
	Err() error
}

// Aggregator builds Results from summary rows and quantification matches.
type Aggregator struct {
	codec       *molecule.Codec
	source      quant.Source
	filter      filter.Config
	rtTolerance float64
	logger      *zap.Logger
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithFilter sets the match filter.
func WithFilter(cfg filter.Config) Option {
	return func(a *Aggregator) { a.filter = cfg }
}

// WithRTTolerance widens the retention-time window used for window amounts.
func WithRTTolerance(tol float64) Option {
	return func(a *Aggregator) { a.rtTolerance = tol }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(a *Aggregator) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewAggregator creates an aggregator decoding molecules with codec and
// reading matches from source.
func NewAggregator(codec *molecule.Codec, source quant.Source, opts ...Option) *Aggregator {
	a := &Aggregator{
		codec:  codec,
		source: source,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Aggregate reads every summary row, groups label infos by MoleculeKey and
// attaches the matches of every (key, label). Key charges are normalized
// with quant.NormalizeCharge. Rows whose molecule carries
// no known label are skipped. Every entry ends with a fresh, uncurated
// CurationRecord.
func (a *Aggregator) Aggregate(ctx context.Context, rows RowReader) (*Results, error) {
	res := New(a.codec.Labels())

	count, skipped, duplicates := 0, 0, 0
	for rows.Next() {
		row := rows.Row()
		count++

		d := a.codec.Decode(row[FieldMolecule])
		if !d.Labeled() {
			a.logger.Debug("Skipping unlabeled molecule",
				zap.String("molecule", row[FieldMolecule]))
			skipped++
			continue
		}

		key := d.Key(quant.NormalizeCharge(row[FieldCharge]))
		if !res.Upsert(key, d.Label, NewLabelInfo(row)) {
			duplicates++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading summary rows: %w", err)
	}

	a.logger.Info("Read summary rows",
		zap.Int("rows", count),
		zap.Int("keys", res.Len()),
		zap.Int("unlabeled", skipped),
		zap.Int("duplicates", duplicates))

	matches, rejected := 0, 0
	for key, e := range res.All() {
		for _, label := range e.order {
			info := e.labels[label]
			n, r, err := a.attachMatches(ctx, key, info)
			if err != nil {
				return nil, fmt.Errorf("failed to extract matches for %s %s: %w", key, label, err)
			}
			matches += n
			rejected += r
		}
		e.Curation = CurationRecord{}
	}

	a.logger.Info("Attached matches",
		zap.Int("matches", matches),
		zap.Int("rejected", rejected))

	return res, nil
}

// attachMatches replaces the data of info with the accepted matches of
// key and recomputes len_data and the window amounts.
func (a *Aggregator) attachMatches(ctx context.Context, key molecule.MoleculeKey, info *LabelInfo) (int, int, error) {
	hits, err := a.source.ExtractMatches(ctx, quant.Filter{
		Charges:   []string{key.Charge},
		FileNames: []string{info.FileName},
		Formulas:  []string{info.Formula},
	})
	if err != nil {
		return 0, 0, err
	}

	rejected := 0
	info.Data = nil
	for _, h := range hits {
		rec := h.Record
		if err := a.filter.Accept(&rec); err != nil {
			a.logger.Debug("Rejected match",
				zap.String("key", key.String()),
				zap.String("spec_id", rec.SpecID),
				zap.Error(err))
			rejected++
			continue
		}
		info.Data = append(info.Data, rec)
	}
	info.LenData = len(info.Data)

	info.Amounts = nil
	if start, stop, ok := info.Window(); ok {
		if w, ok := CalcAmounts(info.Data, start, stop, a.rtTolerance); ok {
			info.Amounts = &w
		}
	}

	return info.LenData, rejected, nil
}

// SliceRows adapts a slice of rows to a RowReader.
func SliceRows(rows []map[string]string) RowReader {
	return &sliceRows{rows: rows, idx: -1}
}

type sliceRows struct {
	rows []map[string]string
	idx  int
}

func (s *sliceRows) Next() bool {
	s.idx++
	return s.idx < len(s.rows)
}

func (s *sliceRows) Row() map[string]string {
	return s.rows[s.idx]
}

func (s *sliceRows) Err() error {
	return nil
}
