// Package sqlite provides SQLite database writing for aggregated label
// pair results
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/PairQuant/pkg/core"
	"github.com/ChrisMcGann/PairQuant/pkg/results"
)

// Date format for RunTable (ISO 8601)
const runDateFormat = "2006-01-02 15:04:05"

// RunInfo describes one aggregation run.
type RunInfo struct {
	Labels      []string
	MinMatches  int
	RatioField  string
	SummaryFile string
	MatchesFile string
}

// PairRecord is one aggregated key with its ratio and color.
type PairRecord struct {
	Entry *results.Entry
	Ratio float64
	Color string
	// TheoreticalMZ holds the m/z of each label molecule, when known.
	TheoreticalMZ map[string]float64
}

// Writer handles writing label pairs to SQLite database files
type Writer struct {
	db         *sql.DB
	outputPath string
	runID      string
	pairStmt   *sql.Stmt
	labelStmt  *sql.Stmt
	matchStmt  *sql.Stmt
	pairID     int
	labelID    int
	matchID    int
	pairs      int
	closed     bool
}

// NewWriter creates a new SQLite writer and records the run.
func NewWriter(outputPath string, run RunInfo) (*Writer, error) {
	db, err := sql.Open("sqlite3", outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	w := &Writer{
		db:         db,
		outputPath: outputPath,
		runID:      uuid.New().String(),
	}

	if err := w.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.seedIDs(); err != nil {
		db.Close()
		return nil, err
	}

	if err := w.prepareStatements(); err != nil {
		w.closeStatements()
		db.Close()
		return nil, err
	}

	_, err = w.db.Exec(`
		INSERT INTO RunTable (RunId, CreationDate, Labels, MinMatches, RatioField, SummaryFile, MatchesFile, NoOfPairs)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, w.runID, time.Now().Format(runDateFormat), strings.Join(run.Labels, ";"),
		run.MinMatches, run.RatioField, run.SummaryFile, run.MatchesFile, 0)
	if err != nil {
		w.closeStatements()
		db.Close()
		return nil, fmt.Errorf("failed to insert run: %w", err)
	}

	return w, nil
}

// RunID returns the id of the run being written.
func (w *Writer) RunID() string {
	return w.runID
}

// createTables creates the required database schema
func (w *Writer) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS RunTable (
		RunId TEXT PRIMARY KEY,
		CreationDate TEXT,
		Labels TEXT,
		MinMatches INTEGER,
		RatioField TEXT,
		SummaryFile TEXT,
		MatchesFile TEXT,
		NoOfPairs INTEGER
	);

	CREATE TABLE IF NOT EXISTS PairTable (
		PairId INTEGER PRIMARY KEY,
		RunId TEXT REFERENCES RunTable(RunId),
		Sequence TEXT,
		Charge TEXT,
		LabelPosition TEXT,
		Mods TEXT,
		RequiredMatches INTEGER,
		HasRequiredMatches BOOL,
		Curated BOOL,
		Ratio DOUBLE,
		RatioColor TEXT
	);

	CREATE TABLE IF NOT EXISTS LabelTable (
		LabelId INTEGER PRIMARY KEY,
		PairId INTEGER REFERENCES PairTable(PairId),
		Label TEXT,
		FileName TEXT,
		TrivialNames TEXT,
		Formula TEXT,
		Molecule TEXT,
		HasMS2Id BOOL,
		TheoreticalMZ DOUBLE,
		StartTime DOUBLE,
		StopTime DOUBLE,
		AUC DOUBLE,
		LenData INTEGER,
		CalcMaxI DOUBLE,
		CalcMaxIRT DOUBLE,
		CalcSumI DOUBLE,
		CalcAUC DOUBLE
	);

	CREATE TABLE IF NOT EXISTS MatchTable (
		MatchId INTEGER PRIMARY KEY,
		LabelId INTEGER REFERENCES LabelTable(LabelId),
		SpecId TEXT,
		RetentionTime DOUBLE,
		Score DOUBLE,
		ScalingFactor DOUBLE,
		blobMass BLOB,
		blobIntensity BLOB
	);
	`

	_, err := w.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	return nil
}

// seedIDs continues the id counters after the rows of earlier runs
func (w *Writer) seedIDs() error {
	for _, c := range []struct {
		query string
		dst   *int
	}{
		{`SELECT COALESCE(MAX(PairId), 0) + 1 FROM PairTable`, &w.pairID},
		{`SELECT COALESCE(MAX(LabelId), 0) + 1 FROM LabelTable`, &w.labelID},
		{`SELECT COALESCE(MAX(MatchId), 0) + 1 FROM MatchTable`, &w.matchID},
	} {
		if err := w.db.QueryRow(c.query).Scan(c.dst); err != nil {
			return fmt.Errorf("failed to read next id: %w", err)
		}
	}
	return nil
}

// prepareStatements prepares SQL statements for batch insertion
func (w *Writer) prepareStatements() error {
	var err error

	w.pairStmt, err = w.db.Prepare(`
		INSERT INTO PairTable (
			PairId, RunId, Sequence, Charge, LabelPosition, Mods,
			RequiredMatches, HasRequiredMatches, Curated, Ratio, RatioColor
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare pair statement: %w", err)
	}

	w.labelStmt, err = w.db.Prepare(`
		INSERT INTO LabelTable (
			LabelId, PairId, Label, FileName, TrivialNames, Formula, Molecule,
			HasMS2Id, TheoreticalMZ, StartTime, StopTime, AUC, LenData,
			CalcMaxI, CalcMaxIRT, CalcSumI, CalcAUC
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare label statement: %w", err)
	}

	w.matchStmt, err = w.db.Prepare(`
		INSERT INTO MatchTable (
			MatchId, LabelId, SpecId, RetentionTime, Score, ScalingFactor,
			blobMass, blobIntensity
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare match statement: %w", err)
	}

	return nil
}

// WritePair writes a key with all its labels and matches
func (w *Writer) WritePair(p PairRecord) error {
	e := p.Entry
	_, err := w.pairStmt.Exec(
		w.pairID,                      // PairId
		w.runID,                       // RunId
		e.Key.Sequence,                // Sequence
		e.Key.Charge,                  // Charge
		e.Key.LabelPosition,           // LabelPosition
		e.Key.Mods,                    // Mods
		e.Curation.RequiredMatches,    // RequiredMatches
		e.Curation.HasRequiredMatches, // HasRequiredMatches
		e.Curation.Curated,            // Curated
		p.Ratio,                       // Ratio
		p.Color,                       // RatioColor
	)
	if err != nil {
		return fmt.Errorf("failed to insert pair %s: %w", e.Key, err)
	}

	for _, label := range e.Labels() {
		info, _ := e.Label(label)
		if err := w.writeLabel(label, info, p.TheoreticalMZ); err != nil {
			return err
		}
	}

	w.pairID++
	w.pairs++
	return nil
}

func (w *Writer) writeLabel(label string, info *results.LabelInfo, mzs map[string]float64) error {
	var mz interface{}
	if v, ok := mzs[label]; ok {
		mz = v
	}
	var start, stop interface{}
	if t0, t1, ok := info.Window(); ok {
		start, stop = t0, t1
	}

	_, err := w.labelStmt.Exec(
		w.labelID,                            // LabelId
		w.pairID,                             // PairId
		label,                                // Label
		info.FileName,                        // FileName
		info.TrivialNames,                    // TrivialNames
		info.Formula,                         // Formula
		info.Molecule,                        // Molecule
		info.HasMS2ID,                        // HasMS2Id
		mz,                                   // TheoreticalMZ
		start,                                // StartTime
		stop,                                 // StopTime
		field(info, results.FieldAUC),        // AUC
		info.LenData,                         // LenData
		field(info, results.FieldCalcMaxI),   // CalcMaxI
		field(info, results.FieldCalcMaxIRT), // CalcMaxIRT
		field(info, results.FieldCalcSumI),   // CalcSumI
		field(info, results.FieldCalcAUC),    // CalcAUC
	)
	if err != nil {
		return fmt.Errorf("failed to insert label %s: %w", label, err)
	}

	for _, m := range info.Data {
		if err := w.writeMatch(m); err != nil {
			return err
		}
	}

	w.labelID++
	return nil
}

func (w *Writer) writeMatch(m core.MatchRecord) error {
	// Ensure peaks are sorted
	if !m.ArePeaksSorted() {
		m = m.Clone()
		m.SortPeaks()
	}

	// Encode peaks as binary blobs (little-endian float64)
	mzBlob := encodePeaksFloat64(m.Peaks, true)   // m/z values
	intBlob := encodePeaksFloat64(m.Peaks, false) // intensity values

	_, err := w.matchStmt.Exec(
		w.matchID,       // MatchId
		w.labelID,       // LabelId
		m.SpecID,        // SpecId
		m.RT,            // RetentionTime
		m.Score,         // Score
		m.ScalingFactor, // ScalingFactor
		mzBlob,          // blobMass
		intBlob,         // blobIntensity
	)
	if err != nil {
		return fmt.Errorf("failed to insert match %s: %w", m.SpecID, err)
	}

	w.matchID++
	return nil
}

// field returns a numeric label field or nil when it is not numeric.
func field(info *results.LabelInfo, name string) interface{} {
	v, ok := info.Value(name)
	if !ok {
		return nil
	}
	return v
}

// encodePeaksFloat64 encodes peak data as little-endian float64 blob
func encodePeaksFloat64(peaks []core.Peak, useMZ bool) []byte {
	buf := make([]byte, len(peaks)*8)
	for i, peak := range peaks {
		var value float64
		if useMZ {
			value = peak.MZ
		} else {
			value = peak.Intensity
		}
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(value))
	}
	return buf
}

// DecodePeaksFloat64 decodes a little-endian float64 blob.
func DecodePeaksFloat64(blob []byte) ([]float64, error) {
	if len(blob)%8 != 0 {
		return nil, fmt.Errorf("blob length %d is not a multiple of 8", len(blob))
	}
	values := make([]float64, len(blob)/8)
	for i := range values {
		values[i] = math.Float64frombits(binary.LittleEndian.Uint64(blob[i*8:]))
	}
	return values, nil
}

func (w *Writer) closeStatements() {
	for _, stmt := range []*sql.Stmt{w.pairStmt, w.labelStmt, w.matchStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
}

// Finalize records the number of pairs written and closes the database
func (w *Writer) Finalize() error {
	if w.closed {
		return nil
	}
	w.closed = true

	_, err := w.db.Exec(`UPDATE RunTable SET NoOfPairs = ? WHERE RunId = ?`, w.pairs, w.runID)
	if err != nil {
		w.closeStatements()
		w.db.Close()
		return fmt.Errorf("failed to update run: %w", err)
	}

	// Close prepared statements
	w.closeStatements()

	// Close database
	if err := w.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	return nil
}

// Close closes the database connection (alias for Finalize)
func (w *Writer) Close() error {
	return w.Finalize()
}
