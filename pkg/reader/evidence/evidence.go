// Package evidence loads and saves evidence lookups and molecule lists.
package evidence

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ChrisMcGann/PairQuant/pkg/partner"
)

// ErrUnsupportedFormat is returned for lookup files that are neither YAML
// nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported evidence format")

type format int

const (
	formatYAML format = iota
	formatJSON
)

func formatOf(path string) (format, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return formatYAML, nil
	case ".json":
		return formatJSON, nil
	default:
		return 0, fmt.Errorf("%w: extension %q of file %s", ErrUnsupportedFormat, ext, path)
	}
}

// Load reads an evidence lookup from a YAML or JSON file.
func Load(path string) (partner.EvidenceLookup, error) {
	f, err := formatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read evidence file: %w", err)
	}

	lookup := partner.EvidenceLookup{}
	switch f {
	case formatYAML:
		err = yaml.Unmarshal(data, &lookup)
	case formatJSON:
		err = json.Unmarshal(data, &lookup)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse evidence file %s: %w", path, err)
	}

	// null entries decode as nil evidence
	for _, inner := range lookup {
		for m, ev := range inner {
			if ev == nil {
				inner[m] = &partner.Evidence{}
			}
		}
	}
	return lookup, nil
}

// Save writes lookup to a YAML or JSON file.
func Save(path string, lookup partner.EvidenceLookup) error {
	f, err := formatOf(path)
	if err != nil {
		return err
	}

	var data []byte
	switch f {
	case formatYAML:
		data, err = yaml.Marshal(lookup)
	case formatJSON:
		data, err = json.MarshalIndent(lookup, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("failed to encode evidence lookup: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write evidence file: %w", err)
	}
	return nil
}

// ReadMolecules reads one molecule per line. Blank lines and lines
// starting with '#' are skipped.
func ReadMolecules(r io.Reader) ([]string, error) {
	var molecules []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		molecules = append(molecules, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read molecules: %w", err)
	}
	return molecules, nil
}

// LoadMolecules reads a molecule list file.
func LoadMolecules(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open molecule list: %w", err)
	}
	defer f.Close()
	return ReadMolecules(f)
}

// SaveMolecules writes one molecule per line.
func SaveMolecules(path string, molecules []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create molecule list: %w", err)
	}

	w := bufio.NewWriter(f)
	for _, m := range molecules {
		if _, err := fmt.Fprintln(w, m); err != nil {
			f.Close()
			return fmt.Errorf("failed to write molecule list: %w", err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("failed to write molecule list: %w", err)
	}
	return f.Close()
}
