package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bonsplit/bonsplit/internal/parser"
)

// ReceiptInput is one extracted receipt as delivered by the upstream
// OCR step: the token stream plus whatever metadata the extraction
// already recognized.
type ReceiptInput struct {
	ID           string         `json:"id,omitempty"`
	SourcePath   string         `json:"source_path,omitempty"`
	Shop         string         `json:"shop,omitempty"`
	Date         InputDate      `json:"date,omitempty"`
	Text         string         `json:"text,omitempty"`
	Tokens       []parser.Token `json:"tokens"`
	PrintedTotal float64        `json:"printed_total,omitempty"`
}

// InputDate parses the date formats extraction tools emit: ISO and the
// dotted day-first form printed on receipts.
type InputDate struct {
	value time.Time
}

var inputDateFormats = []string{"2006-01-02", "02.01.2006", "02.01.06"}

// Time returns the parsed date, zero when none was given.
func (d InputDate) Time() time.Time {
	return d.value
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *InputDate) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		d.value = time.Time{}
		return nil
	}

	for _, format := range inputDateFormats {
		if t, err := time.Parse(format, raw); err == nil {
			d.value = t
			return nil
		}
	}
	return fmt.Errorf("unrecognized date %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (d InputDate) MarshalJSON() ([]byte, error) {
	if d.value.IsZero() {
		return json.Marshal("")
	}
	return json.Marshal(d.value.Format("2006-01-02"))
}

// LoadInput reads a single extracted receipt file.
func LoadInput(path string) (*ReceiptInput, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided input file
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var input ReceiptInput
	if err := json.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if input.SourcePath == "" {
		input.SourcePath = path
	}
	return &input, nil
}

// LoadInputs reads every .json receipt file in a directory, sorted by
// name for deterministic processing order.
func LoadInputs(dir string) ([]ReceiptInput, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	inputs := make([]ReceiptInput, 0, len(paths))
	for _, path := range paths {
		input, err := LoadInput(path)
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, *input)
	}
	return inputs, nil
}
