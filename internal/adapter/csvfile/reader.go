// Package csvfile reads the flat risk indicator dataset from disk.
package csvfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/couchcryptid/risk-replay-dashboard/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// timestampLayouts is the ordered list of accepted ISO-like layouts.
// Zone-less layouts are interpreted as UTC.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Result is the outcome of a successful read.
type Result struct {
	Events []domain.Event
	// NullTimestamps counts rows whose timestamp degraded to null.
	NullTimestamps int
	// Encoding names the decoder that produced usable text.
	Encoding string
}

// Read loads a dataset file, returning events sorted by the canonical key.
//
// Errors: a missing file wraps domain.ErrSourceNotFound; missing required
// columns produce a domain.SchemaError naming them. Unparseable timestamps
// degrade per row to a null timestamp instead of failing the load, and the
// file bytes go through an ordered encoding fallback (UTF-8 with optional
// BOM, then Windows-1252) before parsing.
func Read(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Result{}, fmt.Errorf("%s: %w", path, domain.ErrSourceNotFound)
		}
		return Result{}, fmt.Errorf("read %s: %w", path, err)
	}

	text, encoding := decode(data)
	records, err := csv.NewReader(bytes.NewReader(text)).ReadAll()
	if err != nil {
		return Result{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(records) == 0 {
		return Result{}, fmt.Errorf("parse %s: empty file", path)
	}

	cols, err := columnIndex(records[0])
	if err != nil {
		return Result{}, err
	}

	res := Result{Encoding: encoding}
	for _, rec := range records[1:] {
		ts, ok := ParseTimestamp(rec[cols["timestamp"]])
		if !ok {
			res.NullTimestamps++
		}
		res.Events = append(res.Events, domain.Event{
			Timestamp:      ts,
			Region:         strings.TrimSpace(rec[cols["region"]]),
			Lat:            parseFloatOrZero(rec[cols["lat"]]),
			Lon:            parseFloatOrZero(rec[cols["lon"]]),
			RiskScore:      parseFloatOrZero(rec[cols["risk_score"]]),
			ActivityIndex:  parseFloatOrZero(rec[cols["activity_index"]]),
			SupplyPressure: parseFloatOrZero(rec[cols["supply_pressure"]]),
			MoraleIndex:    parseFloatOrZero(rec[cols["morale_index"]]),
		})
	}

	domain.SortEvents(res.Events)
	return res, nil
}

// decode applies the ordered encoding fallback. Valid UTF-8 is used directly
// with any leading BOM stripped; anything else is decoded as Windows-1252,
// which maps every byte, so the fallback always terminates.
func decode(data []byte) ([]byte, string) {
	if utf8.Valid(data) {
		if bytes.HasPrefix(data, utf8BOM) {
			return bytes.TrimPrefix(data, utf8BOM), "utf-8-sig"
		}
		return data, "utf-8"
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		// Windows-1252 decoding cannot fail; keep the raw bytes if it ever does.
		return data, "raw"
	}
	return out, "windows-1252"
}

// columnIndex maps required column names to their positions, reporting every
// missing column at once.
func columnIndex(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}

	var missing []string
	for _, name := range domain.RequiredColumns {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}
	return cols, nil
}

// ParseTimestamp tries the accepted layouts in order, normalizing to UTC.
// Returns a zero time and false when no layout matches.
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseFloatOrZero parses a string as float64, returning 0 on failure.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
