package price

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/vsharma2491/ALGO/internal/models"
)

// csvBar is one row of a bar file. The time column may be headed date,
// datetime, timestamp or time, in any case.
type csvBar struct {
	Date   string  `csv:"date"`
	Open   float64 `csv:"open"`
	High   float64 `csv:"high"`
	Low    float64 `csv:"low"`
	Close  float64 `csv:"close"`
	Volume float64 `csv:"volume"`
}

var timeColumns = map[string]bool{"date": true, "datetime": true, "timestamp": true, "time": true}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05-07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"02-01-2006 15:04",
}

// LoadCSV reads bars from a file. A zero from or to leaves that side open.
func LoadCSV(path string, from, to time.Time) ([]models.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening bar file: %w", err)
	}
	defer f.Close()

	return ReadCSV(f, from, to)
}

// ReadCSV parses, sorts, drops repeated timestamps (first wins), filters to
// [from, to] and validates.
func ReadCSV(r io.Reader, from, to time.Time) ([]models.Bar, error) {
	var rows []csvBar
	if err := gocsv.UnmarshalCSV(newHeaderReader(csv.NewReader(r)), &rows); err != nil {
		return nil, &models.DataError{Index: -1, Reason: fmt.Sprintf("reading csv: %v", err)}
	}

	bars := make([]models.Bar, 0, len(rows))
	for i, row := range rows {
		ts, err := parseTime(row.Date)
		if err != nil {
			return nil, &models.DataError{Index: i, Reason: err.Error()}
		}
		if (!from.IsZero() && ts.Before(from)) || (!to.IsZero() && ts.After(to)) {
			continue
		}
		bars = append(bars, models.Bar{
			Time:   ts,
			Open:   row.Open,
			High:   row.High,
			Low:    row.Low,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}

	bars = Normalize(bars)
	if err := models.ValidateBars(bars); err != nil {
		return nil, err
	}
	return bars, nil
}

// Normalize sorts bars by time in place and keeps the first bar of each
// timestamp.
func Normalize(bars []models.Bar) []models.Bar {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})

	out := bars[:0]
	for i, b := range bars {
		if i > 0 && b.Time.Equal(out[len(out)-1].Time) {
			continue
		}
		out = append(out, b)
	}
	return out
}

func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	// epoch seconds or milliseconds
	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		if n > 1e11 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognised timestamp %q", v)
}

// headerReader lower-cases the header row and maps the accepted time column
// names onto date.
type headerReader struct {
	r      *csv.Reader
	header bool
}

func newHeaderReader(r *csv.Reader) *headerReader {
	r.TrimLeadingSpace = true
	return &headerReader{r: r}
}

func (h *headerReader) Read() ([]string, error) {
	rec, err := h.r.Read()
	if err != nil || h.header {
		return rec, err
	}
	h.header = true
	return normalizeHeader(rec), nil
}

func (h *headerReader) ReadAll() ([][]string, error) {
	var out [][]string
	for {
		rec, err := h.Read()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
}

func normalizeHeader(rec []string) []string {
	out := make([]string, len(rec))
	for i, col := range rec {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if timeColumns[col] {
			col = "date"
		}
		out[i] = col
	}
	return out
}
