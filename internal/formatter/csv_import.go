package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
)

// headerAliases maps normalized header names onto form fields.
var headerAliases = map[string]string{
	"date":         "date",
	"type":         "type",
	"duration":     "duration",
	"durationmin":  "duration",
	"distance":     "distance",
	"avgspeed":     "avgSpeed",
	"averagespeed": "avgSpeed",
	"avgheartrate": "avgHeartRate",
	"avghr":        "avgHeartRate",
	"heartrate":    "avgHeartRate",
	"calories":     "calories",
	"kcal":         "calories",
}

// ParseCSV reads workout rows from a CSV file with a header row.
//
// Header names are matched case-insensitively, ignoring spaces, dashes, underscores and parentheses,
// so both [ExportToCSV] output and the table [Columns] are accepted. Unknown columns are skipped.
// Values are returned unparsed; validation happens when each form is submitted.
func ParseCSV(r io.Reader) ([]models.WorkoutForm, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty CSV file", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", shared.ErrInvalidInput, err)
	}

	index := map[string]int{}
	for i, h := range header {
		if field, ok := headerAliases[normalizeHeader(h)]; ok {
			if _, seen := index[field]; !seen {
				index[field] = i
			}
		}
	}
	for _, required := range []string{"date", "type", "duration"} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("%w: CSV header is missing column %q", shared.ErrInvalidInput, required)
		}
	}

	var forms []models.WorkoutForm
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", shared.ErrInvalidInput, line, err)
		}

		cell := func(field string) string {
			i, ok := index[field]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		form := models.WorkoutForm{
			Date:         normalizeDate(cell("date")),
			Type:         cell("type"),
			Duration:     cell("duration"),
			Distance:     cell("distance"),
			AvgSpeed:     cell("avgSpeed"),
			AvgHeartRate: cell("avgHeartRate"),
			Calories:     cell("calories"),
		}
		if form.IsZero() {
			continue
		}
		forms = append(forms, form)
	}

	return forms, nil
}

// ParseCSVFile opens path and parses it with [ParseCSV].
func ParseCSVFile(path string) ([]models.WorkoutForm, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer f.Close()
	return ParseCSV(f)
}

// importDateLayouts are the non-ISO layouts accepted for the date column.
var importDateLayouts = []string{"01/02/2006", "1/2/2006"}

// normalizeDate rewrites US-style dates as YYYY-MM-DD and leaves anything else untouched.
func normalizeDate(s string) string {
	if _, err := shared.ParseDate(s); err == nil {
		return s
	}
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(shared.ISODate)
		}
	}
	return s
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '-', '_', '(', ')':
			return -1
		}
		return r
	}, h)
}
