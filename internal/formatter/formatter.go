// package formatter renders workouts for the terminal and exports them to CSV, Markdown, plain text or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
)

// Supported export formats.
const (
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
	FormatJSON     = "json"
)

// Formats lists every export format in the order they are offered.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// Columns are the headers of the workout table.
var Columns = []string{"Date", "Type", "Duration (min)", "Distance", "Avg Speed", "Avg HR", "Calories"}

// csvHeader names the raw wire fields, in the order [ExportToCSV] writes them.
var csvHeader = []string{"id", "date", "type", "duration", "distance", "avgSpeed", "avgHeartRate", "calories"}

// Row renders one workout as table cells. Optional numbers that are nil or zero become [shared.Placeholder].
func Row(w models.Workout, dateFormat string) []string {
	return []string{
		shared.FormatDate(w.Date, dateFormat),
		w.Type,
		strconv.Itoa(w.Duration),
		shared.FormatFloat(w.Distance),
		shared.FormatFloat(w.AvgSpeed),
		shared.FormatInt(w.AvgHeartRate),
		shared.FormatInt(w.Calories),
	}
}

// Rows renders every workout in order.
func Rows(ws []models.Workout, dateFormat string) [][]string {
	rows := make([][]string, 0, len(ws))
	for _, w := range ws {
		rows = append(rows, Row(w, dateFormat))
	}
	return rows
}

// ExportToCSV writes workouts with their raw wire values. Absent optional fields are empty cells.
func ExportToCSV(ws []models.Workout) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, w := range ws {
		record := []string{
			w.ID,
			w.Date,
			w.Type,
			strconv.Itoa(w.Duration),
			rawFloat(w.Distance),
			rawFloat(w.AvgSpeed),
			rawInt(w.AvgHeartRate),
			rawInt(w.Calories),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders workouts as a Markdown table under a heading with summary totals.
func ExportToMarkdown(ws []models.Workout, dateFormat string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Workouts\n\n")

	total := 0
	for _, w := range ws {
		total += w.Duration
	}
	buf.WriteString(fmt.Sprintf("**Workouts**: %d\n", len(ws)))
	buf.WriteString(fmt.Sprintf("**Total Duration**: %d min\n\n", total))

	buf.WriteString("| " + strings.Join(Columns, " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(Columns)) + "\n")
	for _, row := range Rows(ws, dateFormat) {
		for i := range row {
			row[i] = strings.ReplaceAll(row[i], "|", `\|`)
		}
		buf.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return buf.Bytes(), nil
}

// ExportToText renders one numbered line per workout.
func ExportToText(ws []models.Workout, dateFormat string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Workouts: %d\n\n", len(ws)))
	for i, w := range ws {
		buf.WriteString(fmt.Sprintf("%d. %s %s, %d min", i+1, shared.FormatDate(w.Date, dateFormat), w.Type, w.Duration))
		if w.Distance != nil && *w.Distance != 0 {
			buf.WriteString(fmt.Sprintf(", %s km", shared.FormatFloat(w.Distance)))
		}
		if w.Calories != nil && *w.Calories != 0 {
			buf.WriteString(fmt.Sprintf(", %d kcal", *w.Calories))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// Export renders ws in format, one of [Formats].
func Export(ws []models.Workout, format, dateFormat string) ([]byte, error) {
	switch format {
	case FormatCSV:
		return ExportToCSV(ws)
	case FormatMarkdown:
		return ExportToMarkdown(ws, dateFormat)
	case FormatText:
		return ExportToText(ws, dateFormat)
	case FormatJSON, "":
		if ws == nil {
			ws = []models.Workout{}
		}
		return shared.MarshalJSON(ws, true)
	default:
		return nil, fmt.Errorf("%w: unknown format %q (expected one of %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
}

// Extension returns the file extension used for format.
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return "md"
	case FormatCSV, FormatText:
		return format
	default:
		return "json"
	}
}

// WriteExport renders ws and writes it to path, returning the path written.
//
// Defaults to workouts_{epoch}.{ext} in the working directory.
func WriteExport(ws []models.Workout, format, path, dateFormat string) (string, error) {
	data, err := Export(ws, format, dateFormat)
	if err != nil {
		return "", err
	}

	if path == "" {
		path = fmt.Sprintf("workouts_%d.%s", time.Now().Unix(), Extension(format))
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func rawFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func rawInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
