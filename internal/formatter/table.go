package formatter

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/beatmiles/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
)

// RenderTable draws the workout table for terminal output.
//
// When withIDs is set a leading ID column is added so rows can be addressed by edit and delete.
func RenderTable(ws []models.Workout, dateFormat string, withIDs bool) string {
	headers := Columns
	if withIDs {
		headers = append([]string{"ID"}, Columns...)
	}

	rows := Rows(ws, dateFormat)
	if withIDs {
		for i, w := range ws {
			rows[i] = append([]string{w.ID}, rows[i]...)
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return t.Render()
}
