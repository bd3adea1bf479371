package tasks

import (
	"fmt"

	"github.com/desertthunder/beatmiles/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ValidateImport Phase = iota
	ImportWorkouts
	RefreshWorkouts
)

func (p Phase) String() string {
	switch p {
	case ValidateImport:
		return "validate_import"
	case ImportWorkouts:
		return "import_workouts"
	case RefreshWorkouts:
		return "refresh_workouts"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func validatingUpdate(total, invalid int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ValidateImport,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Validated %d rows (%d invalid)", total, invalid),
	}
}

func importedUpdate(step, total int, w models.Workout) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportWorkouts,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s %s (%d min)", step, total, w.Date, w.Type, w.Duration),
		Data:    w,
	}
}

func importFailedUpdate(step, total, line int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ImportWorkouts,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ row %d: %v", step, total, line, err),
	}
}

func refreshingUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   RefreshWorkouts,
		Step:    1,
		Total:   1,
		Message: "Refreshing workout list...",
	}
}
