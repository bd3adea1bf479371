package tasks

// Submit button labels.
const (
	LabelCreate = "Log Workout"
	LabelSave   = "Save Changes"
)

// EditState records whether the workout form creates a new record or edits an existing one.
// The zero value is the create state.
type EditState struct {
	workoutID string
}

// Creating is the state in which submitting the form creates a workout.
func Creating() EditState { return EditState{} }

// Editing is the state in which submitting the form updates the workout with id.
func Editing(id string) EditState { return EditState{workoutID: id} }

// IsEditing reports whether a workout is being edited.
func (s EditState) IsEditing() bool { return s.workoutID != "" }

// WorkoutID returns the workout being edited, or "".
func (s EditState) WorkoutID() string { return s.workoutID }

// SubmitLabel is the label the submit button should show in this state.
func (s EditState) SubmitLabel() string {
	if s.IsEditing() {
		return LabelSave
	}
	return LabelCreate
}

func (s EditState) String() string {
	if s.IsEditing() {
		return "editing(" + s.workoutID + ")"
	}
	return "create"
}
