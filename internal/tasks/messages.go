package tasks

import "fmt"

// User-facing messages.
const (
	MsgFillAllFields   = "Please fill out all fields."
	MsgRegistered      = "Registration successful! Redirecting to login..."
	MsgRegisterFailed  = "Registration failed."
	MsgLoggedIn        = "Login successful!"
	MsgLoginFailed     = "Login failed."
	MsgLoggedOut       = "You have been logged out."
	MsgGenericError    = "An error occurred. Please try again."
	MsgRequiredFields  = "Please fill out the required fields (date, type, duration)."
	MsgCreated         = "Workout logged successfully!"
	MsgCreateFailed    = "Failed to log workout."
	MsgFetchFailed     = "Failed to fetch workouts."
	MsgConfirmDelete   = "Are you sure you want to delete this workout?"
	MsgDeleted         = "Workout deleted."
	MsgDeleteFailed    = "Failed to delete workout."
	MsgUpdated         = "Workout updated successfully!"
	MsgUpdateFailed    = "Failed to update workout."
	MsgTokenImported   = "Session token imported."
	MsgLoginToExport   = "You must be logged in to export workouts."
	MsgNothingToImport = "No workouts found to import."
)

// Verbs used in the login-required message.
const (
	verbAdd    = "add"
	verbDelete = "delete"
	verbEdit   = "edit"
)

func loginRequired(verb string) string {
	return fmt.Sprintf("You must be logged in to %s a workout.", verb)
}

func importSummary(imported, total int) string {
	return fmt.Sprintf("Imported %d of %d workouts.", imported, total)
}
