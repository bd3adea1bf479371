// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI mirrors the workout page of the web client:
//  1. [MainView] : the workout table with add, edit, delete, refresh and logout actions
//  2. [FormView] : the workout form, labelled "Log Workout" or "Save Changes" by the edit state
//  3. [ConfirmView] : the delete confirmation
//  4. [LoginView] and [RegisterView] : credential forms
//
// Every action runs a [tasks.Engine] operation inside a [tea.Cmd] against a [tasks.Recorder].
// The recorded effects come back as a [Msg] and are replayed onto the model in Update, so the
// model is only ever mutated on the bubbletea goroutine.
//
// Keyboard navigation uses vim-style bindings with contextual help displayed via charmbracelet/bubbles/help.
package ui
