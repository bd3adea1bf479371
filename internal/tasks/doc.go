// Package tasks holds the controller that drives every front end of the client.
//
// # Engine
//
// [Engine] implements the auth and workout flows. Each operation reads the stored session,
// makes at most one mutating request plus a list refresh, and reports the outcome through a
// [Presenter]: alerts, page navigation, table renders, form resets and the submit label.
// The CLI, the TUI and the web front end each supply their own Presenter.
//
// # Edit State
//
// Whether the workout form creates or updates is an explicit [EditState] value. [Engine.BeginEdit]
// returns Editing(id), a successful [Engine.SaveChanges] returns Creating, and [Engine.Submit]
// dispatches on it. Nothing about the form is held inside the Engine.
//
// # Effects
//
// [Recorder] is a Presenter that queues effects instead of applying them. Front ends that must not
// touch UI state from a worker goroutine run the Engine against a Recorder and replay the effects
// on their own thread with [Recorder.Replay].
//
// # Progress Reporting
//
// [Engine.BulkImport] sends [ProgressUpdate] values on an optional channel. Sends never block:
// when the channel is full the update is dropped.
package tasks
