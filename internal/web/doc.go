// Package web renders the workout pages served by the `serve` command.
//
// Pages are server-side html/template views over the same [tasks.Engine] the CLI and TUI use:
//
//	GET  /                      → workout table and form
//	POST /workouts              → create, or save changes when the form carries an id
//	POST /workouts/cancel       → abandon an edit
//	GET  /workouts/{id}/edit    → table with the form filled from the workout
//	GET  /workouts/{id}/delete  → confirmation page
//	POST /workouts/{id}/delete  → delete when confirm=yes
//	GET  /login, POST /login    → login form and action
//	GET  /register, POST /register
//	POST /logout
//
// Each action runs the engine against a [tasks.Recorder]. A recorded navigation, or a successful
// action, becomes a 303 redirect and its alerts are shown on the next page. Failed actions
// re-render the form with the alerts and the values that were submitted.
package web
