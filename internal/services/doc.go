// Package services implements the HTTP clients for the BeatMiles API.
//
// # Transport
//
// [APIService] sends JSON requests relative to the configured base URL. Every request carries an
// X-Request-ID header. Authenticated requests are sent through an [oauth2.NewClient] wrapping a
// static token source built from the caller's [models.Session], so no component formats the
// Authorization header by hand.
//
// # Clients
//
//   - [AuthService] : register and login against /auth
//   - [WorkoutService] : list, create, update and delete against /workouts
//
// Neither client stores a session. Callers pass it on every call.
//
// # Error Handling
//
// Non-2xx responses become [*APIError], which unwraps to [shared.ErrAPIRequest] and carries the
// server's "message" field when there is one. Network failures wrap [shared.ErrServiceUnavailable],
// malformed success bodies wrap [shared.ErrDecode]. [Classify] folds any error into a [Failure] kind.
package services
