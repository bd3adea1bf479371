// Package models defines domain entities and persistence interfaces for the beatmiles client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): values exchanged with the BeatMiles API
//   - [Workout] : a workout record as the server sends and receives it
//   - [WorkoutForm] : raw, unvalidated form input for a workout
//   - [Credentials] : email and password for register and login
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [Session] : the stored bearer token for the logged-in user
//
// Persistent entities implement the [Model] interface providing ID, timestamps and validation.
// The [Repository] interface defines standard CRUD operations for database access.
package models
