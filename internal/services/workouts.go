package services

import (
	"context"
	"net/url"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
)

// WorkoutService talks to the /workouts endpoints. Every call takes the session explicitly.
type WorkoutService struct {
	api *APIService
}

// NewWorkoutService creates a [WorkoutService] over api.
func NewWorkoutService(api *APIService) *WorkoutService {
	return &WorkoutService{api: api}
}

// List fetches every workout for the session's user in the order the server returns them.
func (s *WorkoutService) List(ctx context.Context, sess *models.Session) ([]models.Workout, error) {
	if !sess.Valid() {
		return nil, shared.ErrNotAuthenticated
	}

	resp, err := s.api.Get(ctx, "/workouts", sess)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	var workouts []models.Workout
	if err := resp.Decode(&workouts); err != nil {
		return nil, err
	}
	return workouts, nil
}

// Create posts a new workout. The ID of w is never sent.
func (s *WorkoutService) Create(ctx context.Context, sess *models.Session, w models.Workout) error {
	if !sess.Valid() {
		return shared.ErrNotAuthenticated
	}

	resp, err := s.api.Post(ctx, "/workouts", sess, w.Fields())
	if err != nil {
		return err
	}
	return resp.Err()
}

// Update replaces the workout identified by id with w.
func (s *WorkoutService) Update(ctx context.Context, sess *models.Session, id string, w models.Workout) error {
	if !sess.Valid() {
		return shared.ErrNotAuthenticated
	}

	resp, err := s.api.Put(ctx, workoutPath(id), sess, w.Fields())
	if err != nil {
		return err
	}
	return resp.Err()
}

// Delete removes the workout identified by id and returns the server's confirmation message.
func (s *WorkoutService) Delete(ctx context.Context, sess *models.Session, id string) (string, error) {
	if !sess.Valid() {
		return "", shared.ErrNotAuthenticated
	}

	resp, err := s.api.Delete(ctx, workoutPath(id), sess)
	if err != nil {
		return "", err
	}
	if err := resp.Err(); err != nil {
		return "", err
	}
	return resp.Message(), nil
}

func workoutPath(id string) string {
	return "/workouts/" + url.PathEscape(id)
}
