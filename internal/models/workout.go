package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/beatmiles/internal/shared"
)

// Workout is a workout record owned by the API.
//
// ID is empty until the server has persisted the record and is never sent in request bodies.
type Workout struct {
	ID           string   `json:"_id,omitempty"`
	Date         string   `json:"date"`
	Type         string   `json:"type"`
	Duration     int      `json:"duration"`
	Distance     *float64 `json:"distance"`
	AvgSpeed     *float64 `json:"avgSpeed"`
	AvgHeartRate *int     `json:"avgHeartRate"`
	Calories     *int     `json:"calories"`
}

// Fields returns a copy of w without the server identifier, suitable as a create or update body.
func (w Workout) Fields() Workout {
	w.ID = ""
	return w
}

// Validate checks the fields the API requires on create and update.
func (w Workout) Validate() error {
	var missing []string
	if strings.TrimSpace(w.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(w.Type) == "" {
		missing = append(missing, "type")
	}
	if w.Duration == 0 {
		missing = append(missing, "duration")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", shared.ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// FindWorkout performs a linear search on ID.
func FindWorkout(workouts []Workout, id string) (Workout, bool) {
	for _, w := range workouts {
		if w.ID == id {
			return w, true
		}
	}
	return Workout{}, false
}

// WorkoutForm holds workout input exactly as typed, before any parsing.
type WorkoutForm struct {
	Date         string
	Type         string
	Duration     string
	Distance     string
	AvgSpeed     string
	AvgHeartRate string
	Calories     string
}

// Workout parses the form into a [Workout].
//
// An unparsable duration becomes 0. Optional fields that are blank, unparsable or zero become nil.
func (f WorkoutForm) Workout() Workout {
	duration, _ := parseInt(f.Duration)
	return Workout{
		Date:         strings.TrimSpace(f.Date),
		Type:         strings.TrimSpace(f.Type),
		Duration:     duration,
		Distance:     optionalFloat(f.Distance),
		AvgSpeed:     optionalFloat(f.AvgSpeed),
		AvgHeartRate: optionalInt(f.AvgHeartRate),
		Calories:     optionalInt(f.Calories),
	}
}

// Validate reports missing date, type or duration.
func (f WorkoutForm) Validate() error {
	return f.Workout().Validate()
}

// IsZero reports whether every field is blank.
func (f WorkoutForm) IsZero() bool {
	return f == WorkoutForm{}
}

// Merge returns f with every non-blank field of other applied on top.
func (f WorkoutForm) Merge(other WorkoutForm) WorkoutForm {
	pick := func(base, override string) string {
		if strings.TrimSpace(override) != "" {
			return override
		}
		return base
	}
	return WorkoutForm{
		Date:         pick(f.Date, other.Date),
		Type:         pick(f.Type, other.Type),
		Duration:     pick(f.Duration, other.Duration),
		Distance:     pick(f.Distance, other.Distance),
		AvgSpeed:     pick(f.AvgSpeed, other.AvgSpeed),
		AvgHeartRate: pick(f.AvgHeartRate, other.AvgHeartRate),
		Calories:     pick(f.Calories, other.Calories),
	}
}

// FormFromWorkout renders a workout back into form fields for editing.
func FormFromWorkout(w Workout) WorkoutForm {
	form := WorkoutForm{
		Date: shared.DateOnly(w.Date),
		Type: w.Type,
	}
	if w.Duration != 0 {
		form.Duration = strconv.Itoa(w.Duration)
	}
	if w.Distance != nil && *w.Distance != 0 {
		form.Distance = strconv.FormatFloat(*w.Distance, 'f', -1, 64)
	}
	if w.AvgSpeed != nil && *w.AvgSpeed != 0 {
		form.AvgSpeed = strconv.FormatFloat(*w.AvgSpeed, 'f', -1, 64)
	}
	if w.AvgHeartRate != nil && *w.AvgHeartRate != 0 {
		form.AvgHeartRate = strconv.Itoa(*w.AvgHeartRate)
	}
	if w.Calories != nil && *w.Calories != 0 {
		form.Calories = strconv.Itoa(*w.Calories)
	}
	return form
}

func parseInt(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return n, true
}

func optionalInt(s string) *int {
	n, ok := parseInt(s)
	if !ok || n == 0 {
		return nil
	}
	return &n
}

func optionalFloat(s string) *float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// Credentials are the email and password sent to the auth endpoints.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate requires both fields to be present.
func (c Credentials) Validate() error {
	if c.Email == "" || c.Password == "" {
		return fmt.Errorf("%w: email and password", shared.ErrMissingField)
	}
	return nil
}
