package tasks

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/shared"
)

func TestBulkImport(t *testing.T) {
	ctx := context.Background()
	opts := BulkImportOpts{NumWorkers: 3, RateLimit: 1000}

	forms := []models.WorkoutForm{
		{Date: "2024-01-01", Type: "run", Duration: "30"},
		{Date: "2024-01-02", Type: "", Duration: "20"},
		{Date: "2024-01-03", Type: "bike", Duration: "60", Distance: "20.5"},
		{Date: "2024-01-04", Type: "swim", Duration: "x"},
		{Date: "2024-01-05", Type: "walk", Duration: "15"},
	}

	t.Run("Imports Valid Rows", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		prog := make(chan ProgressUpdate, 32)

		result, err := f.engine.BulkImport(ctx, prog, forms, opts)
		if err != nil {
			t.Fatalf("BulkImport() error = %v", err)
		}
		if result.Total != 5 || result.Imported != 3 || result.Invalid != 2 || result.Failed != 0 {
			t.Errorf("unexpected result %+v", result)
		}
		for i, r := range result.Results {
			if r.Row != i+1 {
				t.Errorf("results not sorted: position %d has row %d", i, r.Row)
			}
		}
		if !errors.Is(result.Results[1].Error, shared.ErrMissingField) {
			t.Errorf("expected row 2 to be invalid, got %v", result.Results[1].Error)
		}
		if n := len(f.backend.Workouts()); n != 3 {
			t.Errorf("expected 3 stored workouts, got %d", n)
		}
		if f.requestCount(http.MethodGet) != 1 {
			t.Error("expected exactly one refresh")
		}
		if got := f.recorder.Alerts(); len(got) != 1 || got[0] != "Imported 3 of 5 workouts." {
			t.Errorf("unexpected alerts %v", got)
		}

		close(prog)
		phases := map[Phase]int{}
		for u := range prog {
			phases[u.Phase]++
		}
		if phases[ValidateImport] != 1 || phases[ImportWorkouts] != 3 || phases[RefreshWorkouts] != 1 {
			t.Errorf("unexpected progress phases %v", phases)
		}
	})

	t.Run("Server Failures Are Counted", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		f.backend.Fail("POST /workouts", http.StatusInternalServerError, `{"message":"nope"}`)

		result, err := f.engine.BulkImport(ctx, nil, forms, opts)
		if err != nil {
			t.Fatalf("BulkImport() error = %v", err)
		}
		if result.Failed != 3 || result.Imported != 0 {
			t.Errorf("unexpected result %+v", result)
		}
		if f.requestCount(http.MethodGet) != 0 {
			t.Error("expected no refresh when nothing was imported")
		}
	})

	t.Run("Dry Run Sends Nothing", func(t *testing.T) {
		f := newFixture(t)
		f.login()

		result, err := f.engine.BulkImport(ctx, nil, forms, BulkImportOpts{DryRun: true})
		if err != nil {
			t.Fatalf("BulkImport() error = %v", err)
		}
		if result.Invalid != 2 || len(result.Results) != 5 {
			t.Errorf("unexpected result %+v", result)
		}
		if n := len(f.backend.Requests()); n != 0 {
			t.Errorf("expected no requests, got %d", n)
		}
	})

	t.Run("Requires Session", func(t *testing.T) {
		f := newFixture(t)

		if _, err := f.engine.BulkImport(ctx, nil, forms, opts); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("Nothing To Import", func(t *testing.T) {
		f := newFixture(t)

		result, err := f.engine.BulkImport(ctx, nil, nil, opts)
		if err != nil || result.Total != 0 {
			t.Errorf("BulkImport(nil) = %+v, %v", result, err)
		}
		if got := f.recorder.Alerts(); got[0] != MsgNothingToImport {
			t.Errorf("unexpected alerts %v", got)
		}
	})

	t.Run("Cancelled Context", func(t *testing.T) {
		f := newFixture(t)
		f.login()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		result, err := f.engine.BulkImport(cctx, nil, forms, opts)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if result.Imported != 0 {
			t.Errorf("expected nothing imported, got %d", result.Imported)
		}
	})
}
