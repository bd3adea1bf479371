package tasks

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/desertthunder/beatmiles/internal/models"
	"golang.org/x/time/rate"
)

// BulkImportOpts contains configuration for bulk workout imports.
type BulkImportOpts struct {
	NumWorkers int     // Concurrent workers (default: 4, max: 10)
	RateLimit  float64 // Requests per second (default: 5)
	DryRun     bool    // Validate rows without sending them
}

// ImportRowResult is the outcome for one imported row.
type ImportRowResult struct {
	Row     int // 1-based position in the input
	Workout models.Workout
	Error   error
}

// BulkImportResult summarizes a bulk import.
type BulkImportResult struct {
	Total    int
	Imported int
	Invalid  int
	Failed   int
	Results  []ImportRowResult // Sorted by Row
}

type importJob struct {
	row     int
	workout models.Workout
}

// BulkImport creates one workout per form with a bounded worker pool and a request rate limit.
//
// Rows that fail validation are reported and never sent. The table is refreshed once at the end,
// followed by a single summary alert.
func (e *Engine) BulkImport(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	forms []models.WorkoutForm,
	opts BulkImportOpts,
) (*BulkImportResult, error) {
	if len(forms) == 0 {
		e.presenter.Alert(MsgNothingToImport)
		return &BulkImportResult{}, nil
	}

	sess, err := e.requireSession(verbAdd)
	if err != nil {
		return nil, err
	}

	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}

	result := &BulkImportResult{Total: len(forms), Results: make([]ImportRowResult, 0, len(forms))}

	var jobs []importJob
	for i, form := range forms {
		w := form.Workout()
		if err := w.Validate(); err != nil {
			result.Invalid++
			result.Results = append(result.Results, ImportRowResult{Row: i + 1, Workout: w, Error: err})
			continue
		}
		jobs = append(jobs, importJob{row: i + 1, workout: w})
	}
	sendProgress(prog, validatingUpdate(len(forms), result.Invalid))

	if opts.DryRun {
		for _, j := range jobs {
			result.Results = append(result.Results, ImportRowResult{Row: j.row, Workout: j.workout})
		}
		sortResults(result)
		return result, nil
	}

	limiter := rate.NewLimiter(rate.Limit(opts.RateLimit), 1)
	queue := make(chan importJob, len(jobs))
	results := make(chan ImportRowResult, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.importWorker(ctx, &wg, sess, queue, results)
	}

	go func() {
		defer close(queue)
		for _, j := range jobs {
			if err := limiter.Wait(ctx); err != nil {
				return
			}
			queue <- j
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)
		if res.Error != nil {
			result.Failed++
			sendProgress(prog, importFailedUpdate(completed, len(jobs), res.Row, res.Error))
			continue
		}
		result.Imported++
		sendProgress(prog, importedUpdate(completed, len(jobs), res.Workout))
	}
	sortResults(result)

	e.logger.Info("bulk import finished", "total", result.Total, "imported", result.Imported,
		"invalid", result.Invalid, "failed", result.Failed)

	if result.Imported > 0 {
		sendProgress(prog, refreshingUpdate())
		e.refresh(ctx)
	}
	e.presenter.Alert(importSummary(result.Imported, result.Total))

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("import interrupted after %d of %d rows: %w", completed, len(jobs), err)
	}
	return result, nil
}

// importWorker creates workouts from the queue until it is closed or ctx is done.
func (e *Engine) importWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	sess *models.Session,
	queue <-chan importJob,
	results chan<- ImportRowResult,
) {
	defer wg.Done()

	for j := range queue {
		select {
		case <-ctx.Done():
			return
		default:
		}

		err := e.workouts.Create(ctx, sess, j.workout)
		if err != nil {
			e.logger.Warn("import row failed", "row", j.row, "error", err)
		}
		results <- ImportRowResult{Row: j.row, Workout: j.workout, Error: err}
	}
}

func sortResults(r *BulkImportResult) {
	sort.Slice(r.Results, func(i, j int) bool { return r.Results[i].Row < r.Results[j].Row })
}
