package scans

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/bryanwahyu/automaton-query/internal/application"
	domain "github.com/bryanwahyu/automaton-query/internal/domain/scans"
)

// Service implements the query -> plan -> execute -> persist pipeline.
//
// Run is strictly sequential and Save overwrites shared state, so callers
// must not run two pipelines against the same RecordStore at once.
type Service struct {
	Planner *domain.Planner
	Invoker domain.Invoker
	Store   domain.RecordStore
	Log     domain.LogSink
	Archive domain.Archive // optional
	Clock   application.Clock
	Metrics *Metrics
	Logger  *zerolog.Logger
}

// Run executes every task planned from query and persists the record.
// The record is returned even when persistence fails; the error then
// wraps domain.ErrPersistence.
func (s *Service) Run(ctx context.Context, query string) (*domain.ScanRecord, error) {
	rec := &domain.ScanRecord{
		ID:        domain.RecordID(uuid.New().String()),
		Query:     query,
		Timestamp: s.now().Format(time.RFC3339),
		Results:   []domain.TaskResult{},
	}
	lw := &logWriter{ctx: ctx, sink: s.Log}

	lw.printf("Starting security scan for query: '%s'", query)
	tasks := s.planner().Plan(query)
	if len(tasks) == 0 {
		lw.printf("No valid tasks found in query.")
	}

	// jalankan task satu per satu, gagal satu tidak menghentikan yang lain
	for _, task := range tasks {
		cmd, err := s.Invoker.Command(task)
		switch {
		case errors.Is(err, domain.ErrUnknownTool):
			lw.printf("Unknown tool: %s", task.Tool)
		case err != nil:
			lw.printf("Rejected %s: %v", task.Label, err)
		default:
			lw.printf("Executing: %s", cmd)
		}
		res := s.Invoker.Invoke(ctx, task, func(ev domain.AttemptEvent) {
			logAttempt(lw, task, ev)
		})
		logTaskEnd(lw, task, res)
		rec.Results = append(rec.Results, res)
		s.logger().Info().
			Int("task_id", task.ID).
			Str("tool", string(task.Tool)).
			Bool("succeeded", res.Succeeded).
			Int("attempts", len(res.Attempts)).
			Msg("task finished")
	}

	outcome := rec.Outcome()
	s.Metrics.ObserveRun(outcome)

	if err := s.Store.Save(ctx, rec); err != nil {
		err = asPersistence(err)
		s.logger().Error().Err(err).Str("record_id", string(rec.ID)).Msg("save scan record")
		lw.printf("Failed to save scan results: %v", err)
		return rec, errors.Join(err, lw.err)
	}
	lw.printf("Scan results saved to %s", s.Store.Location())

	if s.Archive != nil {
		url, err := s.Archive.Upload(ctx, rec)
		if err != nil {
			err = asPersistence(err)
			lw.printf("Failed to archive scan results: %v", err)
			return rec, errors.Join(err, lw.err)
		}
		lw.printf("Scan results archived to %s", url)
	}

	lw.printf("All scans completed.")
	s.logger().Info().
		Str("record_id", string(rec.ID)).
		Str("outcome", string(outcome)).
		Int("tasks", len(rec.Results)).
		Msg("scan finished")
	return rec, lw.err
}

// Latest ambil record terakhir yang tersimpan
func (s *Service) Latest(ctx context.Context) (*domain.ScanRecord, error) {
	return s.Store.Latest(ctx)
}

// ReadLog returns the whole log text.
func (s *Service) ReadLog(ctx context.Context) (string, error) {
	return s.Log.Read(ctx)
}

// ResetLog truncates the log, as the dashboard does before each run.
func (s *Service) ResetLog(ctx context.Context) error {
	if err := s.Log.Reset(ctx); err != nil {
		return asPersistence(err)
	}
	return nil
}

// logAttempt runs while the task is still in flight, so each line carries
// the time of its attempt.
func logAttempt(lw *logWriter, task domain.Task, ev domain.AttemptEvent) {
	if ev.Attempt.Fault != "" {
		lw.printf("Error executing %s: %s", task.Label, ev.Attempt.Fault)
	}
	if ev.Retry {
		lw.printf("Attempt %d: %s failed. Retrying...", ev.Attempt.Number, task.Label)
	}
}

func logTaskEnd(lw *logWriter, task domain.Task, res domain.TaskResult) {
	switch {
	case res.Succeeded:
		lw.printf("%s completed successfully.", task.Label)
	case len(res.Attempts) > 0:
		lw.printf("%s failed after %d attempt(s).", task.Label, len(res.Attempts))
	default:
		lw.printf("%s skipped: %s", task.Label, res.Output)
	}
}

// logWriter keeps the first append failure; later lines are still tried.
type logWriter struct {
	ctx  context.Context
	sink domain.LogSink
	err  error
}

func (w *logWriter) printf(format string, args ...any) {
	if w.sink == nil {
		return
	}
	if err := w.sink.Append(w.ctx, fmt.Sprintf(format, args...)); err != nil && w.err == nil {
		w.err = asPersistence(err)
	}
}

func asPersistence(err error) error {
	if err == nil || errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return application.SystemClock{}.Now()
	}
	return s.Clock.Now()
}

func (s *Service) planner() *domain.Planner {
	if s.Planner == nil {
		return domain.NewPlanner()
	}
	return s.Planner
}

func (s *Service) logger() *zerolog.Logger {
	if s.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return s.Logger
}
