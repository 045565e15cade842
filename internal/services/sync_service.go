package services

import (
	"context"
	"fmt"
	"time"

	"bookeosync/internal/bookeo"
	"bookeosync/internal/config"
	"bookeosync/internal/domain/models"
	"bookeosync/internal/utils"

	"github.com/google/uuid"
)

// BookingFetcher streams provider bookings for a window.
type BookingFetcher interface {
	FetchRange(ctx context.Context, start, end time.Time, opt bookeo.FetchOptions, fn func(bookeo.Booking) error) error
}

// BookingWriter persists destination rows idempotently.
type BookingWriter interface {
	EnsureSchema(ctx context.Context) error
	UpsertBatch(ctx context.Context, rows []models.BookingRow) (int, error)
}

// StateTracker is the durable checkpoint store.
type StateTracker interface {
	Get(ctx context.Context, key string) (time.Time, bool, error)
	Set(ctx context.Context, key string, ts time.Time) error
}

// BookingExporter writes fetched bookings to a spreadsheet file.
type BookingExporter interface {
	Write(bookings []bookeo.Booking, path string) error
}

// SyncService drives one sync run: fetch, map, write, checkpoint. Runs are
// short-lived batch jobs; overlapping runs stay safe because every write is
// an idempotent upsert and the checkpoint only moves forward.
type SyncService struct {
	Client   BookingFetcher
	Bookings BookingWriter
	State    StateTracker
	Exporter BookingExporter
	Env      config.Env
	Now      func() time.Time
}

// RunReport summarizes one completed (or attempted) run.
type RunReport struct {
	RunID       string
	Mode        string
	WindowStart time.Time
	WindowEnd   time.Time
	Fetched     int
	Skipped     int
	Written     int
	DryRun      bool
}

func (s SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return utils.NowUTC()
}

func (s SyncService) historicalStart() (time.Time, error) {
	start, err := utils.ParseRFC3339(s.Env.HistoricalStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid BOOKEO_HISTORICAL_START %q: %w", s.Env.HistoricalStart, err)
	}
	if start.IsZero() {
		return time.Time{}, fmt.Errorf("BOOKEO_HISTORICAL_START must be set")
	}
	return start.UTC(), nil
}

// RunFull syncs the window [historical start, today + future horizon).
// months > 0 limits the window to that many months from the historical start.
func (s SyncService) RunFull(ctx context.Context, months int, dryRun bool) (RunReport, error) {
	start, err := s.historicalStart()
	if err != nil {
		return RunReport{}, err
	}
	end := s.now().AddDate(0, 0, s.Env.FutureDays)
	if months > 0 {
		end = start.AddDate(0, months, 0)
	}
	return s.run(ctx, "full", start, end, false, dryRun)
}

// RunIncremental syncs [last checkpoint - lookback margin, now). Without a
// prior checkpoint it falls back to the full historical window.
func (s SyncService) RunIncremental(ctx context.Context, dryRun bool) (RunReport, error) {
	last, found, err := s.State.Get(ctx, models.DefaultSyncKey)
	if err != nil {
		return RunReport{}, err
	}
	if !found {
		utils.LogEvent("", "sync", "bootstrap", "no prior checkpoint, running full historical sync")
		return s.RunFull(ctx, 0, dryRun)
	}
	start := last.Add(-s.Env.Lookback())
	return s.run(ctx, "incremental", start, s.now(), true, dryRun)
}

// RunExcel fetches the full window and writes a spreadsheet instead of the
// database. No checkpoint is recorded.
func (s SyncService) RunExcel(ctx context.Context, months int, outputFile string) (RunReport, error) {
	if s.Exporter == nil {
		return RunReport{}, fmt.Errorf("no exporter configured")
	}
	start, err := s.historicalStart()
	if err != nil {
		return RunReport{}, err
	}
	end := s.now().AddDate(0, 0, s.Env.FutureDays)
	if months > 0 {
		end = start.AddDate(0, months, 0)
	}

	runID := uuid.NewString()
	rep := RunReport{RunID: runID, Mode: "excel", WindowStart: start, WindowEnd: end}

	var bookings []bookeo.Booking
	opt := bookeo.FetchOptions{IncludeCanceled: s.Env.IncludeCanceled, ExpandCustomer: true}
	err = s.Client.FetchRange(ctx, start, end, opt, func(b bookeo.Booking) error {
		rep.Fetched++
		bookings = append(bookings, b)
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("fetch window %s to %s: %w", utils.FormatBookeo(start), utils.FormatBookeo(end), err)
	}

	if err := s.Exporter.Write(bookings, outputFile); err != nil {
		return rep, err
	}
	rep.Written = len(bookings)
	utils.LogEvent(runID, "sync", "excel_done", fmt.Sprintf("fetched=%d output=%s", rep.Fetched, outputFile))
	return rep, nil
}

// run is the shared pipeline: Fetching -> Mapping -> Writing -> Checkpointing.
// Any failure aborts the run with the offending window named and leaves the
// checkpoint untouched, so the next run retries the same (or wider) window.
func (s SyncService) run(ctx context.Context, mode string, start, end time.Time, byLastChange, dryRun bool) (RunReport, error) {
	runID := uuid.NewString()
	rep := RunReport{RunID: runID, Mode: mode, WindowStart: start, WindowEnd: end, DryRun: dryRun}
	if !start.Before(end) {
		utils.LogEvent(runID, "sync", "noop", "empty window")
		return rep, nil
	}

	utils.LogEvent(runID, "sync", "fetching", fmt.Sprintf("mode=%s window=%s..%s",
		mode, utils.FormatBookeo(start), utils.FormatBookeo(end)))

	opt := bookeo.FetchOptions{
		IncludeCanceled: s.Env.IncludeCanceled,
		ExpandCustomer:  true,
		ByLastChange:    byLastChange,
	}

	rows := make([]models.BookingRow, 0, 256)
	index := make(map[string]int)
	err := s.Client.FetchRange(ctx, start, end, opt, func(b bookeo.Booking) error {
		rep.Fetched++
		row := MapBooking(b)
		if row.BookingNumber == "" {
			rep.Skipped++
			return nil
		}
		// Last occurrence wins when the provider reports a booking twice.
		if i, ok := index[row.BookingNumber]; ok {
			rows[i] = row
			return nil
		}
		index[row.BookingNumber] = len(rows)
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return rep, fmt.Errorf("fetch window %s to %s: %w",
			utils.FormatBookeo(start), utils.FormatBookeo(end), err)
	}

	if dryRun {
		utils.LogEvent(runID, "sync", "dry_run", fmt.Sprintf("fetched=%d rows=%d skipped=%d",
			rep.Fetched, len(rows), rep.Skipped))
		return rep, nil
	}

	utils.LogEvent(runID, "sync", "writing", fmt.Sprintf("rows=%d", len(rows)))
	written, err := s.Bookings.UpsertBatch(ctx, rows)
	if err != nil {
		return rep, fmt.Errorf("write window %s to %s: %w",
			utils.FormatBookeo(start), utils.FormatBookeo(end), err)
	}
	rep.Written = written

	// Checkpoint only after the batch is durably committed. The upper bound
	// is clamped to the run's wall clock; a full sync window reaches into the
	// future and later changes there must still be picked up.
	if s.State != nil {
		checkpoint := end
		if now := s.now(); checkpoint.After(now) {
			checkpoint = now
		}
		utils.LogEvent(runID, "sync", "checkpointing", utils.FormatBookeo(checkpoint))
		if err := s.State.Set(ctx, models.DefaultSyncKey, checkpoint); err != nil {
			return rep, err
		}
	}

	utils.LogEvent(runID, "sync", "done", fmt.Sprintf("fetched=%d written=%d skipped=%d",
		rep.Fetched, rep.Written, rep.Skipped))
	return rep, nil
}
