// Package worker publishes project workbooks to the online spreadsheet in
// response to change notifications.
package worker

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"saa/internal/amqp"
	"saa/internal/core"
	"saa/internal/export"
	applog "saa/internal/log"
	"saa/internal/sheets"
	"saa/internal/storage"
)

// DefaultConcurrency bounds parallel sheet uploads per project.
const DefaultConcurrency = 4

// PublishWorker mirrors project workbooks into a spreadsheet.
type PublishWorker struct {
	projects    storage.ProjectStore
	publisher   sheets.Publisher
	concurrency int
	now         func() time.Time

	mu        sync.Mutex
	published map[string]int64
}

func NewPublishWorker(projects storage.ProjectStore, publisher sheets.Publisher, concurrency int) *PublishWorker {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &PublishWorker{
		projects:    projects,
		publisher:   publisher,
		concurrency: concurrency,
		now:         time.Now,
		published:   map[string]int64{},
	}
}

// HandleControlChanged processes a single change notification from AMQP.
// Notifications older than the last published version are skipped and a
// project deleted in the meantime is not an error.
func (w *PublishWorker) HandleControlChanged(ctx context.Context, msg *amqp.ControlChangedMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"project_id", msg.ProjectID,
		"control_id", msg.ControlID,
		"version", msg.Version)

	if w.isStale(msg.ProjectID, msg.Version) {
		slog.InfoContext(ctx, "Skipping stale change message",
			"project_id", msg.ProjectID,
			"version", msg.Version)
		return nil
	}

	p, err := w.projects.GetProject(ctx, msg.ProjectID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Project no longer exists, nothing to publish",
			"project_id", msg.ProjectID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get project from storage: %w", err)
	}

	if err := w.PublishProject(ctx, p); err != nil {
		return fmt.Errorf("publish project: %w", err)
	}
	return nil
}

// PublishProject uploads every sheet of the project workbook.
func (w *PublishWorker) PublishProject(ctx context.Context, p core.Project) error {
	start := time.Now()
	grids := export.PrefixSheets(export.ProjectWorkbook(p, w.now()), SheetPrefix(p))
	if len(grids) == 0 {
		slog.InfoContext(ctx, "Project has no controls, nothing to publish", "project_id", p.ID)
		w.markPublished(p.ID, p.Version)
		return nil
	}

	names := make([]string, len(grids))
	for i, g := range grids {
		names[i] = g.Name
	}
	if err := w.publisher.EnsureSheets(ctx, names); err != nil {
		return fmt.Errorf("ensure sheets: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, grid := range grids {
		g.Go(func() error {
			if err := w.publisher.PublishSheet(gctx, grid); err != nil {
				return fmt.Errorf("sheet %s: %w", grid.Name, err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	w.markPublished(p.ID, p.Version)
	logger(ctx).LogProjectPublished(ctx, p.ID, p.Version, len(grids), time.Since(start))
	return nil
}

// SyncAll publishes every stored project that changed since its last
// publish. It is the backup path for lost notifications.
func (w *PublishWorker) SyncAll(ctx context.Context) error {
	projects, err := w.projects.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("list projects: %w", err)
	}

	var published, failed int
	for _, p := range projects {
		if w.isStale(p.ID, p.Version) {
			continue
		}
		if err := w.PublishProject(ctx, p); err != nil {
			logger(ctx).LogError(ctx, "Failed to publish project", err, applog.OpPublish,
				applog.NewFields().WithProject(p.ID, p.Version))
			failed++
			continue
		}
		published++
	}

	slog.InfoContext(ctx, "Full sync completed",
		"total", len(projects),
		"published", published,
		"errors", failed)
	return nil
}

// Run calls SyncAll every interval until ctx is done.
func (w *PublishWorker) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.SyncAll(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic sync failed", "error", err)
			}
		}
	}
}

func logger(ctx context.Context) *applog.StructuredLogger {
	return applog.NewStructuredLogger(applog.FromContext(ctx).WithComponent(applog.ComponentWorker))
}

// sheetTitleRunes is how much of the project title a sheet name carries.
const sheetTitleRunes = 6

// SheetPrefix is the per-project prefix of sheet names in a shared
// spreadsheet: a short hash of the project ID, which keeps projects with
// equal titles apart, and the start of the title. It is at most 14 runes,
// leaving the rest of the sheet name to the control.
func SheetPrefix(p core.Project) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(p.ID))
	tag := fmt.Sprintf("%06x", h.Sum32()&0xffffff)

	title := []rune(strings.TrimSpace(export.SanitizeSheetName(p.Title)))
	if len(title) > sheetTitleRunes {
		title = title[:sheetTitleRunes]
	}
	if t := strings.TrimSpace(string(title)); t != "" {
		return tag + " " + t + " "
	}
	return tag + " "
}

func (w *PublishWorker) isStale(projectID string, version int64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	last, ok := w.published[projectID]
	return ok && version <= last
}

func (w *PublishWorker) markPublished(projectID string, version int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if version > w.published[projectID] {
		w.published[projectID] = version
	}
}
