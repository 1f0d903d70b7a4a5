// Package schedule runs cron triggers inside the worker process. Enabled
// schedules are loaded from the database, registered with a cron runner,
// and refreshed periodically so edits made through the API take effect
// without a restart. Firing a trigger only enqueues an execution of the
// workflow's current version; the worker's poll loop does the rest.
package schedule

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/myuon/flowit-sub001/common/models"
	"github.com/myuon/flowit-sub001/common/repository"
)

// Logger interface for logging
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
}

// ScheduleStore lists the cron triggers to run
type ScheduleStore interface {
	ListEnabled(ctx context.Context) ([]*models.Schedule, error)
}

// WorkflowStore resolves a workflow's current version
type WorkflowStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Workflow, error)
}

// Enqueuer creates pending executions
type Enqueuer interface {
	Enqueue(ctx context.Context, workflowID, versionID uuid.UUID, inputs json.RawMessage) (uuid.UUID, error)
}

type entry struct {
	cronID    cron.EntryID
	cronExpr  string
	updatedAt time.Time
}

// Scheduler keeps the cron runner in sync with the workflow_schedules
// table and enqueues an execution every time a trigger fires.
type Scheduler struct {
	schedules ScheduleStore
	workflows WorkflowStore
	queue     Enqueuer
	logger    Logger

	refreshInterval time.Duration

	cron    *cron.Cron
	mu      sync.Mutex
	entries map[uuid.UUID]entry

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// New creates a scheduler. refreshInterval controls how often the enabled
// schedule set is reloaded from the database.
func New(schedules ScheduleStore, workflows WorkflowStore, queue Enqueuer, refreshInterval time.Duration, logger Logger) *Scheduler {
	return &Scheduler{
		schedules:       schedules,
		workflows:       workflows,
		queue:           queue,
		logger:          logger,
		refreshInterval: refreshInterval,
		cron:            cron.New(),
		entries:         make(map[uuid.UUID]entry),
		stopCh:          make(chan struct{}),
		doneCh:          make(chan struct{}),
	}
}

// Start loads the schedules, starts the cron runner, and begins the
// refresh loop. It returns immediately.
func (s *Scheduler) Start(ctx context.Context) error {
	if err := s.refresh(ctx); err != nil {
		return err
	}

	s.cron.Start()
	go s.refreshLoop(ctx)

	s.logger.Info("Schedule trigger scheduler started",
		"schedules", s.Len(),
		"refresh_interval", s.refreshInterval.String())
	return nil
}

// Stop halts the refresh loop and waits for in-flight trigger callbacks
// to finish.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
		<-s.cron.Stop().Done()
		s.logger.Info("Schedule trigger scheduler stopped")
	})
}

// Len returns the number of registered triggers
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Scheduler) refreshLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.refreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.refresh(ctx); err != nil {
				s.logger.Error("Failed to refresh schedules", "error", err)
			}
		}
	}
}

// refresh diffs the enabled schedule set against the registered cron
// entries: new schedules are added, removed or disabled ones are
// dropped, and changed cron expressions are re-registered.
func (s *Scheduler) refresh(ctx context.Context) error {
	current, err := s.schedules.ListEnabled(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uuid.UUID]bool, len(current))
	for _, sched := range current {
		seen[sched.ID] = true

		existing, ok := s.entries[sched.ID]
		if ok && existing.cronExpr == sched.CronExpr && existing.updatedAt.Equal(sched.UpdatedAt) {
			continue
		}
		if ok {
			s.cron.Remove(existing.cronID)
		}

		cronID, err := s.cron.AddFunc(sched.CronExpr, s.triggerFunc(sched))
		if err != nil {
			s.logger.Error("Skipping schedule with invalid cron expression",
				"schedule_id", sched.ID,
				"cron", sched.CronExpr,
				"error", err)
			delete(s.entries, sched.ID)
			continue
		}

		s.entries[sched.ID] = entry{cronID: cronID, cronExpr: sched.CronExpr, updatedAt: sched.UpdatedAt}
		s.logger.Debug("Registered schedule", "schedule_id", sched.ID, "cron", sched.CronExpr)
	}

	for id, e := range s.entries {
		if !seen[id] {
			s.cron.Remove(e.cronID)
			delete(s.entries, id)
			s.logger.Debug("Removed schedule", "schedule_id", id)
		}
	}

	return nil
}

func (s *Scheduler) triggerFunc(sched *models.Schedule) func() {
	workflowID := sched.WorkflowID
	scheduleID := sched.ID
	inputs := sched.Inputs
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.fire(ctx, scheduleID, workflowID, inputs); err != nil {
			s.logger.Error("Schedule trigger failed",
				"schedule_id", scheduleID,
				"workflow_id", workflowID,
				"error", err)
		}
	}
}

// fire enqueues one execution of the workflow's current version. A
// workflow that was deleted or never published is logged and skipped;
// the stale trigger disappears on the next refresh.
func (s *Scheduler) fire(ctx context.Context, scheduleID, workflowID uuid.UUID, inputs json.RawMessage) error {
	wf, err := s.workflows.GetByID(ctx, workflowID)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("Schedule points at missing workflow",
			"schedule_id", scheduleID,
			"workflow_id", workflowID)
		return nil
	}
	if err != nil {
		return err
	}
	if wf.CurrentVersionID == nil {
		s.logger.Warn("Schedule fired for workflow with no published version",
			"schedule_id", scheduleID,
			"workflow_id", workflowID)
		return nil
	}

	if len(inputs) == 0 {
		inputs = json.RawMessage(`{}`)
	}

	execID, err := s.queue.Enqueue(ctx, workflowID, *wf.CurrentVersionID, inputs)
	if err != nil {
		return err
	}

	s.logger.Info("Schedule trigger enqueued execution",
		"schedule_id", scheduleID,
		"workflow_id", workflowID,
		"execution_id", execID)
	return nil
}
