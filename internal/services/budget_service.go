// Package services orchestrates the budget reducer, persistence, SMS
// ingest and the monthly report across the storage and AMQP boundaries.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"vstack/internal/budget"
	"vstack/internal/core"
	"vstack/internal/storage"
)

// BudgetService owns the budget state. It is the single writer: every
// mutation goes through Dispatch under one mutex, and reads hand out deep
// copies so callers can never alias live state.
type BudgetService struct {
	store    storage.Store
	debounce time.Duration

	mu        sync.Mutex
	state     core.BudgetState
	saveTimer *time.Timer
	dirty     bool
}

// NewBudgetService loads the persisted snapshot and starts from it. A
// missing snapshot starts fresh; a corrupt one is logged and discarded
// rather than blocking startup.
func NewBudgetService(ctx context.Context, store storage.Store, debounce time.Duration) (*BudgetService, error) {
	s := &BudgetService{
		store:    store,
		debounce: debounce,
		state:    budget.InitialState(),
	}

	data, err := store.LoadSnapshot(ctx)
	switch {
	case errors.Is(err, storage.ErrNoSnapshot):
		slog.InfoContext(ctx, "No snapshot found, starting with initial state")
	case err != nil:
		return nil, fmt.Errorf("load snapshot: %w", err)
	default:
		snap, derr := budget.Decode(data)
		if derr != nil || !snap.Valid() {
			slog.ErrorContext(ctx, "Discarding corrupt snapshot", "error", derr)
			break
		}
		s.state = budget.Apply(s.state, budget.LoadData{Snapshot: snap})
		slog.InfoContext(ctx, "Loaded budget snapshot",
			"month", s.state.CurrentMonth,
			"categories", len(s.state.Categories))
	}

	return s, nil
}

// State returns a deep copy of the current budget state.
func (s *BudgetService) State() core.BudgetState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyLocked()
}

// Dispatch applies one action and schedules a debounced snapshot save.
// It returns the state after the transition.
func (s *BudgetService) Dispatch(ctx context.Context, action budget.Action) core.BudgetState {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = budget.Apply(s.state, action)
	s.dirty = true
	s.scheduleSaveLocked(ctx)
	return s.copyLocked()
}

// Flush writes any pending snapshot immediately.
func (s *BudgetService) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
		s.saveTimer = nil
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	state := s.copyLocked()
	s.dirty = false
	s.mu.Unlock()

	return s.save(ctx, state)
}

// Close flushes pending state. The store itself is closed by the caller
// that opened it.
func (s *BudgetService) Close(ctx context.Context) error {
	return s.Flush(ctx)
}

func (s *BudgetService) copyLocked() core.BudgetState {
	return budget.Take(s.state).State()
}

func (s *BudgetService) scheduleSaveLocked(ctx context.Context) {
	if s.debounce <= 0 {
		state := s.copyLocked()
		s.dirty = false
		go func() {
			if err := s.save(context.WithoutCancel(ctx), state); err != nil {
				slog.ErrorContext(ctx, "Failed to save snapshot", "error", err)
			}
		}()
		return
	}

	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		if !s.dirty {
			s.mu.Unlock()
			return
		}
		state := s.copyLocked()
		s.dirty = false
		s.mu.Unlock()

		if err := s.save(context.Background(), state); err != nil {
			slog.Error("Failed to save snapshot", "error", err)
		}
	})
}

func (s *BudgetService) save(ctx context.Context, state core.BudgetState) error {
	data, err := budget.Encode(state)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := s.store.SaveSnapshot(ctx, data); err != nil {
		// An oversized snapshot is logged and dropped so the app keeps
		// running on its in-memory state.
		if errors.Is(err, storage.ErrSnapshotTooLarge) {
			slog.ErrorContext(ctx, "Snapshot too large, keeping in-memory state only",
				"bytes", len(data))
			return nil
		}
		return fmt.Errorf("save snapshot: %w", err)
	}

	slog.DebugContext(ctx, "Saved budget snapshot", "bytes", len(data), "month", state.CurrentMonth)
	return nil
}
