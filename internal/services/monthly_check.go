package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"vstack/internal/budget"
	"vstack/internal/core"
	applog "vstack/internal/log"
	"vstack/internal/report"
	"vstack/internal/storage"
)

// MonthlyCheckService watches for the month boundary and, when the report
// for the state's month has not been sent yet, emails it and resets the
// monthly figures. The sent marker is persisted so a restart does not
// resend or skip a report.
type MonthlyCheckService struct {
	budgets  *BudgetService
	store    storage.Store
	sender   report.Sender
	to       string
	interval time.Duration
	now      func() time.Time
}

func NewMonthlyCheckService(budgets *BudgetService, store storage.Store, sender report.Sender, to string, interval time.Duration) *MonthlyCheckService {
	return &MonthlyCheckService{
		budgets:  budgets,
		store:    store,
		sender:   sender,
		to:       to,
		interval: interval,
		now:      time.Now,
	}
}

// IsEndOfMonth reports whether t falls on the last day of its month.
func IsEndOfMonth(t time.Time) bool {
	return t.AddDate(0, 0, 1).Day() == 1
}

// shouldGenerate decides whether the report for stateMonth is due:
// either today is the last day of that month, or the calendar has moved
// past it without a report being sent.
func (s *MonthlyCheckService) shouldGenerate(ctx context.Context, stateMonth string, now time.Time) bool {
	lastReport, err := s.store.LoadReportMarker(ctx)
	if err != nil && !errors.Is(err, storage.ErrNoReportMarker) {
		slog.ErrorContext(ctx, "Failed to load report marker", "error", err)
		return false
	}

	if lastReport == stateMonth {
		return false
	}

	currentMonth := core.MonthOf(now)
	if IsEndOfMonth(now) && stateMonth == currentMonth {
		return true
	}
	// The month rolled over while the service was not running.
	if stateMonth != currentMonth {
		return true
	}
	return false
}

// CheckAndProcess runs one check cycle. It returns true when a report was
// generated and the monthly reset applied.
func (s *MonthlyCheckService) CheckAndProcess(ctx context.Context) (bool, error) {
	now := s.now()
	state := s.budgets.State()

	if !s.shouldGenerate(ctx, state.CurrentMonth, now) {
		return false, nil
	}

	if err := s.process(ctx, state, now); err != nil {
		return false, err
	}
	return true, nil
}

func (s *MonthlyCheckService) process(ctx context.Context, state core.BudgetState, now time.Time) error {
	r := report.Build(state, now)

	body, err := report.RenderEmail(r)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, s.to, report.Subject(r), body); err != nil {
		return fmt.Errorf("send monthly report: %w", err)
	}

	if err := s.store.SaveReportMarker(ctx, state.CurrentMonth); err != nil {
		return fmt.Errorf("mark report sent: %w", err)
	}

	s.budgets.Dispatch(ctx, budget.ResetMonthlyBudget{Now: now})

	slog.InfoContext(ctx, "Monthly report sent and budget reset",
		applog.FieldMonth, state.CurrentMonth,
		"total_spent", r.TotalSpent.String(),
		"total_income", r.TotalIncome.String())
	return nil
}

// SendManually emails the report for the current state without resetting
// anything and without touching the sent marker.
func (s *MonthlyCheckService) SendManually(ctx context.Context) error {
	state := s.budgets.State()
	r := report.Build(state, s.now())

	body, err := report.RenderEmail(r)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, s.to, report.Subject(r), body); err != nil {
		return fmt.Errorf("send monthly report: %w", err)
	}
	return nil
}

// Run checks periodically until ctx is cancelled. One cycle runs
// immediately on start.
func (s *MonthlyCheckService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if processed, err := s.CheckAndProcess(ctx); err != nil {
			slog.ErrorContext(ctx, "Monthly check failed", "error", err)
		} else if processed {
			slog.InfoContext(ctx, "Monthly check processed a report")
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
