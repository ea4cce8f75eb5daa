package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"vstack/internal/amqp"
	"vstack/internal/budget"
	"vstack/internal/core"
	applog "vstack/internal/log"
	"vstack/internal/sms"
	"vstack/internal/storage"
)

// IngestService folds gateway SMS messages into the budget: pre-filter,
// parse, apply, archive. Every message is archived with its outcome so
// the pipeline can be audited later.
type IngestService struct {
	budgets *BudgetService
	store   storage.Store
}

func NewIngestService(budgets *BudgetService, store storage.Store) *IngestService {
	return &IngestService{budgets: budgets, store: store}
}

// HandleMessage processes one queued SMS. Filtered and unparseable
// messages are archived and acknowledged, never requeued; only archive
// failures propagate so the broker retries.
func (s *IngestService) HandleMessage(msg *amqp.SMSReceivedMessage) error {
	ctx := context.Background()

	archived := storage.ArchivedMessage{
		ID:         msg.ID,
		Sender:     msg.Sender,
		Body:       msg.Body,
		ReceivedAt: msg.ReceivedAt,
	}

	if !sms.IsTransactionSMS(msg.Body, msg.Sender) {
		archived.Status = storage.MessageFiltered
		return s.archive(ctx, archived)
	}

	parsed, ok := sms.Parse(msg.Body, msg.Sender)
	if !ok {
		archived.Status = storage.MessageRejected
		return s.archive(ctx, archived)
	}

	tx := TransactionFromParsed(parsed, msg.ReceivedAt)
	if err := tx.Validate(); err != nil {
		slog.WarnContext(ctx, "Parsed SMS failed validation",
			applog.FieldMessageID, msg.ID,
			applog.FieldError, err)
		archived.Status = storage.MessageRejected
		return s.archive(ctx, archived)
	}

	s.budgets.Dispatch(ctx, budget.AddTransaction{Transaction: tx})

	archived.Status = storage.MessageApplied
	archived.TransactionID = tx.ID
	slog.InfoContext(ctx, "Applied transaction from SMS",
		applog.FieldMessageID, msg.ID,
		applog.FieldTransaction, tx.ID,
		"type", string(tx.Type),
		applog.FieldCategory, tx.Category,
		applog.FieldAmount, tx.Amount.String())

	return s.archive(ctx, archived)
}

// TransactionFromParsed materializes a parser candidate into a transaction.
// A zero receivedAt falls back to the parse time.
func TransactionFromParsed(p sms.ParsedTransaction, receivedAt time.Time) core.Transaction {
	date := receivedAt
	if date.IsZero() {
		date = p.Date
	}

	category := p.Category
	if p.Type == core.Income {
		// Income lives outside the category list.
		category = ""
	}

	return core.Transaction{
		ID:          core.NewTransactionID(date),
		Type:        p.Type,
		Amount:      p.Amount,
		Category:    category,
		Description: p.Description,
		Date:        date,
	}
}

func (s *IngestService) archive(ctx context.Context, msg storage.ArchivedMessage) error {
	msg.ProcessedAt = time.Now()
	if err := s.store.ArchiveMessage(ctx, msg); err != nil {
		return fmt.Errorf("archive message %s: %w", msg.ID, err)
	}
	return nil
}
