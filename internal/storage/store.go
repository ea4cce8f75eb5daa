// Package storage persists budget snapshots, the monthly-report marker and
// the SMS ingest archive. Two backends exist: SQLite for real deployments
// and an in-memory store for tests and ephemeral runs.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MaxSnapshotBytes caps the serialized snapshot size. Oversized payloads
// are refused rather than written partially.
const MaxSnapshotBytes = 2 * 1024 * 1024

var (
	ErrNoSnapshot       = errors.New("no snapshot stored")
	ErrSnapshotTooLarge = errors.New("snapshot exceeds size limit")
	ErrNoReportMarker   = errors.New("no report marker stored")
)

// MessageStatus records what the ingest pipeline did with an SMS.
type MessageStatus string

const (
	MessageFiltered MessageStatus = "filtered" // pre-filter said not a transaction
	MessageRejected MessageStatus = "rejected" // parser found no usable amount
	MessageApplied  MessageStatus = "applied"  // candidate applied to the budget
)

// ArchivedMessage is one processed SMS with its ingest outcome.
type ArchivedMessage struct {
	ID            string
	Sender        string
	Body          string
	Status        MessageStatus
	TransactionID string // empty unless Status is MessageApplied
	ReceivedAt    time.Time
	ProcessedAt   time.Time
}

// Store is the persistence boundary the services depend on.
type Store interface {
	SaveSnapshot(ctx context.Context, data []byte) error
	LoadSnapshot(ctx context.Context) ([]byte, error)

	SaveReportMarker(ctx context.Context, month string) error
	LoadReportMarker(ctx context.Context) (string, error)

	ArchiveMessage(ctx context.Context, msg ArchivedMessage) error
	ListMessages(ctx context.Context, limit int) ([]ArchivedMessage, error)

	Close() error
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu           sync.Mutex
	snapshot     []byte
	reportMonth  string
	messages     []ArchivedMessage
	messageIndex map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{messageIndex: make(map[string]int)}
}

func (s *MemoryStore) SaveSnapshot(_ context.Context, data []byte) error {
	if len(data) > MaxSnapshotBytes {
		return ErrSnapshotTooLarge
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshot = append([]byte(nil), data...)
	return nil
}

func (s *MemoryStore) LoadSnapshot(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snapshot == nil {
		return nil, ErrNoSnapshot
	}
	return append([]byte(nil), s.snapshot...), nil
}

func (s *MemoryStore) SaveReportMarker(_ context.Context, month string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reportMonth = month
	return nil
}

func (s *MemoryStore) LoadReportMarker(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reportMonth == "" {
		return "", ErrNoReportMarker
	}
	return s.reportMonth, nil
}

func (s *MemoryStore) ArchiveMessage(_ context.Context, msg ArchivedMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.messageIndex[msg.ID]; ok {
		s.messages[i] = msg
		return nil
	}
	s.messageIndex[msg.ID] = len(s.messages)
	s.messages = append(s.messages, msg)
	return nil
}

func (s *MemoryStore) ListMessages(_ context.Context, limit int) ([]ArchivedMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Newest first.
	out := make([]ArchivedMessage, 0, len(s.messages))
	for i := len(s.messages) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		out = append(out, s.messages[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
