package storage

import (
	"sync"

	"github.com/techgini/verifybot/internal/models"
)

// MemoryStore is a Store with no persistence, used for tests and for
// running the bot without a data file.
type MemoryStore struct {
	mu    sync.RWMutex
	limit int
	users map[int64]*models.UserRecord
}

func NewMemoryStore(historyLimit int) *MemoryStore {
	return &MemoryStore{
		limit: historyLimit,
		users: make(map[int64]*models.UserRecord),
	}
}

func (s *MemoryStore) History(userID int64) ([]models.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	history := make([]models.Turn, len(rec.History))
	copy(history, rec.History)
	return history, nil
}

func (s *MemoryStore) AppendTurns(userID int64, userTurn, modelTurn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(userID)
	rec.History = append(rec.History, userTurn, modelTurn)
	if len(rec.History) > s.limit {
		rec.History = rec.History[len(rec.History)-s.limit:]
	}
	return nil
}

func (s *MemoryStore) SetLastComplaint(userID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(userID).LastComplaint = text
	return nil
}

func (s *MemoryStore) LastComplaint(userID int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.users[userID]
	if !ok || rec.LastComplaint == "" {
		return "", false, nil
	}
	return rec.LastComplaint, true, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) record(userID int64) *models.UserRecord {
	rec, ok := s.users[userID]
	if !ok {
		rec = &models.UserRecord{}
		s.users[userID] = rec
	}
	return rec
}
