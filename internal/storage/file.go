package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/techgini/verifybot/internal/models"
	"go.uber.org/zap"
)

// FileStore keeps all user records in memory and rewrites a single JSON
// document on every mutation. Keys in the persisted document are
// decimal user-id strings. A mutex serializes every access; the write
// goes through a temp file and rename so readers never see a torn file.
type FileStore struct {
	mu     sync.Mutex
	path   string
	limit  int
	users  map[string]*models.UserRecord
	logger *zap.Logger
}

// NewFileStore loads the persisted document if present. An absent or
// malformed file yields an empty store, never an error.
func NewFileStore(path string, historyLimit int, logger *zap.Logger) *FileStore {
	s := &FileStore{
		path:   path,
		limit:  historyLimit,
		users:  make(map[string]*models.UserRecord),
		logger: logger,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read user data file, starting empty",
				zap.Error(err),
				zap.String("path", path))
		}
		return s
	}
	if err := json.Unmarshal(data, &s.users); err != nil {
		logger.Warn("user data file is malformed, starting empty",
			zap.Error(err),
			zap.String("path", path))
		s.users = make(map[string]*models.UserRecord)
	}
	return s
}

func (s *FileStore) History(userID int64) ([]models.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[key(userID)]
	if !ok {
		return nil, nil
	}
	history := make([]models.Turn, len(rec.History))
	copy(history, rec.History)
	return history, nil
}

func (s *FileStore) AppendTurns(userID int64, userTurn, modelTurn models.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := s.record(userID)
	rec.History = append(rec.History, userTurn, modelTurn)
	if len(rec.History) > s.limit {
		rec.History = rec.History[len(rec.History)-s.limit:]
	}
	return s.persistLocked()
}

func (s *FileStore) SetLastComplaint(userID int64, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.record(userID).LastComplaint = text
	return s.persistLocked()
}

func (s *FileStore) LastComplaint(userID int64) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.users[key(userID)]
	if !ok || rec.LastComplaint == "" {
		return "", false, nil
	}
	return rec.LastComplaint, true, nil
}

func (s *FileStore) Close() error {
	return nil
}

// record returns the user's record, creating it lazily. Caller holds
// the lock.
func (s *FileStore) record(userID int64) *models.UserRecord {
	k := key(userID)
	rec, ok := s.users[k]
	if !ok {
		rec = &models.UserRecord{}
		s.users[k] = rec
	}
	return rec
}

// persistLocked rewrites the whole document. Caller holds the lock.
func (s *FileStore) persistLocked() error {
	data, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to encode user data: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".user_data-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write user data: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to replace user data file: %w", err)
	}
	return nil
}

func key(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
