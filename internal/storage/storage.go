package storage

import "github.com/techgini/verifybot/internal/models"

// Store persists per-user state: the rolling chat history and the last
// red-flagged complaint. Implementations must be safe for concurrent
// use; handlers run in their own goroutines.
type Store interface {
	// History returns the user's chat turns in chronological order,
	// already capped to the configured limit. Empty for unknown users.
	History(userID int64) ([]models.Turn, error)

	// AppendTurns records one completed exchange and trims the history
	// to the configured limit before persisting.
	AppendTurns(userID int64, userTurn, modelTurn models.Turn) error

	// SetLastComplaint overwrites the user's stored complaint text.
	SetLastComplaint(userID int64, text string) error

	// LastComplaint returns the stored complaint text, if any.
	LastComplaint(userID int64) (string, bool, error)

	Close() error
}
