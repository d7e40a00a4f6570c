package storage

import (
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/techgini/verifybot/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// PostgresStore keeps user records in Postgres instead of the JSON
// file. Turn parts are stored as a JSON-encoded string array per row.
type PostgresStore struct {
	db    *sql.DB
	limit int
}

func NewPostgresStore(config DatabaseConfig, historyLimit int) (*PostgresStore, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	store := &PostgresStore{db: db, limit: historyLimit}
	if err := store.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}
	return store, nil
}

func (s *PostgresStore) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}
	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}
	return nil
}

func (s *PostgresStore) History(userID int64) ([]models.Turn, error) {
	query := `
		SELECT role, parts FROM (
			SELECT id, role, parts
			FROM turns
			WHERE user_id = $1
			ORDER BY id DESC
			LIMIT $2
		) recent
		ORDER BY id ASC`

	rows, err := s.db.Query(query, userID, s.limit)
	if err != nil {
		return nil, fmt.Errorf("error querying history: %v", err)
	}
	defer rows.Close()

	var history []models.Turn
	for rows.Next() {
		var turn models.Turn
		var parts string
		if err := rows.Scan(&turn.Role, &parts); err != nil {
			return nil, fmt.Errorf("error scanning turn: %v", err)
		}
		if err := json.Unmarshal([]byte(parts), &turn.Parts); err != nil {
			return nil, fmt.Errorf("error decoding turn parts: %v", err)
		}
		history = append(history, turn)
	}
	return history, rows.Err()
}

func (s *PostgresStore) AppendTurns(userID int64, userTurn, modelTurn models.Turn) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`
		INSERT INTO users (id) VALUES ($1)
		ON CONFLICT (id) DO NOTHING`, userID); err != nil {
		return fmt.Errorf("error upserting user: %v", err)
	}

	for _, turn := range []models.Turn{userTurn, modelTurn} {
		parts, err := json.Marshal(turn.Parts)
		if err != nil {
			return fmt.Errorf("error encoding turn parts: %v", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO turns (user_id, role, parts)
			VALUES ($1, $2, $3)`, userID, turn.Role, string(parts)); err != nil {
			return fmt.Errorf("error inserting turn: %v", err)
		}
	}

	if _, err := tx.Exec(`
		DELETE FROM turns
		WHERE user_id = $1 AND id NOT IN (
			SELECT id FROM turns
			WHERE user_id = $1
			ORDER BY id DESC
			LIMIT $2
		)`, userID, s.limit); err != nil {
		return fmt.Errorf("error trimming history: %v", err)
	}

	return tx.Commit()
}

func (s *PostgresStore) SetLastComplaint(userID int64, text string) error {
	_, err := s.db.Exec(`
		INSERT INTO users (id, last_complaint)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET last_complaint = EXCLUDED.last_complaint`,
		userID, text)
	if err != nil {
		return fmt.Errorf("error saving complaint: %v", err)
	}
	return nil
}

func (s *PostgresStore) LastComplaint(userID int64) (string, bool, error) {
	var complaint sql.NullString
	err := s.db.QueryRow(`
		SELECT last_complaint FROM users WHERE id = $1`, userID).Scan(&complaint)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("error querying complaint: %v", err)
	}
	if !complaint.Valid || complaint.String == "" {
		return "", false, nil
	}
	return complaint.String, true, nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
