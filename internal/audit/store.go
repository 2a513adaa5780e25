package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"regatta/internal/log"
)

// Entry is one recorded destructive operation.
type Entry struct {
	ID           int64
	GUID         string
	Environment  string
	Operation    string
	Subjects     []string
	Outcome      string
	SuccessCount int
	FailureCount int
	CreatedAt    time.Time
}

// Store records and lists audit entries.
type Store struct {
	db  *DB
	now func() time.Time
}

// NewStore creates a store over the given database.
func NewStore(db *DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Record implements the coordinator's Recorder interface. Failures are
// logged, never propagated - auditing must not block the operation itself.
func (s *Store) Record(env, operation string, subjects []string, outcome string, successCount, failureCount int) {
	_, err := s.db.conn.Exec(
		`INSERT INTO operations (guid, environment, operation, subjects, outcome, success_count, failure_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		uuid.NewString(), env, operation, strings.Join(subjects, ","), outcome,
		successCount, failureCount, s.now().Unix(),
	)
	if err != nil {
		log.ErrorErr(log.CatAudit, "Failed to record operation", err, "operation", operation, "env", env)
		return
	}
	log.Debug(log.CatAudit, "Operation recorded", "operation", operation, "env", env, "outcome", outcome)
}

// List returns entries newest first, optionally filtered by environment.
// limit <= 0 returns everything.
func (s *Store) List(env string, limit int) ([]Entry, error) {
	query := `SELECT id, guid, environment, operation, subjects, outcome, success_count, failure_count, created_at
		FROM operations`
	args := []any{}
	if env != "" {
		query += ` WHERE environment = ?`
		args = append(args, env)
	}
	query += ` ORDER BY created_at DESC, id DESC`
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var subjects string
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.GUID, &e.Environment, &e.Operation, &subjects,
			&e.Outcome, &e.SuccessCount, &e.FailureCount, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		if subjects != "" {
			e.Subjects = strings.Split(subjects, ",")
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
