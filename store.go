package pacer

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/hyperengineering/pacer/internal/store/migrations"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

const schemaVersion = "1"

// Store manages the local SQLite database holding learning records, the
// pending event buffer, and the learner profile. The profile and buffer
// are persisted as one atomic unit: a profile update and its buffer
// clear commit in a single transaction.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	closed    bool
	path      string
	learnerID string
}

// NewStore opens or creates a learner's local store.
func NewStore(path, learnerID string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for better concurrent access
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	s := &Store{db: db, path: path, learnerID: learnerID}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("store: set goose dialect: %w", err)
	}
	if err := goose.Up(s.db, "."); err != nil {
		return fmt.Errorf("store: run migrations: %w", err)
	}

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', ?)
	`, schemaVersion)
	return err
}

// UpsertRecord inserts or replaces the learning record for a card.
// The caller persists plans through this method after applying them.
func (s *Store) UpsertRecord(r *LearningRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}
	if r.CardID == "" {
		return ErrEmptyCardID
	}

	if r.EaseFactor < EaseFactorFloor {
		r.EaseFactor = EaseFactorFloor
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = r.CreatedAt
	}
	if !r.MasteryLevel.IsValid() {
		r.MasteryLevel = MasteryNew
	}

	_, err := s.db.Exec(`
		INSERT INTO records (card_id, ease_factor, interval, last_reviewed_at, next_review_at,
		                     review_count, correct_count, wrong_count, mastery_level, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(card_id) DO UPDATE SET
			ease_factor = excluded.ease_factor,
			interval = excluded.interval,
			last_reviewed_at = excluded.last_reviewed_at,
			next_review_at = excluded.next_review_at,
			review_count = excluded.review_count,
			correct_count = excluded.correct_count,
			wrong_count = excluded.wrong_count,
			mastery_level = excluded.mastery_level,
			updated_at = excluded.updated_at
	`,
		r.CardID,
		r.EaseFactor,
		r.Interval,
		nullTime(r.LastReviewedAt),
		nullTime(r.NextReviewAt),
		r.ReviewCount,
		r.CorrectCount,
		r.WrongCount,
		string(r.MasteryLevel),
		r.CreatedAt.Format(time.RFC3339),
		r.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("store: upsert record: %w", err)
	}
	return nil
}

// GetRecord retrieves the learning record for a card.
// Returns ErrRecordNotFound if the card has never been studied.
func (s *Store) GetRecord(cardID string) (*LearningRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	row := s.db.QueryRow(`
		SELECT card_id, ease_factor, interval, last_reviewed_at, next_review_at,
		       review_count, correct_count, wrong_count, mastery_level, created_at, updated_at
		FROM records WHERE card_id = ?
	`, cardID)

	return scanRecord(row)
}

// Records returns all learning records keyed by card ID. The returned
// map is a snapshot; mutations do not write through.
func (s *Store) Records() (map[string]*LearningRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT card_id, ease_factor, interval, last_reviewed_at, next_review_at,
		       review_count, correct_count, wrong_count, mastery_level, created_at, updated_at
		FROM records
	`)
	if err != nil {
		return nil, fmt.Errorf("store: query records: %w", err)
	}
	defer rows.Close()

	result := make(map[string]*LearningRecord)
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result[r.CardID] = r
	}

	return result, rows.Err()
}

// DeleteRecord removes a card's learning record. Explicit removal is
// the only way records are ever deleted.
func (s *Store) DeleteRecord(cardID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	res, err := s.db.Exec(`DELETE FROM records WHERE card_id = ?`, cardID)
	if err != nil {
		return fmt.Errorf("store: delete record: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// AppendEvent persists an event into the pending buffer immediately so
// no event is lost across restarts. The buffer is a bounded sliding
// window: when it exceeds maxBuffered, the oldest events are dropped in
// the same transaction.
func (s *Store) AppendEvent(e *LearningEvent, maxBuffered int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	_, err = tx.Exec(`
		INSERT INTO pending_events (id, card_id, timestamp, action, result, confidence, time_taken_ms, session_len, hour_of_day)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID,
		e.CardID,
		e.Timestamp.Format(time.RFC3339Nano),
		string(e.Action),
		string(e.Result),
		e.Confidence,
		e.TimeTakenMs,
		e.SessionLen,
		e.HourOfDay,
	)
	if err != nil {
		return fmt.Errorf("store: insert event: %w", err)
	}

	if maxBuffered > 0 {
		_, err = tx.Exec(`
			DELETE FROM pending_events WHERE id NOT IN (
				SELECT id FROM pending_events ORDER BY timestamp DESC, id DESC LIMIT ?
			)
		`, maxBuffered)
		if err != nil {
			return fmt.Errorf("store: trim event buffer: %w", err)
		}
	}

	return tx.Commit()
}

// PendingEvents returns the buffered events, oldest first.
func (s *Store) PendingEvents() ([]LearningEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(`
		SELECT id, card_id, timestamp, action, result, confidence, time_taken_ms, session_len, hour_of_day
		FROM pending_events ORDER BY timestamp ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("store: query events: %w", err)
	}
	defer rows.Close()

	var events []LearningEvent
	for rows.Next() {
		var (
			e         LearningEvent
			timestamp string
			action    string
			result    string
		)
		if err := rows.Scan(&e.ID, &e.CardID, &timestamp, &action, &result,
			&e.Confidence, &e.TimeTakenMs, &e.SessionLen, &e.HourOfDay); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, timestamp)
		e.Action = EventAction(action)
		e.Result = EventResult(result)
		events = append(events, e)
	}

	return events, rows.Err()
}

// PendingCount returns the number of buffered events.
func (s *Store) PendingCount() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM pending_events`).Scan(&count)
	return count, err
}

// EventsForCard returns the buffered events for one card, oldest first.
// The predictor uses this as the card's recent history.
func (s *Store) EventsForCard(cardID string) ([]LearningEvent, error) {
	all, err := s.PendingEvents()
	if err != nil {
		return nil, err
	}
	var events []LearningEvent
	for _, e := range all {
		if e.CardID == cardID {
			events = append(events, e)
		}
	}
	return events, nil
}

// LoadProfile loads the learner profile, creating one with neutral
// defaults on first use.
func (s *Store) LoadProfile() (*LearnerProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var payload string
	err := s.db.QueryRow(`SELECT payload FROM profile WHERE learner_id = ?`, s.learnerID).Scan(&payload)
	if err == sql.ErrNoRows {
		profile := NewProfile(s.learnerID)
		if err := s.writeProfile(s.db, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: load profile: %w", err)
	}

	var profile LearnerProfile
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		return nil, fmt.Errorf("store: decode profile: %w", err)
	}
	return &profile, nil
}

// SaveProfileAndClearEvents persists a new profile snapshot and removes
// the consumed events in one transaction. Events that arrived after the
// update snapshot was taken survive the clear, so a concurrent append
// is never lost.
func (s *Store) SaveProfileAndClearEvents(profile *LearnerProfile, consumedIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	if err := s.writeProfile(tx, profile); err != nil {
		return err
	}

	if len(consumedIDs) > 0 {
		placeholders := make([]string, len(consumedIDs))
		args := make([]any, len(consumedIDs))
		for i, id := range consumedIDs {
			placeholders[i] = "?"
			args[i] = id
		}
		query := fmt.Sprintf(`DELETE FROM pending_events WHERE id IN (%s)`, strings.Join(placeholders, ","))
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("store: clear events: %w", err)
		}
	}

	return tx.Commit()
}

// execer abstracts Exec shared by *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *Store) writeProfile(db execer, profile *LearnerProfile) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("store: encode profile: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO profile (learner_id, version, payload, last_updated)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(learner_id) DO UPDATE SET
			version = excluded.version,
			payload = excluded.payload,
			last_updated = excluded.last_updated
	`, profile.LearnerID, profile.Version, string(payload), profile.LastUpdated.Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store: write profile: %w", err)
	}
	return nil
}

// Stats returns store statistics.
func (s *Store) Stats() (*StoreStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	var recordCount int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM records`).Scan(&recordCount); err != nil {
		return nil, err
	}

	var pending int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM pending_events`).Scan(&pending); err != nil {
		return nil, err
	}

	var version int
	var lastUpdatedStr sql.NullString
	s.db.QueryRow(`SELECT version, last_updated FROM profile WHERE learner_id = ?`, s.learnerID).
		Scan(&version, &lastUpdatedStr)

	var lastUpdate time.Time
	if lastUpdatedStr.Valid {
		lastUpdate, _ = time.Parse(time.RFC3339, lastUpdatedStr.String)
	}

	return &StoreStats{
		LearnerID:      s.learnerID,
		RecordCount:    recordCount,
		PendingEvents:  pending,
		ProfileVersion: version,
		LastUpdate:     lastUpdate,
		SchemaVersion:  schemaVersion,
	}, nil
}

// Close closes the store.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*LearningRecord, error) {
	var (
		r              LearningRecord
		lastReviewedAt sql.NullString
		nextReviewAt   sql.NullString
		mastery        string
		createdAt      string
		updatedAt      string
	)

	err := sc.Scan(
		&r.CardID,
		&r.EaseFactor,
		&r.Interval,
		&lastReviewedAt,
		&nextReviewAt,
		&r.ReviewCount,
		&r.CorrectCount,
		&r.WrongCount,
		&mastery,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	r.MasteryLevel = MasteryLevel(mastery)
	if lastReviewedAt.Valid {
		r.LastReviewedAt, _ = time.Parse(time.RFC3339, lastReviewedAt.String)
	}
	if nextReviewAt.Valid {
		r.NextReviewAt, _ = time.Parse(time.RFC3339, nextReviewAt.String)
	}
	r.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	r.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &r, nil
}

func nullTime(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
