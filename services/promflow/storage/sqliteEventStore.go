package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/iulianpascalau/prom-flow/services/promflow/common"
	_ "github.com/mattn/go-sqlite3"
	logger "github.com/multiversx/mx-chain-logger-go"
)

const (
	inMemoryDatabase   = ":memory:"
	defaultEventsLimit = 100
	minCleanupInterval = 60
)

// ErrEventNotFound is returned when no event matches the requested ID
var ErrEventNotFound = errors.New("event not found")

var log = logger.GetOrCreate("storage")

// sqliteEventStore keeps the fired trigger events
type sqliteEventStore struct {
	db               *sql.DB
	retentionSeconds int
	cancelFunc       context.CancelFunc
	wg               sync.WaitGroup
}

// NewSQLiteEventStore creates the database, schema, and starts the retention cleaner if retention is positive
func NewSQLiteEventStore(dbPath string, retentionSeconds int) (*sqliteEventStore, error) {
	err := prepareDirectories(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create the database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == inMemoryDatabase {
		// an in-memory database only lives inside a single connection
		db.SetMaxOpenConns(1)
	}

	err = createSchema(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &sqliteEventStore{
		db:               db,
		retentionSeconds: retentionSeconds,
		cancelFunc:       cancel,
	}

	if retentionSeconds > 0 {
		s.startRetentionCleaner(ctx)
	}

	return s, nil
}

func prepareDirectories(dbPath string) error {
	if dbPath == inMemoryDatabase {
		return nil
	}

	return os.MkdirAll(filepath.Dir(dbPath), os.ModePerm)
}

func createSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS trigger_events (
		id          TEXT    NOT NULL PRIMARY KEY,
		trigger_id  TEXT    NOT NULL,
		fired_at    INTEGER NOT NULL,
		result_type TEXT    NOT NULL,
		total       INTEGER NOT NULL,
		payload     TEXT    NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_trigger_events_trigger_id ON trigger_events(trigger_id);
	CREATE INDEX IF NOT EXISTS idx_trigger_events_fired_at ON trigger_events(fired_at);
	`

	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// Emit persists the fired event
func (s *sqliteEventStore) Emit(ctx context.Context, event common.TriggerEvent) error {
	payload, err := json.Marshal(event.Output)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO trigger_events (id, trigger_id, fired_at, result_type, total, payload)
		VALUES (?, ?, ?, ?, ?, ?)
	`, event.ID, event.TriggerID, event.FiredAt, event.Output.ResultType, event.Output.Total, string(payload))
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// GetEvents returns the most recent events, newest first. An empty trigger ID returns events of all triggers
func (s *sqliteEventStore) GetEvents(ctx context.Context, triggerID string, limit int) ([]common.TriggerEvent, error) {
	if limit <= 0 {
		limit = defaultEventsLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, trigger_id, fired_at, payload
		FROM trigger_events
		WHERE ? = '' OR trigger_id = ?
		ORDER BY fired_at DESC, rowid DESC
		LIMIT ?
	`, triggerID, triggerID, limit)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	events := make([]common.TriggerEvent, 0)
	for rows.Next() {
		event, errScan := scanEvent(rows)
		if errScan != nil {
			return nil, errScan
		}
		events = append(events, *event)
	}

	return events, rows.Err()
}

// GetEvent returns the event with the provided ID
func (s *sqliteEventStore) GetEvent(ctx context.Context, id string) (*common.TriggerEvent, error) {
	row := s.db.QueryRowContext(ctx, "SELECT id, trigger_id, fired_at, payload FROM trigger_events WHERE id = ?", id)

	event, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEventNotFound
	}

	return event, err
}

// DeleteEvent removes the event with the provided ID
func (s *sqliteEventStore) DeleteEvent(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM trigger_events WHERE id = ?", id)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrEventNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*common.TriggerEvent, error) {
	var event common.TriggerEvent
	var payload string

	err := row.Scan(&event.ID, &event.TriggerID, &event.FiredAt, &payload)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal([]byte(payload), &event.Output)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal event payload: %w", err)
	}

	return &event, nil
}

func (s *sqliteEventStore) cleanRetainedEvents(ctx context.Context) error {
	cutoff := time.Now().Unix() - int64(s.retentionSeconds)
	_, err := s.db.ExecContext(ctx, "DELETE FROM trigger_events WHERE fired_at < ?", cutoff)
	return err
}

func (s *sqliteEventStore) startRetentionCleaner(ctx context.Context) {
	s.wg.Add(1)

	// max(retentionSeconds/10, 60)
	intervalSec := s.retentionSeconds / 10
	if intervalSec < minCleanupInterval {
		intervalSec = minCleanupInterval
	}

	ticker := time.NewTicker(time.Duration(intervalSec) * time.Second)

	go func() {
		defer s.wg.Done()
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				log.Debug("running events retention cleanup")

				err := s.cleanRetainedEvents(ctx)
				if err != nil {
					log.Warn("failed to cleanup retained events", "error", err)
				}
			}
		}
	}()
}

// Close closes the database and stops background routines
func (s *sqliteEventStore) Close() error {
	s.cancelFunc()
	s.wg.Wait()
	return s.db.Close()
}

// IsInterfaceNil returns true if the value under the interface is nil
func (s *sqliteEventStore) IsInterfaceNil() bool {
	return s == nil
}
