package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// DefaultSaveInterval is how often PersistentStore writes sessions in the background.
const DefaultSaveInterval = time.Minute

// SessionPersistence handles saving and loading session data.
type SessionPersistence interface {
	SaveSessions(sessions map[string]*State) error
	LoadSessions() (map[string]*State, error)
}

// FilePersistence implements SessionPersistence using a JSON file.
type FilePersistence struct {
	directory string
}

// NewFilePersistence creates a new file-based persistence handler.
func NewFilePersistence(directory string) *FilePersistence {
	return &FilePersistence{
		directory: directory,
	}
}

// SaveSessions saves all sessions to a JSON file.
func (f *FilePersistence) SaveSessions(sessions map[string]*State) error {
	err := os.MkdirAll(f.directory, 0750)
	if err != nil {
		return fmt.Errorf("failed to create persistence directory: %w", err)
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal sessions: %w", err)
	}

	// Write to a temp file and rename so readers never see a partial file
	filename := filepath.Join(f.directory, "sessions.json")
	tempFile := filename + ".tmp"

	err = os.WriteFile(tempFile, data, 0600)
	if err != nil {
		return fmt.Errorf("failed to write sessions file: %w", err)
	}

	err = os.Rename(tempFile, filename)
	if err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to save sessions: %w", err)
	}

	return nil
}

// LoadSessions loads sessions from the JSON file.
func (f *FilePersistence) LoadSessions() (map[string]*State, error) {
	filename := filepath.Join(f.directory, "sessions.json")

	data, err := os.ReadFile(filename) // #nosec G304 - filename is constructed from configured directory
	if os.IsNotExist(err) {
		return make(map[string]*State), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions file: %w", err)
	}

	var sessions map[string]*State
	err = json.Unmarshal(data, &sessions)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal sessions: %w", err)
	}
	if sessions == nil {
		sessions = make(map[string]*State)
	}

	return sessions, nil
}

// NoopPersistence implements SessionPersistence but does nothing.
// This allows persistence to be optional.
type NoopPersistence struct{}

// NewNoopPersistence creates a new no-op persistence handler.
func NewNoopPersistence() *NoopPersistence {
	return &NoopPersistence{}
}

// SaveSessions does nothing for noop persistence.
func (n *NoopPersistence) SaveSessions(_ map[string]*State) error {
	return nil
}

// LoadSessions returns an empty map for noop persistence.
func (n *NoopPersistence) LoadSessions() (map[string]*State, error) {
	return make(map[string]*State), nil
}

// PersistentStore extends Store with persistence capabilities.
type PersistentStore struct {
	*Store

	persistence SessionPersistence
	logger      *slog.Logger
}

// NewPersistentStore creates a store backed by persistence.
func NewPersistentStore(window time.Duration, persistence SessionPersistence) *PersistentStore {
	if persistence == nil {
		persistence = NewNoopPersistence()
	}

	return &PersistentStore{
		Store:       NewStore(window),
		persistence: persistence,
		logger:      slog.Default().With(slog.String("component", "conversation.persistence")),
	}
}

// Save persists all current sessions.
func (p *PersistentStore) Save() error {
	if err := p.persistence.SaveSessions(p.Snapshot()); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	return nil
}

// Restore loads sessions from persistence, dropping any that already expired.
func (p *PersistentStore) Restore() (int, error) {
	persisted, err := p.persistence.LoadSessions()
	if err != nil {
		return 0, fmt.Errorf("failed to load sessions: %w", err)
	}
	return p.Load(persisted), nil
}

// RunPeriodicSave saves sessions every interval until ctx is done, then saves
// once more so a graceful shutdown keeps the latest state.
func (p *PersistentStore) RunPeriodicSave(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultSaveInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := p.Save(); err != nil {
				p.logger.ErrorContext(ctx, "Periodic session save failed", slog.Any("error", err))
			}
		case <-ctx.Done():
			if err := p.Save(); err != nil {
				return err
			}
			p.logger.InfoContext(ctx, "Sessions saved on shutdown")
			return nil
		}
	}
}
