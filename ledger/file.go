package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/m3rciful/rewardbot/core/logger"
)

// FileStore keeps the whole ledger in one JSON document on disk.
// Every mutation rewrites the document; a mutex serializes load-modify-save.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// OpenFile prepares a file-backed store, creating an empty document when none exists.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger: empty file path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ledger: create dir %s: %w", dir, err)
		}
	}
	s := &FileStore{path: path}
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	logger.Ledger.Info("",
		slog.String("event", "ledger.open"),
		slog.String("driver", "json"),
		slog.String("path", path),
		slog.Int("accounts", len(doc.Users)),
	)
	return s, nil
}

// Path returns the location of the JSON document.
func (s *FileStore) Path() string { return s.path }

// Load reads the document, writing an empty one first if the file does not exist.
// Load does not take the store lock; use it for inspection, not read-modify-write.
func (s *FileStore) Load() (Document, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		doc := NewDocument()
		if err := s.Save(doc); err != nil {
			return Document{}, err
		}
		return doc, nil
	}
	if err != nil {
		return Document{}, fmt.Errorf("ledger: read %s: %w", s.path, err)
	}
	doc := NewDocument()
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc); err != nil {
			return Document{}, fmt.Errorf("ledger: decode %s: %w", s.path, err)
		}
	}
	doc.normalize()
	return doc, nil
}

// Save replaces the document on disk. The data goes to a temporary file in the
// same directory first and is renamed into place, so readers never see a partial write.
func (s *FileStore) Save(doc Document) error {
	doc.normalize()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("ledger: encode: %w", err)
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("ledger: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("ledger: replace %s: %w", s.path, err)
	}
	return nil
}

// Get returns the stored account.
func (s *FileStore) Get(ctx context.Context, id string) (Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load()
	if err != nil {
		return Account{}, false, err
	}
	acc, ok := doc.Users[id]
	return acc, ok, nil
}

// Ensure returns the account, creating it on first interaction.
func (s *FileStore) Ensure(ctx context.Context, id string) (Account, bool, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load()
	if err != nil {
		return Account{}, false, err
	}
	if acc, ok := doc.Users[id]; ok {
		return acc, false, nil
	}
	acc := NewAccount()
	doc.Users[id] = acc
	if err := s.save(ctx, doc, "ensure"); err != nil {
		return Account{}, false, err
	}
	return acc, true, nil
}

// Update runs fn on a copy of the account under the store lock and saves the document once.
func (s *FileStore) Update(ctx context.Context, id string, fn func(*Account) error) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load()
	if err != nil {
		return Account{}, err
	}
	before, ok := doc.Users[id]
	if !ok {
		before = NewAccount()
	}
	after := before.Clone()
	if err := fn(&after); err != nil {
		return Account{}, err
	}
	if err := checkAppendOnly(before.History, after.History); err != nil {
		return Account{}, err
	}
	after.normalize()
	doc.Users[id] = after
	if err := s.save(ctx, doc, "update"); err != nil {
		return Account{}, err
	}
	return after, nil
}

// Stats counts accounts and outstanding points.
func (s *FileStore) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := s.Load()
	if err != nil {
		return Stats{}, err
	}
	st := Stats{Accounts: len(doc.Users)}
	for _, acc := range doc.Users {
		st.Points += acc.Points
	}
	return st, nil
}

// Close is a no-op; the document is flushed on every mutation.
func (s *FileStore) Close() error { return nil }

func (s *FileStore) save(ctx context.Context, doc Document, op string) error {
	start := time.Now()
	err := s.Save(doc)
	attrs := []slog.Attr{
		slog.String("status", logger.Status(err)),
		slog.String("op", op),
		slog.Int("accounts", len(doc.Users)),
		slog.Duration("duration", logger.RoundMS(time.Since(start))),
	}
	if err != nil {
		logger.LogEvent(ctx, logger.Ledger, slog.LevelError, "ledger.save", append(attrs, slog.String("err", err.Error()))...)
		return err
	}
	logger.LogEvent(ctx, logger.Ledger, slog.LevelDebug, "ledger.save", attrs...)
	return nil
}
