package history

import (
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"zenith/internal/kvstore"
	"zenith/internal/models"
)

// Manager handles session history persistence
type Manager struct {
	store      kvstore.Store
	key        string
	mu         sync.RWMutex
	entries    []Entry
	maxEntries int
	logger     *log.Logger
	now        func() time.Time
}

// NewManager creates a new history manager backed by store
func NewManager(store kvstore.Store, maxEntries int, logger *log.Logger) *Manager {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{
		store:      store,
		key:        StorageKey,
		entries:    []Entry{},
		maxEntries: maxEntries,
		logger:     logger,
		now:        time.Now,
	}
}

// Restore loads history from the store. Malformed data is discarded
// and yields an empty history instead of an error.
func (m *Manager) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	raw, ok, err := m.store.Get(m.key)
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}
	if !ok || strings.TrimSpace(raw) == "" {
		m.entries = []Entry{}
		return nil
	}

	var entries []Entry
	if err := sonic.UnmarshalString(raw, &entries); err != nil {
		m.logger.Printf("discarding corrupt history record: %v", err)
		m.entries = []Entry{}
		if err := m.store.Remove(m.key); err != nil {
			m.logger.Printf("failed to remove corrupt history record: %v", err)
		}
		return nil
	}

	m.entries = m.normalize(entries)
	return nil
}

// normalize re-applies the store invariants to data read from outside
// (must be called with lock held)
func (m *Manager) normalize(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		key := models.NormalizePrompt(e.Prompt)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
		if len(out) == m.maxEntries {
			break
		}
	}
	return out
}

// Append inserts entry newest-first, evicting any older entry with the same
// normalized prompt and truncating to the configured bound
func (m *Manager) Append(entry Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry.Prompt = strings.TrimSpace(entry.Prompt)
	if entry.Prompt == "" {
		return &models.ValidationError{Kind: models.KindEmptyInput, Field: "prompt"}
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = m.now()
	}

	key := models.NormalizePrompt(entry.Prompt)
	next := make([]Entry, 0, len(m.entries)+1)
	next = append(next, entry)
	for _, e := range m.entries {
		if models.NormalizePrompt(e.Prompt) == key {
			continue
		}
		next = append(next, e)
	}
	if len(next) > m.maxEntries {
		next = next[:m.maxEntries]
	}

	prev := m.entries
	m.entries = next
	if err := m.saveUnlocked(); err != nil {
		m.entries = prev
		return err
	}
	return nil
}

// LoadAll returns a copy of all entries, newest first
func (m *Manager) LoadAll() []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Entry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Get looks up an entry by id
func (m *Manager) Get(id string) (Entry, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, e := range m.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Len returns the number of stored entries
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Clear removes every entry and the persisted record
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.Remove(m.key); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	m.entries = []Entry{}
	return nil
}

// Persist writes the current list to the store
func (m *Manager) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveUnlocked()
}

// saveUnlocked saves without acquiring the lock (must be called with lock held)
func (m *Manager) saveUnlocked() error {
	data, err := sonic.MarshalString(m.entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := m.store.Set(m.key, data); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}
