package history

import (
	"zenith/internal/models"
)

// StorageKey is the record under which the history list is persisted
const StorageKey = "zenith.sessionHistory"

// DefaultMaxEntries bounds the history list
const DefaultMaxEntries = 10

// Entry is a persisted past session
type Entry = models.HistoryEntry
