package chat

import (
	"sync"

	"zenith/internal/models"
)

// Greeting opens every transcript
const Greeting = "Hello! How can I help you on your mindfulness journey today?"

// Transcript is the ordered list of chat messages. Reads return snapshots,
// so fragments may be appended while other goroutines read.
type Transcript struct {
	mu       sync.RWMutex
	messages []models.ChatMessage
}

// NewTranscript creates a transcript holding only the greeting
func NewTranscript() *Transcript {
	t := &Transcript{}
	t.Reset()
	return t
}

// Messages returns a copy of all messages
func (t *Transcript) Messages() []models.ChatMessage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.ChatMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

// Len returns the number of messages
func (t *Transcript) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.messages)
}

// Last returns the most recent message
func (t *Transcript) Last() (models.ChatMessage, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.messages) == 0 {
		return models.ChatMessage{}, false
	}
	return t.messages[len(t.messages)-1], true
}

// Reset drops everything but the greeting
func (t *Transcript) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = []models.ChatMessage{{Role: models.RoleModel, Content: Greeting}}
}

// beginTurn appends the user message and the empty model placeholder
func (t *Transcript) beginTurn(text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages,
		models.ChatMessage{Role: models.RoleUser, Content: text},
		models.ChatMessage{Role: models.RoleModel},
	)
}

// appendFragment concatenates frag onto the trailing model message
func (t *Transcript) appendFragment(frag string) models.ChatMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	last := &t.messages[len(t.messages)-1]
	last.Content += frag
	return *last
}
