package gemini

import (
	"context"
	"log"
	"sync"
)

// Conversation is a multi-turn chat session carrying the persona as its
// system instruction. Turns are committed to history only when the reply
// completes.
type Conversation struct {
	client  *Client
	model   string
	persona string
	logger  *log.Logger

	mu      sync.Mutex
	history []content
}

// SendMessage continues the conversation with text and streams the reply
func (c *Conversation) SendMessage(ctx context.Context, text string) FragmentStream {
	c.mu.Lock()
	contents := make([]content, 0, len(c.history)+1)
	contents = append(contents, c.history...)
	c.mu.Unlock()

	userTurn := textContent("user", text)
	contents = append(contents, userTurn)

	req := &generateRequest{
		Contents:          contents,
		SystemInstruction: &content{Parts: []part{{Text: c.persona}}},
	}

	ctx, cancel := context.WithCancel(ctx)
	body, err := c.client.openStream(ctx, c.model, req)
	if err != nil {
		cancel()
		return failedStream(err, c.logger)
	}

	src := newSSESource(body)
	release := func() {
		cancel()
		body.Close()
	}
	onDone := func(reply string) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.history = append(c.history, userTurn, textContent("model", reply))
	}
	return newFragmentStream(src.next, release, onDone, c.logger)
}

// Turns returns the number of committed user and model messages
func (c *Conversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.history)
}

// Reset forgets all committed turns
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.history = nil
}

var _ FragmentStream = (*fragmentStream)(nil)
