package gemini

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// SDKConversation is a chat session backed by the official Go SDK.
// It behaves like Conversation and is selected with chat_backend=sdk.
type SDKConversation struct {
	client  *genai.Client
	session *genai.ChatSession
	logger  *log.Logger

	mu sync.Mutex
}

// NewSDKConversation opens an SDK client and starts a chat with the persona
func NewSDKConversation(ctx context.Context, opts Options) (*SDKConversation, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard, "", 0)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(opts.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := client.GenerativeModel(opts.ChatModel)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(Persona)}}

	return &SDKConversation{
		client:  client,
		session: model.StartChat(),
		logger:  opts.Logger,
	}, nil
}

// SendMessage continues the chat and streams the reply. The SDK commits the
// turn to the session history once the iterator is drained.
func (c *SDKConversation) SendMessage(ctx context.Context, text string) FragmentStream {
	ctx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	iter := c.session.SendMessageStream(ctx, genai.Text(text))
	c.mu.Unlock()

	return newFragmentStream(sdkNext(iter), cancel, nil, c.logger)
}

// responseIterator is the part of genai.GenerateContentResponseIterator a stream reads
type responseIterator interface {
	Next() (*genai.GenerateContentResponse, error)
}

// sdkNext adapts an SDK iterator to the fragment source of a stream
func sdkNext(iter responseIterator) func() (string, error) {
	return func() (string, error) {
		resp, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			return "", io.EOF
		}
		if err != nil {
			return "", err
		}
		return sdkText(resp), nil
	}
}

// Turns returns the number of committed user and model messages
func (c *SDKConversation) Turns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.session.History)
}

// Reset forgets all committed turns
func (c *SDKConversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session.History = nil
}

// Close releases the SDK client
func (c *SDKConversation) Close() error {
	return c.client.Close()
}

func sdkText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}
