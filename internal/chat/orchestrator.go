package chat

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"

	"zenith/internal/gemini"
	"zenith/internal/models"
)

// Session is a conversation that streams replies
type Session interface {
	SendMessage(ctx context.Context, text string) gemini.FragmentStream
	Reset()
}

// Orchestrator feeds one conversation into a transcript. Callers send one
// message at a time.
type Orchestrator struct {
	session    Session
	transcript *Transcript
	logger     *log.Logger

	// OnUpdate, if set, receives the in-progress model message after every fragment
	OnUpdate func(models.ChatMessage)
}

// NewOrchestrator creates an orchestrator over session with a fresh transcript
func NewOrchestrator(session Session, logger *log.Logger) *Orchestrator {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Orchestrator{
		session:    session,
		transcript: NewTranscript(),
		logger:     logger,
	}
}

// Transcript returns the transcript being written
func (o *Orchestrator) Transcript() *Transcript {
	return o.transcript
}

// Send appends text as a user message and streams the reply into the
// transcript. It returns the final reply.
func (o *Orchestrator) Send(ctx context.Context, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &models.ValidationError{Kind: models.KindEmptyInput, Field: "message"}
	}

	o.transcript.beginTurn(text)

	stream := o.session.SendMessage(ctx, text)
	defer stream.Close()

	var reply models.ChatMessage
	for {
		frag, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Streams report failures as an apology; anything else ends the turn as is
			o.logger.Printf("chat stream ended unexpectedly: %v", err)
			break
		}
		reply = o.transcript.appendFragment(frag)
		if o.OnUpdate != nil {
			o.OnUpdate(reply)
		}
	}

	return reply.Content, nil
}

// Reset starts a new conversation
func (o *Orchestrator) Reset() {
	o.session.Reset()
	o.transcript.Reset()
}
