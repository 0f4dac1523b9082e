package gemini

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/bytedance/sonic"
)

// FragmentStream is a finite, ordered sequence of reply fragments.
// Recv returns io.EOF once the reply is over. A failed reply ends with a
// single ApologyMessage fragment instead of an error.
type FragmentStream interface {
	Recv() (string, error)
	Close() error
}

// fragmentStream adapts a fragment source to FragmentStream
type fragmentStream struct {
	next    func() (string, error)
	release func()
	onDone  func(reply string)
	logger  *log.Logger

	mu       sync.Mutex
	reply    strings.Builder
	finished bool

	closed      atomic.Bool
	releaseOnce sync.Once
}

func newFragmentStream(next func() (string, error), release func(), onDone func(string), logger *log.Logger) *fragmentStream {
	if release == nil {
		release = func() {}
	}
	return &fragmentStream{next: next, release: release, onDone: onDone, logger: logger}
}

// failedStream yields only the apology
func failedStream(err error, logger *log.Logger) *fragmentStream {
	return newFragmentStream(func() (string, error) { return "", err }, nil, nil, logger)
}

// Recv returns the next non-empty fragment
func (s *fragmentStream) Recv() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.closed.Load() {
		return "", io.EOF
	}

	for {
		frag, err := s.next()
		if s.closed.Load() {
			s.finish()
			return "", io.EOF
		}
		if errors.Is(err, io.EOF) {
			s.finish()
			if s.onDone != nil {
				s.onDone(s.reply.String())
			}
			return "", io.EOF
		}
		if err != nil {
			s.logger.Printf("error in chat stream: %v", err)
			s.finish()
			return ApologyMessage, nil
		}
		if frag == "" {
			continue
		}
		s.reply.WriteString(frag)
		return frag, nil
	}
}

// Close abandons the stream. Fragments not yet received are dropped.
func (s *fragmentStream) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	s.releaseOnce.Do(s.release)
	return nil
}

func (s *fragmentStream) finish() {
	s.finished = true
	s.releaseOnce.Do(s.release)
}

// sseSource reads generateResponse chunks from a server-sent events body
type sseSource struct {
	scanner *bufio.Scanner
}

func newSSESource(body io.Reader) *sseSource {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	return &sseSource{scanner: scanner}
}

// next returns the text of the next well-formed chunk
func (s *sseSource) next() (string, error) {
	for s.scanner.Scan() {
		line := bytes.TrimSpace(s.scanner.Bytes())
		if !bytes.HasPrefix(line, []byte("data:")) {
			continue
		}
		data := bytes.TrimSpace(line[len("data:"):])
		if len(data) == 0 || string(data) == "[DONE]" {
			continue
		}

		var chunk generateResponse
		if err := sonic.Unmarshal(data, &chunk); err != nil {
			// Skip malformed lines
			continue
		}
		if err := chunk.blocked(); err != nil {
			return "", err
		}
		if len(chunk.Candidates) > 0 && chunk.Candidates[0].FinishReason == "SAFETY" {
			return "", fmt.Errorf("reply blocked by safety filters")
		}
		return chunk.text(), nil
	}

	if err := s.scanner.Err(); err != nil {
		return "", fmt.Errorf("scanner error: %w", err)
	}
	return "", io.EOF
}

// openStream posts body to streamGenerateContent and returns the live SSE body
func (c *Client) openStream(ctx context.Context, model string, body *generateRequest) (io.ReadCloser, error) {
	resp, err := c.streaming.R().
		SetContext(ctx).
		SetPathParam("model", model).
		SetQueryParam("alt", "sse").
		SetBody(body).
		SetDoNotParseResponse(true).
		Post("/v1beta/models/{model}:streamGenerateContent")
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	raw := resp.RawBody()
	if resp.IsError() {
		defer raw.Close()
		var apiErr apiError
		data, _ := io.ReadAll(io.LimitReader(raw, 64*1024))
		_ = sonic.Unmarshal(data, &apiErr)
		return nil, apiErr.asError(resp.StatusCode())
	}
	return raw, nil
}
