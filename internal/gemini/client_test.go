package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/bytedance/sonic"

	"zenith/internal/models"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Options{
		BaseURL:     srv.URL,
		APIKey:      "test-key",
		ScriptModel: "script-model",
		FocusModel:  "focus-model",
		ImageModel:  "image-model",
		SpeechModel: "speech-model",
		ChatModel:   "chat-model",
	})
}

func decodeRequest(t *testing.T, r *http.Request) generateRequest {
	t.Helper()
	data, err := io.ReadAll(r.Body)
	if err != nil {
		t.Errorf("read body: %v", err)
	}
	var req generateRequest
	if err := sonic.Unmarshal(data, &req); err != nil {
		t.Errorf("decode body: %v", err)
	}
	return req
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	data, _ := sonic.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

func textResponse(text string) generateResponse {
	return generateResponse{Candidates: []candidate{{Content: content{Role: "model", Parts: []part{{Text: text}}}}}}
}

func blobResponse(mime string, data []byte) generateResponse {
	return generateResponse{Candidates: []candidate{{Content: content{Role: "model", Parts: []part{
		{Text: "here you go"},
		{InlineData: &blob{MIMEType: mime, Data: base64.StdEncoding.EncodeToString(data)}},
	}}}}}
}

func TestGenerateScript(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/script-model:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("expected API key header, got %q", got)
		}
		req := decodeRequest(t, r)
		prompt := req.Contents[0].Parts[0].Text
		if !strings.Contains(prompt, `Theme: "ocean waves"`) || !strings.Contains(prompt, "~300 words") {
			t.Errorf("prompt missing theme or length: %s", prompt)
		}
		writeJSON(w, textResponse("```\nBreathe in... and out...\n```"))
	})

	script, err := c.GenerateScript(context.Background(), models.SessionConfig{Theme: "  ocean waves "})
	if err != nil {
		t.Fatalf("GenerateScript: %v", err)
	}
	if script != "Breathe in... and out..." {
		t.Fatalf("unexpected script %q", script)
	}
}

func TestGenerateScriptFailure(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(w, map[string]interface{}{"error": map[string]interface{}{"code": 500, "message": "boom", "status": "INTERNAL"}})
	})

	_, err := c.GenerateScript(context.Background(), models.SessionConfig{Theme: "forest"})
	kind, ok := models.KindOf(err)
	if !ok || kind != models.KindScript {
		t.Fatalf("expected script GenerationError, got %v", err)
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("expected API message in error, got %v", err)
	}
}

func TestGenerateImagesPartialSuccessKeepsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		if req.GenerationConfig == nil || req.GenerationConfig.ImageConfig == nil || req.GenerationConfig.ImageConfig.AspectRatio != "16:9" {
			t.Errorf("expected 16:9 image config")
		}
		prompt := req.Contents[0].Parts[0].Text
		switch {
		case strings.Contains(prompt, "landscape"):
			writeJSON(w, blobResponse("image/png", []byte("first")))
		case strings.Contains(prompt, "macro"):
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			writeJSON(w, blobResponse("image/jpeg", []byte("third")))
		}
	})

	images, err := c.GenerateImages(context.Background(), "mountain lake")
	if err != nil {
		t.Fatalf("GenerateImages: %v", err)
	}
	if len(images) != 2 {
		t.Fatalf("expected 2 images, got %d", len(images))
	}
	first, _ := images[0].Bytes()
	third, _ := images[1].Bytes()
	if string(first) != "first" || string(third) != "third" {
		t.Fatalf("images out of prompt order: %q, %q", first, third)
	}
	if images[1].MIMEType != "image/jpeg" {
		t.Errorf("expected MIME type to be preserved, got %s", images[1].MIMEType)
	}
}

func TestGenerateImagesAllFail(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls++
		mu.Unlock()
		writeJSON(w, textResponse("I cannot draw that"))
	})

	_, err := c.GenerateImages(context.Background(), "mountain lake")
	kind, ok := models.KindOf(err)
	if !ok || kind != models.KindImage {
		t.Fatalf("expected image GenerationError, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 image requests, got %d", calls)
	}
}

func TestGenerateAudio(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		req := decodeRequest(t, r)
		cfg := req.GenerationConfig
		if cfg == nil || cfg.SpeechConfig == nil {
			t.Errorf("expected speech config")
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		if got := cfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName; got != "Puck" {
			t.Errorf("expected voice Puck, got %s", got)
		}
		if len(cfg.ResponseModalities) != 1 || cfg.ResponseModalities[0] != "AUDIO" {
			t.Errorf("expected AUDIO modality, got %v", cfg.ResponseModalities)
		}
		writeJSON(w, blobResponse("audio/L16;codec=pcm;rate=24000", []byte{0, 0, 1, 0}))
	})

	payload, err := c.GenerateAudio(context.Background(), "Breathe.", models.VoicePuck)
	if err != nil {
		t.Fatalf("GenerateAudio: %v", err)
	}
	raw, err := payload.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	if payload.MIMEType != "audio/L16;codec=pcm;rate=24000" || len(raw) != 4 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestGenerateAudioWithoutData(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, textResponse("no audio"))
	})

	_, err := c.GenerateAudio(context.Background(), "Breathe.", models.VoiceKore)
	kind, ok := models.KindOf(err)
	if !ok || kind != models.KindAudio {
		t.Fatalf("expected audio GenerationError, got %v", err)
	}
}

func TestGenerateDailyFocusFallback(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, textResponse("   "))
	})

	text, err := c.GenerateDailyFocus(context.Background())
	if err != nil {
		t.Fatalf("GenerateDailyFocus: %v", err)
	}
	if text != FallbackFocus {
		t.Fatalf("expected fallback focus, got %q", text)
	}
}

func TestListModels(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"models": []map[string]string{
			{"name": "models/gemini-3-flash-preview"},
			{"name": "models/gemini-2.5-flash-image"},
		}})
	})

	names, err := c.ListModels(context.Background())
	if err != nil {
		t.Fatalf("ListModels: %v", err)
	}
	if len(names) != 2 || names[0] != "gemini-3-flash-preview" {
		t.Fatalf("unexpected models %v", names)
	}
	if err := c.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func sseHandler(t *testing.T, fragments []string, seen *[]generateRequest, mu *sync.Mutex) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("expected alt=sse query")
		}
		req := decodeRequest(t, r)
		mu.Lock()
		*seen = append(*seen, req)
		mu.Unlock()

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {not json\n\n")
		for _, frag := range fragments {
			data, _ := sonic.Marshal(textResponse(frag))
			fmt.Fprintf(w, "data: %s\n\n", data)
			w.(http.Flusher).Flush()
		}
	}
}

func drain(t *testing.T, s FragmentStream) []string {
	t.Helper()
	var out []string
	for {
		frag, err := s.Recv()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("Recv: %v", err)
		}
		out = append(out, frag)
	}
}

func TestConversationStreamsAndCommitsTurns(t *testing.T) {
	var mu sync.Mutex
	var seen []generateRequest
	c := newTestClient(t, sseHandler(t, []string{"Hello", "", ", ", "world"}, &seen, &mu))

	conv := c.Conversation()
	if conv != c.Conversation() {
		t.Fatal("Conversation should return the same session")
	}

	got := drain(t, conv.SendMessage(context.Background(), "hi"))
	if strings.Join(got, "|") != "Hello|, |world" {
		t.Fatalf("unexpected fragments %q", got)
	}
	if conv.Turns() != 2 {
		t.Fatalf("expected 2 committed messages, got %d", conv.Turns())
	}

	drain(t, conv.SendMessage(context.Background(), "again"))

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(seen))
	}
	if seen[0].SystemInstruction == nil || seen[0].SystemInstruction.Parts[0].Text != Persona {
		t.Error("expected persona as system instruction")
	}
	second := seen[1].Contents
	if len(second) != 3 || second[1].Role != "model" || second[1].Parts[0].Text != "Hello, world" {
		t.Fatalf("second turn should carry prior history, got %+v", second)
	}
}

func TestConversationFailureYieldsApology(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	conv := c.NewConversation()
	got := drain(t, conv.SendMessage(context.Background(), "hi"))
	if len(got) != 1 || got[0] != ApologyMessage {
		t.Fatalf("expected a single apology, got %q", got)
	}
	if conv.Turns() != 0 {
		t.Fatalf("failed turn must not be committed, got %d", conv.Turns())
	}
}

func TestConversationBlockedMidStream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		data, _ := sonic.Marshal(textResponse("Let us"))
		fmt.Fprintf(w, "data: %s\n\n", data)
		fmt.Fprint(w, `data: {"candidates":[{"content":{"parts":[]},"finishReason":"SAFETY"}]}`+"\n\n")
	})

	got := drain(t, c.NewConversation().SendMessage(context.Background(), "hi"))
	if len(got) != 2 || got[0] != "Let us" || got[1] != ApologyMessage {
		t.Fatalf("expected partial reply then apology, got %q", got)
	}
}

func TestClosedStreamEndsWithoutApology(t *testing.T) {
	var mu sync.Mutex
	var seen []generateRequest
	c := newTestClient(t, sseHandler(t, []string{"one", "two"}, &seen, &mu))

	conv := c.NewConversation()
	s := conv.SendMessage(context.Background(), "hi")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := s.Recv(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after Close, got %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if conv.Turns() != 0 {
		t.Fatal("abandoned turn must not be committed")
	}
}
