package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zenith/internal/config"
	"zenith/internal/history"
	"zenith/internal/kvstore"
	"zenith/internal/meditation"
	"zenith/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewConfig()
	cfg.DataDir = t.TempDir()
	cfg.APIKey = ""
	return cfg
}

func seedHistory(t *testing.T, cfg *config.Config, prompts ...string) []models.HistoryEntry {
	t.Helper()
	store, err := kvstore.NewFile(cfg.StorePath())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	m := history.NewManager(store, cfg.MaxHistorySize, nil)
	for _, p := range prompts {
		err := m.Append(models.HistoryEntry{
			Prompt: p,
			Voice:  models.VoicePuck,
			Images: []models.Payload{models.NewPayload("image/png", []byte("img"))},
			Audio:  models.NewPayload("audio/L16;rate=24000", make([]byte, 480)),
		})
		if err != nil {
			t.Fatalf("Append(%s): %v", p, err)
		}
	}
	return m.LoadAll()
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestHistoryList(t *testing.T) {
	cfg := testConfig(t)
	seedHistory(t, cfg, "A calm forest", "Ocean at dusk")

	out, err := run(t, cfg, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	forest := strings.Index(out, "A calm forest")
	ocean := strings.Index(out, "Ocean at dusk")
	if forest < 0 || ocean < 0 {
		t.Fatalf("missing entries in output:\n%s", out)
	}
	if ocean > forest {
		t.Errorf("expected newest entry first:\n%s", out)
	}
}

func TestHistoryClear(t *testing.T) {
	cfg := testConfig(t)
	seedHistory(t, cfg, "A calm forest")

	if _, err := run(t, cfg, "history", "clear"); err != nil {
		t.Fatalf("history clear: %v", err)
	}
	out, err := run(t, cfg, "history", "list")
	if err != nil {
		t.Fatalf("history list: %v", err)
	}
	if !strings.Contains(out, "No saved sessions yet") {
		t.Errorf("expected empty history, got:\n%s", out)
	}
}

func TestHistoryLoadSavesVoiceover(t *testing.T) {
	cfg := testConfig(t)
	seedHistory(t, cfg, "A calm forest")
	dest := filepath.Join(t.TempDir(), "forest.wav")

	out, err := run(t, cfg, "history", "load", "1", "--out", dest)
	if err != nil {
		t.Fatalf("history load: %v\n%s", err, out)
	}
	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("voiceover not written: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("RIFF")) {
		t.Errorf("expected a WAV file, got % x", data[:min(len(data), 8)])
	}
}

func TestHistoryLoadSavesImages(t *testing.T) {
	cfg := testConfig(t)
	seedHistory(t, cfg, "A calm forest")
	dir := filepath.Join(t.TempDir(), "slides")

	out, err := run(t, cfg, "history", "load", "1", "--images-dir", dir)
	if err != nil {
		t.Fatalf("history load: %v\n%s", err, out)
	}
	path := filepath.Join(dir, "image-1.png")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("image not written: %v", err)
	}
	if string(data) != "img" {
		t.Errorf("image content = %q, want %q", data, "img")
	}
	if !strings.Contains(out, path) {
		t.Errorf("expected image path in output:\n%s", out)
	}
}

func TestPartialReadySavesImagesBeforeAudio(t *testing.T) {
	var out bytes.Buffer
	a := newApp(testConfig(t), &out)
	a.imagesDir = t.TempDir()

	a.showPhase(meditation.PartialReady{Preview: meditation.Preview{
		Config: models.SessionConfig{Theme: "forest"},
		Images: []models.Payload{
			models.NewPayload("image/png", []byte("one")),
			models.NewPayload("image/jpeg", []byte("two")),
		},
	}})

	want := []string{
		filepath.Join(a.imagesDir, "image-1.png"),
		filepath.Join(a.imagesDir, "image-2.jpg"),
	}
	for _, p := range want {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if len(a.imagePaths) != 2 {
		t.Fatalf("imagePaths = %v", a.imagePaths)
	}
}

func TestImageExtension(t *testing.T) {
	tests := []struct {
		mimeType string
		want     string
	}{
		{"image/png", ".png"},
		{"IMAGE/JPEG", ".jpg"},
		{"image/webp", ".webp"},
		{"image/avif", ".avif"},
		{"", ".png"},
		{"application/octet-stream", ".img"},
	}

	for _, tt := range tests {
		if got := imageExtension(tt.mimeType); got != tt.want {
			t.Errorf("imageExtension(%q) = %q, want %q", tt.mimeType, got, tt.want)
		}
	}
}

func TestMusicVolumeDefaultsFromConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.BackgroundVolume = 0.5
	root := NewRootCmd(cfg)

	for _, path := range [][]string{{"meditate"}, {"history", "load"}} {
		cmd, _, err := root.Find(path)
		if err != nil {
			t.Fatalf("Find(%v): %v", path, err)
		}
		flag := cmd.Flags().Lookup("music-volume")
		if flag == nil || flag.DefValue != "0.5" {
			t.Errorf("%v: music-volume default = %v, want 0.5", path, flag)
		}
	}
}

func TestHistoryLoadUnknown(t *testing.T) {
	cfg := testConfig(t)
	seedHistory(t, cfg, "A calm forest")

	if _, err := run(t, cfg, "history", "load", "nope"); err == nil {
		t.Fatal("expected an error for an unknown entry")
	}
}

func TestFindEntry(t *testing.T) {
	entries := []models.HistoryEntry{{ID: "a"}, {ID: "b"}, {ID: "c"}}

	tests := []struct {
		ref     string
		want    string
		wantErr bool
	}{
		{"b", "b", false},
		{"1", "a", false},
		{"3", "c", false},
		{"0", "", true},
		{"4", "", true},
		{"zzz", "", true},
	}

	for _, tt := range tests {
		got, err := findEntry(entries, tt.ref)
		if (err != nil) != tt.wantErr {
			t.Errorf("findEntry(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			continue
		}
		if got.ID != tt.want {
			t.Errorf("findEntry(%q) = %q, want %q", tt.ref, got.ID, tt.want)
		}
	}
}

func TestCommandsNeedAPIKey(t *testing.T) {
	cfg := testConfig(t)

	for _, args := range [][]string{
		{"meditate", "--theme", "forest"},
		{"focus"},
		{"models"},
	} {
		if _, err := run(t, cfg, args...); err == nil {
			t.Errorf("%v: expected a configuration error without an API key", args)
		}
	}
}

func TestMeditateRejectsUnknownVoice(t *testing.T) {
	cfg := testConfig(t)
	cfg.APIKey = "test-key"

	_, err := run(t, cfg, "meditate", "--theme", "forest", "--voice", "Robot")
	if err == nil {
		t.Fatal("expected an error for an unknown voice")
	}
	if kind, _ := models.KindOf(err); kind != models.KindUnknownVoice {
		t.Errorf("kind = %q, want %q", kind, models.KindUnknownVoice)
	}
}
