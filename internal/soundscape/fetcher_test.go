package soundscape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestLookup(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"", None, true},
		{"ocean-waves", "ocean-waves", true},
		{"Soft Piano", "soft-piano", true},
		{"UPLOAD", Upload, true},
		{"jazz", "", false},
	}
	for _, tt := range tests {
		got, err := Lookup(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("Lookup(%q) error = %v", tt.in, err)
		}
		if got.Key != tt.want {
			t.Fatalf("Lookup(%q) = %s, want %s", tt.in, got.Key, tt.want)
		}
	}
	if len(Keys()) != len(Catalog) {
		t.Fatal("Keys should list every track")
	}
}

func TestFetchDownloadsOnceAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3fake-mp3-data"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(dir, 5*time.Second, 1024, "zenith-test")
	track := Track{Key: "soft-piano", Label: "Soft Piano", URL: srv.URL + "/sounds/soft-piano.mp3"}

	p, err := f.Fetch(context.Background(), track, "")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if p != filepath.Join(dir, "soft-piano.mp3") {
		t.Fatalf("unexpected cache path %s", p)
	}
	data, _ := os.ReadFile(p)
	if string(data) != "ID3fake-mp3-data" {
		t.Fatalf("unexpected cached content %q", data)
	}

	if _, err := f.Fetch(context.Background(), track, ""); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 1 {
		t.Fatalf("cached track should not be downloaded again, hits=%d", hits.Load())
	}
}

func TestFetchRejectsBadResponses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "html.mp3"):
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html></html>"))
		case strings.HasSuffix(r.URL.Path, "big.mp3"):
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write(make([]byte, 2048))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(dir, 5*time.Second, 1024, "zenith-test")

	for _, name := range []string{"html", "big", "missing"} {
		track := Track{Key: name, Label: name, URL: srv.URL + "/" + name + ".mp3"}
		if _, err := f.Fetch(context.Background(), track, ""); err == nil {
			t.Fatalf("expected error for %s", name)
		}
		if _, err := os.Stat(filepath.Join(dir, name+".mp3")); !os.IsNotExist(err) {
			t.Fatalf("failed download %s must not leave a cache file", name)
		}
	}
}

func TestFetchNoneAndUpload(t *testing.T) {
	f := NewFetcher(t.TempDir(), time.Second, 0, "zenith-test")

	p, err := f.Fetch(context.Background(), Catalog[0], "")
	if err != nil || p != "" {
		t.Fatalf("none should resolve to no file, got %q %v", p, err)
	}

	upload, _ := Lookup(Upload)
	if _, err := f.Fetch(context.Background(), upload, ""); err == nil {
		t.Fatal("upload without a file should fail")
	}

	custom := filepath.Join(t.TempDir(), "rain.ogg")
	os.WriteFile(custom, []byte("OggS"), 0644)
	p, err = f.Fetch(context.Background(), upload, custom)
	if err != nil || p != custom {
		t.Fatalf("upload should resolve to the given file, got %q %v", p, err)
	}
}
