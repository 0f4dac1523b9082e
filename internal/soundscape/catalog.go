package soundscape

import (
	"fmt"
	"strings"
)

// Track is one entry of the background music menu
type Track struct {
	Key   string
	Label string
	URL   string
}

const (
	None   = "none"
	Upload = "upload"
)

const trackBaseURL = "https://storage.googleapis.com/maker-suite-gallery/sounds/"

// Catalog is the background music menu in display order
var Catalog = []Track{
	{Key: None, Label: "None"},
	{Key: "soft-piano", Label: "Soft Piano", URL: trackBaseURL + "soft-piano.mp3"},
	{Key: "ambient-pad", Label: "Ambient Pad", URL: trackBaseURL + "ambient-pad.mp3"},
	{Key: "ocean-waves", Label: "Ocean Waves", URL: trackBaseURL + "ocean-waves.mp3"},
	{Key: Upload, Label: "Upload Custom..."},
}

// Lookup finds a track by key or label, case-insensitively
func Lookup(name string) (Track, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Catalog[0], nil
	}
	for _, t := range Catalog {
		if strings.EqualFold(t.Key, name) || strings.EqualFold(t.Label, name) {
			return t, nil
		}
	}
	return Track{}, fmt.Errorf("unknown background track %q", name)
}

// Keys lists the track keys for help text
func Keys() []string {
	keys := make([]string, len(Catalog))
	for i, t := range Catalog {
		keys[i] = t.Key
	}
	return keys
}
