package meditation

import (
	"zenith/internal/models"
)

// Phase is the published state of the orchestrator. The set of phases is
// closed: only the types in this file implement it.
type Phase interface {
	Label() string
	phase()
}

// Idle means no run is active
type Idle struct{}

// RequestingVisuals means the slideshow images are being generated
type RequestingVisuals struct{}

// PartialReady carries the images so the slideshow can start before audio exists
type PartialReady struct {
	Preview Preview
}

// RequestingScript means the meditation script is being written
type RequestingScript struct{}

// RequestingAudio means the voiceover is being synthesized
type RequestingAudio struct{}

// BuildingResource means the audio payload is being turned into a playable handle
type BuildingResource struct {
	Archived bool
}

// Complete carries the finished session
type Complete struct {
	Session *Session
}

// Failed ends a run. Kind names the stage that failed.
type Failed struct {
	Kind     models.Kind
	Archived bool
	Err      error
}

func (Idle) Label() string              { return "Ready" }
func (RequestingVisuals) Label() string { return "Painting your visuals..." }
func (PartialReady) Label() string      { return "Your visuals are ready" }
func (RequestingScript) Label() string  { return "Crafting meditation script..." }
func (RequestingAudio) Label() string   { return "Synthesizing soothing voiceover..." }
func (p BuildingResource) Label() string {
	if p.Archived {
		return "Restoring your archived session..."
	}
	return "Preparing your audio..."
}
func (Complete) Label() string { return "Your meditation is ready" }
func (p Failed) Label() string { return p.Message() }

// Message is the user-facing description of the failure
func (p Failed) Message() string {
	if p.Archived {
		return "Could not load archived session. The saved audio may be damaged."
	}
	switch p.Kind {
	case models.KindImage:
		return "Could not generate new session: the visuals failed to render. Please try again."
	case models.KindScript:
		return "Could not generate new session: the meditation script could not be written. Please try again."
	case models.KindAudio:
		return "Could not generate new session: the voiceover could not be synthesized. Please try again."
	case models.KindDecode:
		return "Could not generate new session: the audio could not be prepared. Please try again."
	}
	return "An unexpected error occurred. Please try again."
}

func (Idle) phase()              {}
func (RequestingVisuals) phase() {}
func (PartialReady) phase()      {}
func (RequestingScript) phase()  {}
func (RequestingAudio) phase()   {}
func (BuildingResource) phase()  {}
func (Complete) phase()          {}
func (Failed) phase()            {}
