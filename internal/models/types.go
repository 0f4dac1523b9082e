package models

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

// Voice is a prebuilt speech synthesis voice
type Voice string

const (
	VoiceKore   Voice = "Kore"
	VoicePuck   Voice = "Puck"
	VoiceCharon Voice = "Charon"
	VoiceFenrir Voice = "Fenrir"
	VoiceZephyr Voice = "Zephyr"
)

// Voices lists every supported voice in menu order
var Voices = []Voice{VoiceKore, VoicePuck, VoiceCharon, VoiceFenrir, VoiceZephyr}

// Valid reports whether v is one of the supported voices
func (v Voice) Valid() bool {
	for _, known := range Voices {
		if v == known {
			return true
		}
	}
	return false
}

// ParseVoice matches a voice name case-insensitively
func ParseVoice(name string) (Voice, error) {
	for _, known := range Voices {
		if strings.EqualFold(string(known), strings.TrimSpace(name)) {
			return known, nil
		}
	}
	return "", &ValidationError{Kind: KindUnknownVoice, Field: "voice", Value: name}
}

// Duration is the length class of a meditation
type Duration string

const (
	DurationShort  Duration = "short"
	DurationMedium Duration = "medium"
	DurationLong   Duration = "long"
)

// WordCount returns the target script length for the duration class
func (d Duration) WordCount() int {
	switch d {
	case DurationShort:
		return 150
	case DurationLong:
		return 500
	default:
		return 300
	}
}

// ParseDuration maps a duration name to its class
func ParseDuration(name string) (Duration, error) {
	switch Duration(strings.ToLower(strings.TrimSpace(name))) {
	case DurationShort:
		return DurationShort, nil
	case DurationMedium:
		return DurationMedium, nil
	case DurationLong:
		return DurationLong, nil
	}
	return "", &ValidationError{Kind: KindUnknownDuration, Field: "duration", Value: name}
}

// Atmospheres is the menu offered by the front-end. Any other text is accepted too.
var Atmospheres = []string{
	"Calm & Peaceful",
	"Deep Sleep",
	"Focus & Clarity",
	"Energizing",
	"Healing",
}

// SessionConfig is the frozen input of one generation run
type SessionConfig struct {
	Theme      string   `json:"theme"`
	Voice      Voice    `json:"voice"`
	Atmosphere string   `json:"atmosphere"`
	Duration   Duration `json:"duration"`
}

// WithDefaults fills unset optional fields
func (c SessionConfig) WithDefaults() SessionConfig {
	if c.Voice == "" {
		c.Voice = VoiceKore
	}
	if strings.TrimSpace(c.Atmosphere) == "" {
		c.Atmosphere = Atmospheres[0]
	}
	if c.Duration == "" {
		c.Duration = DurationMedium
	}
	return c
}

// Validate rejects configs that must never reach the remote API
func (c SessionConfig) Validate() error {
	if strings.TrimSpace(c.Theme) == "" {
		return &ValidationError{Kind: KindEmptyInput, Field: "theme"}
	}
	if !c.Voice.Valid() {
		return &ValidationError{Kind: KindUnknownVoice, Field: "voice", Value: string(c.Voice)}
	}
	if _, err := ParseDuration(string(c.Duration)); err != nil {
		return err
	}
	return nil
}

// Payload is an encoded binary blob as returned by the remote API
type Payload struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

// Empty reports whether the payload carries no data
func (p Payload) Empty() bool {
	return p.Data == ""
}

// Bytes decodes the base64 data
func (p Payload) Bytes() ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(p.Data)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return raw, nil
}

// NewPayload encodes raw bytes into a payload
func NewPayload(mimeType string, raw []byte) Payload {
	return Payload{MIMEType: mimeType, Data: base64.StdEncoding.EncodeToString(raw)}
}

// HistoryEntry is one persisted past session
type HistoryEntry struct {
	ID         string    `json:"id"`
	Prompt     string    `json:"prompt"`
	Voice      Voice     `json:"voice"`
	Atmosphere string    `json:"atmosphere,omitempty"`
	Duration   Duration  `json:"duration,omitempty"`
	Images     []Payload `json:"images"`
	Audio      Payload   `json:"audio"`
	Timestamp  time.Time `json:"timestamp"`
}

// Config rebuilds the session config the entry was generated from
func (e HistoryEntry) Config() SessionConfig {
	return SessionConfig{
		Theme:      e.Prompt,
		Voice:      e.Voice,
		Atmosphere: e.Atmosphere,
		Duration:   e.Duration,
	}.WithDefaults()
}

// NormalizePrompt is the key used to detect duplicate history prompts
func NormalizePrompt(prompt string) string {
	return strings.ToLower(strings.TrimSpace(prompt))
}

// Role identifies the author of a chat message
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// ChatMessage is one entry of the chat transcript
type ChatMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// DailyFocus is the cached intention of the day
type DailyFocus struct {
	Text string `json:"text"`
	Date string `json:"date"` // YYYY-MM-DD, local time
}

// DateKey formats t the way DailyFocus.Date is stored
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}
