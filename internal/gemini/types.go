package gemini

import (
	"fmt"
	"strings"
)

// part is one piece of content: text or inline binary data
type part struct {
	Text       string `json:"text,omitempty"`
	InlineData *blob  `json:"inlineData,omitempty"`
}

// blob is base64 inline data
type blob struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

// content is a role-tagged list of parts
type content struct {
	Role  string `json:"role,omitempty"` // "user" or "model"
	Parts []part `json:"parts"`
}

func textContent(role, text string) content {
	return content{Role: role, Parts: []part{{Text: text}}}
}

// generateRequest is the body of generateContent / streamGenerateContent
type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type generationConfig struct {
	Temperature        *float64      `json:"temperature,omitempty"`
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
	ImageConfig        *imageConfig  `json:"imageConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig voiceConfig `json:"voiceConfig"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type imageConfig struct {
	AspectRatio string `json:"aspectRatio,omitempty"`
}

// generateResponse is a full response or one streamed chunk
type generateResponse struct {
	Candidates     []candidate     `json:"candidates"`
	PromptFeedback *promptFeedback `json:"promptFeedback,omitempty"`
}

type candidate struct {
	Content      content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type promptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// text concatenates the text parts of the first candidate
func (r *generateResponse) text() string {
	if r == nil || len(r.Candidates) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, p := range r.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

// firstBlob returns the first inline data part of the first candidate
func (r *generateResponse) firstBlob() *blob {
	if r == nil || len(r.Candidates) == 0 {
		return nil
	}
	for _, p := range r.Candidates[0].Content.Parts {
		if p.InlineData != nil && p.InlineData.Data != "" {
			return p.InlineData
		}
	}
	return nil
}

// blocked reports a safety block on the prompt
func (r *generateResponse) blocked() error {
	if r != nil && r.PromptFeedback != nil && r.PromptFeedback.BlockReason != "" {
		return fmt.Errorf("prompt blocked: %s", r.PromptFeedback.BlockReason)
	}
	return nil
}

// apiError is the error envelope returned by the API
type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

func (e *apiError) asError(statusCode int) error {
	if e == nil || e.Error.Message == "" {
		return fmt.Errorf("Gemini returned status %d", statusCode)
	}
	return fmt.Errorf("Gemini returned status %d (%s): %s", statusCode, e.Error.Status, e.Error.Message)
}

// modelList is the response of the models listing endpoint
type modelList struct {
	Models []struct {
		Name        string `json:"name"`
		DisplayName string `json:"displayName"`
	} `json:"models"`
}

func float(v float64) *float64 { return &v }
