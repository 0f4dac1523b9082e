package gemini

import (
	"fmt"
	"strings"

	"zenith/internal/models"
)

// Persona is the system instruction of the chat companion
const Persona = "You are Zenith, a deeply empathetic and supportive mindfulness companion. " +
	"Your purpose is to create a safe, non-judgmental space for users to explore their feelings. " +
	"When a user shares an emotion, always acknowledge and validate it with kindness first " +
	"(e.g., 'I hear that you're feeling...', 'It is completely understandable to feel...'). " +
	"Offer gentle affirmations and soothing words. Avoid clinical or purely factual responses; " +
	"instead, speak with warmth, patience, and genuine care, like a wise friend. " +
	"Help users with meditation and stress, but prioritize emotional connection and comfort."

// ApologyMessage replaces a chat reply that could not be completed
const ApologyMessage = "I apologize, but I'm having trouble connecting right now. Let's take a deep breath together."

// FallbackFocus is used when the focus request succeeds without text
const FallbackFocus = "Breathe deeply and be present."

const focusPrompt = "Create a short, inspiring mindfulness quote or daily intention. " +
	"It should be a single sentence, under 15 words. Keep it profound yet simple."

func scriptPrompt(cfg models.SessionConfig) string {
	return fmt.Sprintf(`Create a calm, soothing guided meditation script.
Theme: "%s"
Atmosphere: "%s"
Target Length: ~%d words.
The script should include gentle pauses (indicated by ...) and breathing instructions.
Do not include any stage directions, only the words to be spoken.`,
		strings.TrimSpace(cfg.Theme), cfg.Atmosphere, cfg.Duration.WordCount())
}

// imagePrompts derives three visually distinct slideshow prompts from one theme
func imagePrompts(theme string) []string {
	theme = strings.TrimSpace(theme)
	return []string{
		fmt.Sprintf("Serene, wide landscape representing: %s. Atmospheric lighting, no text, no people, photorealistic digital art.", theme),
		fmt.Sprintf("Close-up macro detail or abstract textures matching the theme: %s. Ethereal, soft focus, calming colors.", theme),
		fmt.Sprintf("A dreamlike, wider vista expanding on: %s. Sunset or moonlight colors, cinematic, highly detailed.", theme),
	}
}

// cleanScript strips markdown fences the model sometimes wraps around plain text
func cleanScript(response string) string {
	response = strings.TrimSpace(response)
	if strings.HasPrefix(response, "```") {
		if nl := strings.IndexByte(response, '\n'); nl >= 0 {
			response = response[nl+1:]
		} else {
			response = strings.TrimPrefix(response, "```")
		}
		response = strings.TrimSuffix(strings.TrimSpace(response), "```")
		response = strings.TrimSpace(response)
	}
	return response
}
