package services

import (
	"fmt"

	"astrowell_go_backend/internal/models"
)

// ReadingGenerator produces the assistant's side of a consultation.
// The default implementation is templated copy; a real model call can
// replace it behind the same interface without touching callers.
type ReadingGenerator interface {
	Greeting(profile models.BirthProfile) string
	Reply(profile models.BirthProfile, question string) string
}

// DefaultReadingGenerator renders the product's canned cosmic copy.
type DefaultReadingGenerator struct{}

func NewReadingGenerator() ReadingGenerator {
	return &DefaultReadingGenerator{}
}

func (g *DefaultReadingGenerator) Greeting(profile models.BirthProfile) string {
	return fmt.Sprintf(`🌟 Welcome, %s!

I've analyzed your cosmic profile based on your birth details:
📅 Born: %s
⏰ Time: %s
📍 Place: %s

Your celestial journey awaits! I'm here to provide insights about your astrology, personality, relationships, career, and life path. What would you like to explore first?

✨ *Kundli generation is free - each question costs 1 credit*`,
		profile.Name, profile.DateOfBirth, profile.TimeOfBirth, profile.PlaceOfBirth)
}

func (g *DefaultReadingGenerator) Reply(profile models.BirthProfile, question string) string {
	return fmt.Sprintf(`🔮 Based on your cosmic profile and your question: "%s"

Here's your personalized astrological insight:

This is a simulated response that would provide detailed astrological guidance based on your birth chart and current planetary positions. In a real implementation, this would connect to an AI service that analyzes your Kundli data and provides personalized insights.

✨ *This reading is personalized for %s born on %s at %s in %s*`,
		question, profile.Name, profile.DateOfBirth, profile.TimeOfBirth, profile.PlaceOfBirth)
}
