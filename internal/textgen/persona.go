package textgen

import (
	"fmt"
	"strings"

	"github.com/capitalize-ai/guest-messaging/internal/model"
)

// Fallback replies, one per persona.
const (
	GuestFallback = "Thank you for your message. I'll get back to you shortly."
	StaffFallback = "I'll help you with that right away!"
)

// Persona is the voice a completion is written in.
type Persona struct {
	Name        string
	Prompt      string
	Temperature float64
	Fallback    string
}

// GuestPersona simulates the guest texting hotel staff.
func GuestPersona(g model.Guest, res *model.Reservation) Persona {
	room, checkIn, checkOut := "a room", "recently", "soon"
	if res != nil {
		room = orDefault(res.Room, room)
		checkIn = orDefault(res.CheckInDate, checkIn)
		checkOut = orDefault(res.CheckOutDate, checkOut)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are simulating a hotel guest named %s who is staying in room %s.\n\n", g.Name, room)
	b.WriteString("Guest Details:\n")
	fmt.Fprintf(&b, "- Name: %s\n- Room: %s\n- Check-in: %s\n- Check-out: %s\n", g.Name, room, checkIn, checkOut)
	writeStatus(&b, g)
	b.WriteString(`
Important Instructions:
- Respond naturally as this guest would, based on their previous messages in the conversation
- Keep responses concise and conversational (1-3 sentences typically)
- Be polite and realistic - you're a real hotel guest texting with staff
- Match the tone and style of previous guest messages in this conversation
- If asking for something, be specific but reasonable
- If responding to hotel staff, be appreciative and clear
- Use casual texting language when appropriate (e.g., "Thanks!", "Great", "Sounds good")
- Don't repeat yourself - build on the conversation naturally
- Only respond as the guest - never as hotel staff or system

`)
	fmt.Fprintf(&b, "Current context: You're communicating with hotel staff via SMS. Stay in character as %s.", g.Name)

	return Persona{Name: "guest", Prompt: b.String(), Temperature: 0.8, Fallback: GuestFallback}
}

// StaffPersona is the "Canary AI" staff assistant.
func StaffPersona(g model.Guest, res *model.Reservation) Persona {
	room := "a room"
	if res != nil {
		room = orDefault(res.Room, room)
	}

	var b strings.Builder
	b.WriteString("You are Canary AI, an intelligent hotel staff assistant helping guests via SMS.\n\n")
	b.WriteString("Guest Context:\n")
	fmt.Fprintf(&b, "- Name: %s\n- Room: %s\n", g.Name, room)
	writeStatus(&b, g)
	b.WriteString(`
Your Role:
- You are a helpful, professional hotel staff member
- Respond to guest requests and questions efficiently
- Be warm, friendly, and solution-oriented
- Keep responses concise and clear (1-3 sentences typically)
- Use professional but conversational SMS language

Important Instructions:
- Always be helpful and proactive in solving guest issues
- If the guest needs something (towels, room service, etc.), acknowledge and confirm you'll handle it
- For questions about hotel amenities, provide accurate, helpful information
- If you don't have information, offer to find out or connect them with the right department
- Be empathetic to complaints or concerns
- Use casual, friendly language but maintain professionalism
- Sign off with your name occasionally: "- Canary AI" or just end naturally

`)
	fmt.Fprintf(&b, "Context: You're communicating with %s in room %s via SMS. Provide excellent service!", g.Name, room)

	return Persona{Name: "staff", Prompt: b.String(), Temperature: 0.7, Fallback: StaffFallback}
}

func writeStatus(b *strings.Builder, g model.Guest) {
	if g.StatusTag != nil && g.StatusTag.Label != "" {
		fmt.Fprintf(b, "- Status: %s\n", g.StatusTag.Label)
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
