package automation

import (
	"fmt"
	"strings"

	"deskflow/internal/models"
)

// Instruction suffixes appended to every generation prompt.
const (
	defaultPromptInstruction = "Answer professionally, concisely and reassuringly. You may use light markdown to structure the reply."
	adminPromptInstruction   = "Be concise. You may use structured markdown."
)

// BuildPrompt assembles the generation prompt for an automated reply.
//
// Without an admin instruction it synthesizes a full prompt from the ticket
// fields and the optional linked FAQ. With one, the instruction is used
// verbatim; a ticket-context block is prepended unless the instruction
// already appears to reference the ticket, and the FAQ block is appended
// unless it already appears to cover the FAQ. The duplicate-context checks
// are plain case-folded containment, best effort only.
func BuildPrompt(in TicketInput, adminPrompt string, faq *models.FAQ) string {
	adminPrompt = strings.TrimSpace(adminPrompt)
	if adminPrompt == "" {
		var b strings.Builder
		b.WriteString("You are the support assistant of a helpdesk. A customer just opened this ticket:\n\n")
		b.WriteString(ticketBlock(in))
		if faq != nil {
			b.WriteString("\n")
			b.WriteString(faqBlock(faq))
		}
		b.WriteString("\n")
		b.WriteString(defaultPromptInstruction)
		return b.String()
	}

	var b strings.Builder
	if !mentionsAny(adminPrompt, "ticket", "title", "description", "message", "id") {
		b.WriteString(ticketBlock(in))
		b.WriteString("\n")
	}
	b.WriteString(adminPrompt)
	if faq != nil && !mentionsAny(adminPrompt, "faq", "q:", "r:") {
		b.WriteString("\n\n")
		b.WriteString(faqBlock(faq))
	}
	b.WriteString("\n\n")
	b.WriteString(adminPromptInstruction)
	return b.String()
}

func ticketBlock(in TicketInput) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Ticket %d\n", in.ID)
	fmt.Fprintf(&b, "Title: %s\n", in.Title)
	fmt.Fprintf(&b, "Description: %s\n", in.Description)
	if in.Message != "" {
		fmt.Fprintf(&b, "First message: %s\n", in.Message)
	}
	return b.String()
}

func faqBlock(faq *models.FAQ) string {
	return fmt.Sprintf("FAQ to take into account:\nQ: %s\nA: %s\n", faq.Question, faq.Answer)
}

func mentionsAny(s string, words ...string) bool {
	s = strings.ToLower(s)
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
