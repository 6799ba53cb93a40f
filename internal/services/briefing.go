package services

import (
	"fmt"
	"strings"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

const briefingMaxLines = 5

func priorityMarker(p domain.Priority) string {
	switch p {
	case domain.PriorityUrgent:
		return "[!!]"
	case domain.PriorityImportant:
		return "[!]"
	default:
		return "[~]"
	}
}

func actionMarker(k domain.ActionKind) string {
	switch k {
	case domain.ActionCall:
		return "CALL"
	case domain.ActionVisit:
		return "VISIT"
	case domain.ActionPropose:
		return "OFFER"
	case domain.ActionRecover:
		return "WINBACK"
	case domain.ActionConsolidate:
		return "NEWBIZ"
	case domain.ActionFollow:
		return "FOLLOW"
	default:
		return "TODO"
	}
}

// RenderBriefing turns a ranked suggestion list into the short plain-text
// daily briefing. Output is deterministic for a given input list.
func RenderBriefing(rows []*domain.Suggestion) string {
	urgent := 0
	for _, r := range rows {
		if r.Priority == domain.PriorityUrgent {
			urgent++
		}
	}

	var b strings.Builder
	switch {
	case urgent == 1:
		b.WriteString("Good morning. You have 1 urgent action today.\n")
	case urgent > 1:
		fmt.Fprintf(&b, "Good morning. You have %d urgent actions today.\n", urgent)
	default:
		b.WriteString("Good morning. Nothing urgent today.\n")
	}

	if len(rows) > 0 {
		b.WriteString("\n")
	}
	for i, r := range rows {
		if i == briefingMaxLines {
			break
		}
		fmt.Fprintf(&b, "%s %s %s — %s\n", priorityMarker(r.Priority), actionMarker(r.ActionKind), r.ActionText, r.Reason)
	}
	if extra := len(rows) - briefingMaxLines; extra > 0 {
		fmt.Fprintf(&b, "…and %d more suggestions.\n", extra)
	}

	b.WriteString("\nOpen FieldMate to work through the list.")
	return b.String()
}
