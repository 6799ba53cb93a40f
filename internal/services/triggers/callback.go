package triggers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

// Phrases that signal an intended callback, matched case-insensitively as
// substrings. Covers Italian and English phrasing plus weekday names; a
// substring hit is enough, there is no NLP here.
var callbackKeywords = []string{
	"richiamare", "richiama", "richiamo", "ricontattare", "ricontatta",
	"call back", "callback", "call again", "follow up",
	"prossima settimana", "next week",
	"lunedì", "martedì", "mercoledì", "giovedì", "venerdì", "sabato",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday",
}

func mentionsCallback(content string) bool {
	lowered := strings.ToLower(content)
	for _, kw := range callbackKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// CallbackReminder scans recent notes for callback intent. Keys are per
// note, not per day: a note produces at most one suggestion ever, until the
// user resolves or ignores it. Notes younger than three days are assumed
// still remembered and are not surfaced yet.
func CallbackReminder(ctx context.Context, ac Context, cfg Config, deps Deps) ([]*domain.Suggestion, error) {
	from := ac.Today.AddDate(0, 0, -cfg.CallbackCheckDays)
	notes, err := deps.Notes.ListInRange(ctx, nil, ac.UserID, from, ac.Today)
	if err != nil {
		return nil, fmt.Errorf("callback_reminder: load notes: %w", err)
	}

	now := time.Now().UTC()
	var out []*domain.Suggestion
	for _, n := range notes {
		if len(out) >= callbackCap {
			break
		}
		ageDays := daysBetween(n.Date, ac.Today)
		if ageDays < 3 {
			continue
		}
		key := fmt.Sprintf("callback:%s:%s", n.ClientID, n.ID)
		if ac.Seen(key) {
			continue
		}

		if ac.Cipher == nil {
			continue
		}
		fields, err := ac.Cipher.Decrypt(ctx, ac.UserID, "note", n.ID, map[string][]byte{"content": n.ContentEnc}, []string{"content"})
		if err != nil {
			if deps.Log != nil {
				deps.Log.Warn("note decryption failed, skipping", "note_id", n.ID, "error", err)
			}
			continue
		}
		if !mentionsCallback(fields["content"]) {
			continue
		}

		clients, err := clientsByID(ctx, deps, []uuid.UUID{n.ClientID})
		if err != nil {
			return nil, fmt.Errorf("callback_reminder: load client: %w", err)
		}
		c := clients[n.ClientID]
		if c == nil {
			continue
		}

		priority := domain.PriorityImportant
		if ageDays > 7 {
			priority = domain.PriorityUrgent
		}
		name := clientDisplayName(ctx, ac, deps, c)
		out = append(out, &domain.Suggestion{
			ID:         uuid.New(),
			UserID:     ac.UserID,
			ClientID:   n.ClientID,
			ClientName: name,
			ActionKind: domain.ActionCall,
			ActionText: "Call back " + name,
			Reason:     fmt.Sprintf("A note from %d days ago mentions a callback.", ageDays),
			ContextData: contextData(map[string]interface{}{
				"note_age_days": ageDays,
				"note_id":       n.ID.String(),
			}),
			Priority:   priority,
			Status:     domain.StatusNew,
			TriggerKey: key,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out, nil
}
