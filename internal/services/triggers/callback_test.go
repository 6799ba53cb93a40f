package triggers

import (
	"context"
	"fmt"
	"testing"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos/testutil"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

func TestMentionsCallback(t *testing.T) {
	cases := []struct {
		content string
		want    bool
	}{
		{"Richiamare venerdì per il nuovo listino", true},
		{"il titolare vuole essere ricontattato, RICHIAMA lunedì", true},
		{"call back next week about the contract", true},
		{"follow up on the espresso machine quote", true},
		{"ordinato 3 casse di rosso", false},
		{"cliente soddisfatto, nessuna azione", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := mentionsCallback(tc.content); got != tc.want {
			t.Fatalf("mentionsCallback(%q) = %v, want %v", tc.content, got, tc.want)
		}
	}
}

func TestCallbackReminderFires(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	ac, deps, user := newTestContext(t, tx)

	c := testutil.SeedClient(t, ctx, tx, ac.Cipher, user.ID, "Caffè Milano", "Milano", daysAgo(200))
	n := testutil.SeedNote(t, ctx, tx, ac.Cipher, user.ID, c.ID, daysAgo(5), "Richiamare venerdì per l'ordine grande")

	rows, err := CallbackReminder(ctx, ac, Default(), deps)
	if err != nil {
		t.Fatalf("CallbackReminder: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(rows))
	}
	s := rows[0]
	if s.Priority != domain.PriorityImportant {
		t.Fatalf("expected important at 5 days, got %s", s.Priority)
	}
	if s.ActionKind != domain.ActionCall {
		t.Fatalf("expected call action, got %s", s.ActionKind)
	}
	if s.ActionText != "Call back Caffè Milano" {
		t.Fatalf("unexpected action text: %q", s.ActionText)
	}
	if want := fmt.Sprintf("callback:%s:%s", c.ID, n.ID); s.TriggerKey != want {
		t.Fatalf("trigger key %q, want %q", s.TriggerKey, want)
	}
}

func TestCallbackReminderUrgentWhenStale(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	ac, deps, user := newTestContext(t, tx)

	c := testutil.SeedClient(t, ctx, tx, ac.Cipher, user.ID, "Bar Sport", "Torino", daysAgo(200))
	testutil.SeedNote(t, ctx, tx, ac.Cipher, user.ID, c.ID, daysAgo(10), "call back about the invoice")

	rows, err := CallbackReminder(ctx, ac, Default(), deps)
	if err != nil {
		t.Fatalf("CallbackReminder: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(rows))
	}
	if rows[0].Priority != domain.PriorityUrgent {
		t.Fatalf("expected urgent past 7 days, got %s", rows[0].Priority)
	}
}

func TestCallbackReminderSkipsFreshAndUnrelatedNotes(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	ac, deps, user := newTestContext(t, tx)

	c := testutil.SeedClient(t, ctx, tx, ac.Cipher, user.ID, "Panificio Bianchi", "Verona", daysAgo(200))
	// too fresh to surface, and a note with no callback intent
	testutil.SeedNote(t, ctx, tx, ac.Cipher, user.ID, c.ID, daysAgo(1), "richiamare domani per conferma")
	testutil.SeedNote(t, ctx, tx, ac.Cipher, user.ID, c.ID, daysAgo(6), "consegnate 2 casse, tutto ok")

	rows, err := CallbackReminder(ctx, ac, Default(), deps)
	if err != nil {
		t.Fatalf("CallbackReminder: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no suggestions, got %d", len(rows))
	}
}

func TestCallbackReminderSeenNoteStaysSuppressed(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	ac, deps, user := newTestContext(t, tx)

	c := testutil.SeedClient(t, ctx, tx, ac.Cipher, user.ID, "Hotel Duomo", "Firenze", daysAgo(200))
	n := testutil.SeedNote(t, ctx, tx, ac.Cipher, user.ID, c.ID, daysAgo(6), "ricontattare per il rinnovo")

	ac.SeenKeys[fmt.Sprintf("callback:%s:%s", c.ID, n.ID)] = struct{}{}

	rows, err := CallbackReminder(ctx, ac, Default(), deps)
	if err != nil {
		t.Fatalf("CallbackReminder: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("seen note key must suppress the candidate, got %d rows", len(rows))
	}
}
