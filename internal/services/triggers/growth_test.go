package triggers

import (
	"context"
	"strings"
	"testing"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos/testutil"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

func TestGrowthOpportunityFires(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	ac, deps, user := newTestContext(t, tx)

	// €150 in the prior window, €260 in the current one: +73.3%
	c := testutil.SeedClient(t, ctx, tx, ac.Cipher, user.ID, "Enoteca Brunello", "Montalcino", daysAgo(400))
	testutil.SeedVisit(t, ctx, tx, user.ID, c.ID, daysAgo(45), 150)
	testutil.SeedVisit(t, ctx, tx, user.ID, c.ID, daysAgo(10), 130)
	testutil.SeedVisit(t, ctx, tx, user.ID, c.ID, daysAgo(5), 130)

	rows, err := GrowthOpportunity(ctx, ac, Default(), deps)
	if err != nil {
		t.Fatalf("GrowthOpportunity: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(rows))
	}
	s := rows[0]
	if s.Priority != domain.PriorityImportant {
		t.Fatalf("growth is always important, got %s", s.Priority)
	}
	if s.ActionKind != domain.ActionPropose {
		t.Fatalf("expected propose action, got %s", s.ActionKind)
	}
	if !strings.Contains(s.Reason, "73.3%") {
		t.Fatalf("unexpected reason: %q", s.Reason)
	}
}

func TestGrowthOpportunityRevenueFloor(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	ac, deps, user := newTestContext(t, tx)

	// prior window exactly at the floor; huge growth must still not fire
	c := testutil.SeedClient(t, ctx, tx, ac.Cipher, user.ID, "Tiny Base", "Empoli", daysAgo(400))
	testutil.SeedVisit(t, ctx, tx, user.ID, c.ID, daysAgo(45), MinWindowRevenue)
	testutil.SeedVisit(t, ctx, tx, user.ID, c.ID, daysAgo(10), 900)

	rows, err := GrowthOpportunity(ctx, ac, Default(), deps)
	if err != nil {
		t.Fatalf("GrowthOpportunity: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("baseline at the floor must not fire, got %d rows", len(rows))
	}
}

func TestGrowthOpportunityBelowThreshold(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	ac, deps, user := newTestContext(t, tx)

	c := testutil.SeedClient(t, ctx, tx, ac.Cipher, user.ID, "Flat Growth", "Livorno", daysAgo(400))
	testutil.SeedVisit(t, ctx, tx, user.ID, c.ID, daysAgo(45), 200)
	testutil.SeedVisit(t, ctx, tx, user.ID, c.ID, daysAgo(10), 240)

	rows, err := GrowthOpportunity(ctx, ac, Default(), deps)
	if err != nil {
		t.Fatalf("GrowthOpportunity: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("+20%% must stay below the default threshold, got %d rows", len(rows))
	}
}
