package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/data/repos/testutil"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/services/triggers"
)

// Engine tests run against the shared test database without a wrapping
// transaction because Generate fans out across goroutines. Isolation comes
// from a fresh owner per test.

func newEngine(tb testing.TB, db *gorm.DB, visits repos.VisitRepo, cache BriefingCache) SuggestionService {
	tb.Helper()
	log := testutil.Logger(tb)
	if visits == nil {
		visits = repos.NewVisitRepo(db, log)
	}
	return NewSuggestionService(
		db,
		log,
		repos.NewSuggestionRepo(db, log),
		visits,
		repos.NewNoteRepo(db, log),
		repos.NewClientRepo(db, log),
		testutil.Cipher(tb),
		triggers.Default(),
		cache,
	)
}

// seedEngineFixtures sets up one owner with a churn-risk client, a client
// with a callback note and a fresh client with no visits. With the default
// config this yields one urgent, one important and one useful suggestion.
func seedEngineFixtures(tb testing.TB, ctx context.Context, db *gorm.DB) *domain.User {
	tb.Helper()
	cipher := testutil.Cipher(tb)
	now := time.Now().UTC()
	user := testutil.SeedUser(tb, ctx, db, fmt.Sprintf("engine-%s@example.com", uuid.New()))

	quiet := testutil.SeedClient(tb, ctx, db, cipher, user.ID, "Bar Centrale", "Firenze", now.AddDate(0, 0, -400))
	testutil.SeedVisit(tb, ctx, db, user.ID, quiet.ID, now.AddDate(0, 0, -65), 100)
	testutil.SeedVisit(tb, ctx, db, user.ID, quiet.ID, now.AddDate(0, 0, -40), 100)

	noted := testutil.SeedClient(tb, ctx, db, cipher, user.ID, "Caffè Milano", "Milano", now.AddDate(0, 0, -200))
	testutil.SeedNote(tb, ctx, db, cipher, user.ID, noted.ID, now.AddDate(0, 0, -5), "Richiamare venerdì per l'ordine")

	testutil.SeedClient(tb, ctx, db, cipher, user.ID, "Forno Nuovo", "Bologna", now.AddDate(0, 0, -10))

	return user
}

func TestGenerateProducesRankedSuggestions(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	user := seedEngineFixtures(t, ctx, db)
	svc := newEngine(t, db, nil, nil)

	res, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.NewGenerated != 3 {
		t.Fatalf("expected 3 new suggestions, got %d", res.NewGenerated)
	}
	if res.Summary.Urgent != 1 || res.Summary.Important != 1 || res.Summary.Useful != 1 || res.Summary.Total != 3 {
		t.Fatalf("unexpected summary: %+v", res.Summary)
	}
	for i := 1; i < len(res.Suggestions); i++ {
		if res.Suggestions[i-1].Priority.Rank() > res.Suggestions[i].Priority.Rank() {
			t.Fatalf("suggestions not ranked by priority: %s before %s",
				res.Suggestions[i-1].Priority, res.Suggestions[i].Priority)
		}
	}
}

func TestGenerateIsIdempotentWithinTheDay(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	user := seedEngineFixtures(t, ctx, db)
	svc := newEngine(t, db, nil, nil)

	first, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	second, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if second.NewGenerated != 0 {
		t.Fatalf("second run must insert nothing, got %d", second.NewGenerated)
	}
	if len(second.Suggestions) != len(first.Suggestions) {
		t.Fatalf("active set changed between runs: %d vs %d", len(first.Suggestions), len(second.Suggestions))
	}
	firstIDs := map[uuid.UUID]struct{}{}
	for _, s := range first.Suggestions {
		firstIDs[s.ID] = struct{}{}
	}
	for _, s := range second.Suggestions {
		if _, ok := firstIDs[s.ID]; !ok {
			t.Fatalf("second run produced an unknown suggestion %s", s.ID)
		}
	}
}

type failingVisitRepo struct {
	repos.VisitRepo
}

func (failingVisitRepo) ListSales(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to *time.Time) ([]*domain.Visit, error) {
	return nil, errors.New("sales table unavailable")
}

func TestGenerateSurvivesFailingTrigger(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	user := seedEngineFixtures(t, ctx, db)
	log := testutil.Logger(t)
	svc := newEngine(t, db, failingVisitRepo{repos.NewVisitRepo(db, log)}, nil)

	// the three sales-based triggers all fail; the other two must still land
	res, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if res.NewGenerated != 2 {
		t.Fatalf("expected 2 suggestions from the surviving triggers, got %d", res.NewGenerated)
	}
	kinds := map[domain.ActionKind]bool{}
	for _, s := range res.Suggestions {
		kinds[s.ActionKind] = true
	}
	if !kinds[domain.ActionCall] || !kinds[domain.ActionConsolidate] {
		t.Fatalf("expected callback and new-client suggestions, got %v", kinds)
	}
}

func TestGenerateRejectsMissingOwner(t *testing.T) {
	svc := newEngine(t, testutil.DB(t), nil, nil)
	if _, err := svc.Generate(context.Background(), uuid.Nil); err == nil {
		t.Fatalf("expected an error for a missing owner")
	}
}

func TestTransitionsAndTerminalStates(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	user := seedEngineFixtures(t, ctx, db)
	svc := newEngine(t, db, nil, nil)

	res, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if len(res.Suggestions) < 2 {
		t.Fatalf("need at least 2 suggestions, got %d", len(res.Suggestions))
	}
	first, second := res.Suggestions[0], res.Suggestions[1]

	ok, err := svc.Complete(ctx, first.ID)
	if err != nil || !ok {
		t.Fatalf("Complete: ok=%v err=%v", ok, err)
	}
	// terminal rows reject further transitions
	if _, err := svc.Postpone(ctx, first.ID); err == nil {
		t.Fatalf("expected an error postponing a completed suggestion")
	}

	ok, err = svc.Postpone(ctx, second.ID)
	if err != nil || !ok {
		t.Fatalf("Postpone: ok=%v err=%v", ok, err)
	}

	active, err := svc.ListActive(ctx, user.ID)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	for _, s := range active {
		if s.ID == first.ID {
			t.Fatalf("completed suggestion still listed as active")
		}
	}
	var postponedSeen bool
	for _, s := range active {
		if s.ID == second.ID {
			postponedSeen = true
			if s.Status != domain.StatusPostponed {
				t.Fatalf("expected postponed status, got %s", s.Status)
			}
		}
	}
	if !postponedSeen {
		t.Fatalf("postponed suggestion must stay active")
	}

	// unknown ids are a clean miss, not an error
	ok, err = svc.Complete(ctx, uuid.New())
	if err != nil || ok {
		t.Fatalf("unknown id: ok=%v err=%v", ok, err)
	}
}

func TestIgnoredCallbackNeverResurfaces(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	user := seedEngineFixtures(t, ctx, db)
	svc := newEngine(t, db, nil, nil)

	res, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	var callback *domain.Suggestion
	for _, s := range res.Suggestions {
		if strings.HasPrefix(s.TriggerKey, "callback:") {
			callback = s
			break
		}
	}
	if callback == nil {
		t.Fatalf("expected a callback suggestion")
	}

	if ok, err := svc.Ignore(ctx, callback.ID); err != nil || !ok {
		t.Fatalf("Ignore: ok=%v err=%v", ok, err)
	}

	// the note-keyed row persists, so regeneration cannot recreate it
	again, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Generate after ignore: %v", err)
	}
	if again.NewGenerated != 0 {
		t.Fatalf("regeneration after ignore inserted %d rows", again.NewGenerated)
	}
	for _, s := range again.Suggestions {
		if s.TriggerKey == callback.TriggerKey {
			t.Fatalf("ignored callback resurfaced")
		}
	}
}

func TestGetUrgentRespectsLimit(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	user := seedEngineFixtures(t, ctx, db)
	svc := newEngine(t, db, nil, nil)

	if _, err := svc.Generate(ctx, user.ID); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	rows, err := svc.GetUrgent(ctx, user.ID, 1)
	if err != nil {
		t.Fatalf("GetUrgent: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(rows))
	}
	if rows[0].Priority != domain.PriorityUrgent {
		t.Fatalf("expected an urgent row, got %s", rows[0].Priority)
	}
}

type stubCache struct {
	mu            sync.Mutex
	data          map[uuid.UUID]string
	invalidations int
}

func newStubCache() *stubCache {
	return &stubCache{data: map[uuid.UUID]string{}}
}

func (c *stubCache) Get(ctx context.Context, userID uuid.UUID) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	text, ok := c.data[userID]
	return text, ok
}

func (c *stubCache) Set(ctx context.Context, userID uuid.UUID, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[userID] = text
}

func (c *stubCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, userID)
	c.invalidations++
}

func TestBriefingUsesAndInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	user := seedEngineFixtures(t, ctx, db)
	cache := newStubCache()
	svc := newEngine(t, db, nil, cache)

	res, err := svc.Generate(ctx, user.ID)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if cache.invalidations == 0 {
		t.Fatalf("generation of new suggestions must invalidate the briefing")
	}

	first, err := svc.Briefing(ctx, user.ID)
	if err != nil {
		t.Fatalf("Briefing: %v", err)
	}
	if !strings.Contains(first, "urgent action") {
		t.Fatalf("unexpected briefing: %q", first)
	}

	// poison the cache to prove the second read is served from it
	cache.Set(ctx, user.ID, "cached")
	second, err := svc.Briefing(ctx, user.ID)
	if err != nil {
		t.Fatalf("Briefing: %v", err)
	}
	if second != "cached" {
		t.Fatalf("expected the cached briefing, got %q", second)
	}

	if _, err := svc.Complete(ctx, res.Suggestions[0].ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if _, ok := cache.Get(ctx, user.ID); ok {
		t.Fatalf("status change must invalidate the briefing")
	}
}
