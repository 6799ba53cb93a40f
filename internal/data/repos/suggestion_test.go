package repos_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/data/repos/testutil"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

func newSuggestion(userID uuid.UUID, key string, p domain.Priority, createdAt time.Time) *domain.Suggestion {
	return &domain.Suggestion{
		ID:         uuid.New(),
		UserID:     userID,
		ClientID:   uuid.New(),
		ClientName: "Client",
		ActionKind: domain.ActionCall,
		ActionText: "Call Client",
		Reason:     "because",
		Priority:   p,
		Status:     domain.StatusNew,
		TriggerKey: key,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
}

func TestUpsertManySkipsExistingKeys(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewSuggestionRepo(testutil.DB(t), testutil.Logger(t))
	user := testutil.SeedUser(t, ctx, tx, "upsert-"+uuid.NewString()+"@example.com")
	now := time.Now().UTC()

	first := []*domain.Suggestion{
		newSuggestion(user.ID, "churn:a:2026-03-16", domain.PriorityUrgent, now),
		newSuggestion(user.ID, "callback:b:n1", domain.PriorityImportant, now),
	}
	n, err := repo.UpsertMany(ctx, tx, first)
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 inserts, got %d", n)
	}

	// same keys plus one new: only the new one lands
	second := []*domain.Suggestion{
		newSuggestion(user.ID, "churn:a:2026-03-16", domain.PriorityUrgent, now),
		newSuggestion(user.ID, "callback:b:n1", domain.PriorityImportant, now),
		newSuggestion(user.ID, "newclient:c:2026-03-16", domain.PriorityUseful, now),
	}
	n, err = repo.UpsertMany(ctx, tx, second)
	if err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 insert, got %d", n)
	}

	rows, err := repo.ListActive(ctx, tx, user.ID, nil)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(rows))
	}
}

func TestListActiveOrdersByPriority(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewSuggestionRepo(testutil.DB(t), testutil.Logger(t))
	user := testutil.SeedUser(t, ctx, tx, "order-"+uuid.NewString()+"@example.com")
	now := time.Now().UTC()

	rows := []*domain.Suggestion{
		newSuggestion(user.ID, "k1", domain.PriorityUseful, now.Add(-3*time.Hour)),
		newSuggestion(user.ID, "k2", domain.PriorityUrgent, now.Add(-2*time.Hour)),
		newSuggestion(user.ID, "k3", domain.PriorityImportant, now.Add(-1*time.Hour)),
		newSuggestion(user.ID, "k4", domain.PriorityUrgent, now),
	}
	if _, err := repo.UpsertMany(ctx, tx, rows); err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}

	got, err := repo.ListActive(ctx, tx, user.ID, nil)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	var keys []string
	for _, s := range got {
		keys = append(keys, s.TriggerKey)
	}
	want := []string{"k4", "k2", "k3", "k1"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("order mismatch: got %v, want %v", keys, want)
		}
	}
}

func TestActiveTriggerKeysExcludeResolved(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewSuggestionRepo(testutil.DB(t), testutil.Logger(t))
	user := testutil.SeedUser(t, ctx, tx, "keys-"+uuid.NewString()+"@example.com")
	now := time.Now().UTC()

	open := newSuggestion(user.ID, "open", domain.PriorityImportant, now)
	done := newSuggestion(user.ID, "done", domain.PriorityImportant, now)
	if _, err := repo.UpsertMany(ctx, tx, []*domain.Suggestion{open, done}); err != nil {
		t.Fatalf("UpsertMany: %v", err)
	}
	completedAt := now
	if ok, err := repo.UpdateStatus(ctx, tx, done.ID, domain.StatusCompleted, &completedAt); err != nil || !ok {
		t.Fatalf("UpdateStatus: ok=%v err=%v", ok, err)
	}

	keys, err := repo.ActiveTriggerKeys(ctx, tx, user.ID)
	if err != nil {
		t.Fatalf("ActiveTriggerKeys: %v", err)
	}
	if _, ok := keys["open"]; !ok {
		t.Fatalf("open key missing from guard set")
	}
	if _, ok := keys["done"]; ok {
		t.Fatalf("completed key must leave the guard set")
	}

	row, err := repo.GetByID(ctx, tx, done.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row == nil || row.Status != domain.StatusCompleted || row.CompletedAt == nil {
		t.Fatalf("completed row not persisted: %+v", row)
	}
}

func TestUpdateStatusUnknownID(t *testing.T) {
	ctx := context.Background()
	tx := testutil.Tx(t, testutil.DB(t))
	repo := repos.NewSuggestionRepo(testutil.DB(t), testutil.Logger(t))

	ok, err := repo.UpdateStatus(ctx, tx, uuid.New(), domain.StatusIgnored, nil)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if ok {
		t.Fatalf("unknown id must report no update")
	}

	row, err := repo.GetByID(ctx, tx, uuid.New())
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if row != nil {
		t.Fatalf("unknown id must return nil, got %+v", row)
	}
}
