package triggers

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/data/repos/testutil"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

// fixed analysis day so window math in the tests is deterministic
var testToday = time.Date(2026, 3, 16, 9, 0, 0, 0, time.UTC)

func daysAgo(n int) time.Time {
	return testToday.AddDate(0, 0, -n)
}

func newTestDeps(tb testing.TB, tx *gorm.DB) Deps {
	tb.Helper()
	log := testutil.Logger(tb)
	return Deps{
		Visits:  repos.NewVisitRepo(tx, log),
		Notes:   repos.NewNoteRepo(tx, log),
		Clients: repos.NewClientRepo(tx, log),
		Log:     log,
	}
}

func newTestContext(tb testing.TB, tx *gorm.DB) (Context, Deps, *domain.User) {
	tb.Helper()
	ctx := context.Background()
	user := testutil.SeedUser(tb, ctx, tx, "trigger-"+time.Now().Format("150405.000000000")+"@example.com")
	ac := Context{
		UserID:   user.ID,
		Today:    testToday,
		Cipher:   testutil.Cipher(tb),
		SeenKeys: map[string]struct{}{},
	}
	return ac, newTestDeps(tb, tx), user
}

func suggestionFor(rows []*domain.Suggestion, clientID uuid.UUID) *domain.Suggestion {
	for _, r := range rows {
		if r.ClientID == clientID {
			return r
		}
	}
	return nil
}

func jsonUnmarshal(raw datatypes.JSON, v interface{}) error {
	return json.Unmarshal([]byte(raw), v)
}
