package triggers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/fieldmate/fieldmate-backend/internal/data/repos"
	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/fieldcrypt"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
)

// Context is the read-only per-run snapshot shared by all triggers.
// SeenKeys is the guard set of trigger keys already active for the owner,
// taken once at the start of the run; triggers use it to skip candidates
// cheaply before doing any decryption work. The store's unique index remains
// the authoritative dedup.
type Context struct {
	UserID   uuid.UUID
	Today    time.Time
	Cipher   fieldcrypt.Cipher
	SeenKeys map[string]struct{}
}

func (ac Context) Seen(key string) bool {
	_, ok := ac.SeenKeys[key]
	return ok
}

// Deps are the read-only collaborators a trigger may consult. Triggers never
// write.
type Deps struct {
	Visits  repos.VisitRepo
	Notes   repos.NoteRepo
	Clients repos.ClientRepo
	Log     *logger.Logger
}

// Func computes candidate suggestions from the store. Data-level problems
// (one client failing to decrypt, a missing row) degrade to skipping that
// candidate; only a failed store read surfaces as an error, and the
// orchestrator treats that as an empty result for this trigger.
type Func func(ctx context.Context, ac Context, cfg Config, deps Deps) ([]*domain.Suggestion, error)

type Trigger struct {
	Name string
	Run  Func
}

func All() []Trigger {
	return []Trigger{
		{Name: "churn_risk", Run: ChurnRisk},
		{Name: "growth_opportunity", Run: GrowthOpportunity},
		{Name: "new_client_consolidation", Run: NewClientConsolidation},
		{Name: "callback_reminder", Run: CallbackReminder},
		{Name: "revenue_drop", Run: RevenueDrop},
	}
}

const dayFormat = "2006-01-02"

func dayKey(prefix string, clientID uuid.UUID, today time.Time) string {
	return fmt.Sprintf("%s:%s:%s", prefix, clientID, today.Format(dayFormat))
}

// clientDisplayName resolves a client's cleartext name through the cipher.
// A decryption failure is logged and degrades to the city or a truncated id,
// never to an error.
func clientDisplayName(ctx context.Context, ac Context, deps Deps, c *domain.Client) string {
	if c == nil {
		return ""
	}
	if ac.Cipher != nil && len(c.NameEnc) > 0 {
		fields, err := ac.Cipher.Decrypt(ctx, ac.UserID, "client", c.ID, c.EncryptedFields(), []string{"name"})
		if err == nil && fields["name"] != "" {
			return fields["name"]
		}
		if err != nil && deps.Log != nil {
			deps.Log.Warn("client name decryption failed, using fallback", "client_id", c.ID, "error", err)
		}
	}
	if c.City != "" {
		return c.City
	}
	return "Client " + c.ID.String()[:8]
}

func contextData(values map[string]interface{}) datatypes.JSON {
	raw, err := json.Marshal(values)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(raw)
}

// daysBetween counts whole days from a to b.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a).Hours() / 24)
}

func clientsByID(ctx context.Context, deps Deps, ids []uuid.UUID) (map[uuid.UUID]*domain.Client, error) {
	rows, err := deps.Clients.GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*domain.Client, len(rows))
	for _, c := range rows {
		out[c.ID] = c
	}
	return out, nil
}
