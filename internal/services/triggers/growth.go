package triggers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

type growthCandidate struct {
	clientID   uuid.UUID
	thisWindow float64
	prevWindow float64
	growthPct  float64
}

// GrowthOpportunity compares the trailing 30-day revenue window against the
// preceding one (days 31-60 back) per client. Clients whose prior window is
// at or under the revenue floor are skipped regardless of the percentage.
func GrowthOpportunity(ctx context.Context, ac Context, cfg Config, deps Deps) ([]*domain.Suggestion, error) {
	windowStart := ac.Today.AddDate(0, 0, -30)
	prevStart := ac.Today.AddDate(0, 0, -60)

	sales, err := deps.Visits.ListSales(ctx, nil, ac.UserID, &prevStart, &ac.Today)
	if err != nil {
		return nil, fmt.Errorf("growth_opportunity: load sales: %w", err)
	}

	per := map[uuid.UUID]*growthCandidate{}
	for _, v := range sales {
		a := per[v.ClientID]
		if a == nil {
			a = &growthCandidate{clientID: v.ClientID}
			per[v.ClientID] = a
		}
		if v.Date.Before(windowStart) {
			a.prevWindow += v.Amount
		} else {
			a.thisWindow += v.Amount
		}
	}

	var cands []*growthCandidate
	for _, a := range per {
		if a.prevWindow <= MinWindowRevenue {
			continue
		}
		a.growthPct = (a.thisWindow - a.prevWindow) / a.prevWindow * 100
		if a.growthPct < cfg.GrowthPercent {
			continue
		}
		cands = append(cands, a)
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].growthPct != cands[j].growthPct {
			return cands[i].growthPct > cands[j].growthPct
		}
		return cands[i].clientID.String() < cands[j].clientID.String()
	})
	if len(cands) > growthCap {
		cands = cands[:growthCap]
	}

	ids := make([]uuid.UUID, 0, len(cands))
	for _, a := range cands {
		ids = append(ids, a.clientID)
	}
	clients, err := clientsByID(ctx, deps, ids)
	if err != nil {
		return nil, fmt.Errorf("growth_opportunity: load clients: %w", err)
	}

	now := time.Now().UTC()
	var out []*domain.Suggestion
	for _, a := range cands {
		key := dayKey("growth", a.clientID, ac.Today)
		if ac.Seen(key) {
			continue
		}
		c := clients[a.clientID]
		if c == nil {
			continue
		}
		name := clientDisplayName(ctx, ac, deps, c)
		out = append(out, &domain.Suggestion{
			ID:         uuid.New(),
			UserID:     ac.UserID,
			ClientID:   a.clientID,
			ClientName: name,
			ActionKind: domain.ActionPropose,
			ActionText: "Propose an upgrade to " + name,
			Reason:     fmt.Sprintf("Revenue up %.1f%% over the last 30 days (€%.0f vs €%.0f).", a.growthPct, a.thisWindow, a.prevWindow),
			ContextData: contextData(map[string]interface{}{
				"growth_percent":       a.growthPct,
				"this_window_revenue":  a.thisWindow,
				"prior_window_revenue": a.prevWindow,
			}),
			Priority:   domain.PriorityImportant,
			Status:     domain.StatusNew,
			TriggerKey: key,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}
	return out, nil
}
