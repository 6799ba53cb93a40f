package triggers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

type dropCandidate struct {
	clientID  uuid.UUID
	thisMonth float64
	baseline  float64
	dropPct   float64
}

// RevenueDrop compares the trailing 30-day revenue against the average of
// the two preceding 30-day windows (days 31-90 back). Baselines at or under
// the revenue floor never fire.
func RevenueDrop(ctx context.Context, ac Context, cfg Config, deps Deps) ([]*domain.Suggestion, error) {
	windowStart := ac.Today.AddDate(0, 0, -30)
	baselineStart := ac.Today.AddDate(0, 0, -90)

	sales, err := deps.Visits.ListSales(ctx, nil, ac.UserID, &baselineStart, &ac.Today)
	if err != nil {
		return nil, fmt.Errorf("revenue_drop: load sales: %w", err)
	}

	per := map[uuid.UUID]*dropCandidate{}
	for _, v := range sales {
		a := per[v.ClientID]
		if a == nil {
			a = &dropCandidate{clientID: v.ClientID}
			per[v.ClientID] = a
		}
		if v.Date.Before(windowStart) {
			a.baseline += v.Amount
		} else {
			a.thisMonth += v.Amount
		}
	}

	var cands []*dropCandidate
	for _, a := range per {
		a.baseline /= 2 // two 30-day windows averaged into one baseline
		if a.baseline <= MinWindowRevenue {
			continue
		}
		a.dropPct = (a.baseline - a.thisMonth) / a.baseline * 100
		if a.dropPct < cfg.DropPercent {
			continue
		}
		cands = append(cands, a)
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].dropPct != cands[j].dropPct {
			return cands[i].dropPct > cands[j].dropPct
		}
		return cands[i].clientID.String() < cands[j].clientID.String()
	})
	if len(cands) > dropCap {
		cands = cands[:dropCap]
	}

	ids := make([]uuid.UUID, 0, len(cands))
	for _, a := range cands {
		ids = append(ids, a.clientID)
	}
	clients, err := clientsByID(ctx, deps, ids)
	if err != nil {
		return nil, fmt.Errorf("revenue_drop: load clients: %w", err)
	}

	now := time.Now().UTC()
	var out []*domain.Suggestion
	for _, a := range cands {
		key := dayKey("drop", a.clientID, ac.Today)
		if ac.Seen(key) {
			continue
		}
		c := clients[a.clientID]
		if c == nil {
			continue
		}
		priority := domain.PriorityImportant
		if a.dropPct > 50 {
			priority = domain.PriorityUrgent
		}
		name := clientDisplayName(ctx, ac, deps, c)
		out = append(out, &domain.Suggestion{
			ID:         uuid.New(),
			UserID:     ac.UserID,
			ClientID:   a.clientID,
			ClientName: name,
			ActionKind: domain.ActionRecover,
			ActionText: "Win back " + name,
			Reason:     fmt.Sprintf("Revenue down %.1f%% vs the previous two months (€%.0f vs €%.0f average).", a.dropPct, a.thisMonth, a.baseline),
			ContextData: contextData(map[string]interface{}{
				"drop_percent":       a.dropPct,
				"this_month_revenue": a.thisMonth,
				"baseline_revenue":   a.baseline,
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
