package triggers

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

type churnCandidate struct {
	clientID uuid.UUID
	lastSale time.Time
	total    float64
	count    int
	days     int
}

// ChurnRisk flags repeat buyers who have gone quiet. The boundary is
// exclusive: a client whose last sale is exactly ChurnDays old does not
// qualify yet. One-off buyers and low-value accounts are filtered out.
func ChurnRisk(ctx context.Context, ac Context, cfg Config, deps Deps) ([]*domain.Suggestion, error) {
	sales, err := deps.Visits.ListSales(ctx, nil, ac.UserID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("churn_risk: load sales: %w", err)
	}

	per := map[uuid.UUID]*churnCandidate{}
	for _, v := range sales {
		a := per[v.ClientID]
		if a == nil {
			a = &churnCandidate{clientID: v.ClientID}
			per[v.ClientID] = a
		}
		if v.Date.After(a.lastSale) {
			a.lastSale = v.Date
		}
		a.total += v.Amount
		a.count++
	}

	cutoff := ac.Today.AddDate(0, 0, -cfg.ChurnDays)
	var cands []*churnCandidate
	for _, a := range per {
		if !a.lastSale.Before(cutoff) {
			continue
		}
		if a.count < 2 {
			continue
		}
		if a.total/float64(a.count) < MinAverageOrder {
			continue
		}
		a.days = daysBetween(a.lastSale, ac.Today)
		cands = append(cands, a)
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].days != cands[j].days {
			return cands[i].days > cands[j].days
		}
		return cands[i].clientID.String() < cands[j].clientID.String()
	})
	if len(cands) > churnCap {
		cands = cands[:churnCap]
	}

	ids := make([]uuid.UUID, 0, len(cands))
	for _, a := range cands {
		ids = append(ids, a.clientID)
	}
	clients, err := clientsByID(ctx, deps, ids)
	if err != nil {
		return nil, fmt.Errorf("churn_risk: load clients: %w", err)
	}

	now := time.Now().UTC()
	var out []*domain.Suggestion
	for _, a := range cands {
		key := dayKey("churn", a.clientID, ac.Today)
		if ac.Seen(key) {
			continue
		}
		c := clients[a.clientID]
		if c == nil {
			continue
		}
		avg := a.total / float64(a.count)
		priority := domain.PriorityImportant
		if a.days > 30 {
			priority = domain.PriorityUrgent
		}
		name := clientDisplayName(ctx, ac, deps, c)
		out = append(out, &domain.Suggestion{
			ID:         uuid.New(),
			UserID:     ac.UserID,
			ClientID:   a.clientID,
			ClientName: name,
			ActionKind: domain.ActionCall,
			ActionText: "Call " + name,
			Reason:     fmt.Sprintf("No order in %d days. Average order: €%.0f.", a.days, avg),
			ContextData: contextData(map[string]interface{}{
				"days_since_last_order": a.days,
				"average_order":         avg,
				"order_count":           a.count,
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
