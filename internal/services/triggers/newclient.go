package triggers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
)

// NewClientConsolidation surfaces recently created accounts with at most
// one recorded visit. Candidates come back creation-date ascending from the
// store, so the cap keeps the oldest (most at-risk) ones.
func NewClientConsolidation(ctx context.Context, ac Context, cfg Config, deps Deps) ([]*domain.Suggestion, error) {
	since := ac.Today.AddDate(0, 0, -cfg.NewClientDays)
	rows, err := deps.Clients.ListCreatedSince(ctx, nil, ac.UserID, since)
	if err != nil {
		return nil, fmt.Errorf("new_client_consolidation: load clients: %w", err)
	}

	now := time.Now().UTC()
	var out []*domain.Suggestion
	for _, row := range rows {
		if len(out) >= newClientCap {
			break
		}
		if row.VisitCount > 1 {
			continue
		}
		key := dayKey("newclient", row.Client.ID, ac.Today)
		if ac.Seen(key) {
			continue
		}
		ageDays := daysBetween(row.Client.CreatedAt, ac.Today)
		priority := domain.PriorityUseful
		if ageDays > 14 {
			priority = domain.PriorityImportant
		}
		name := clientDisplayName(ctx, ac, deps, &row.Client)
		out = append(out, &domain.Suggestion{
			ID:         uuid.New(),
			UserID:     ac.UserID,
			ClientID:   row.Client.ID,
			ClientName: name,
			ActionKind: domain.ActionConsolidate,
			ActionText: "Check in with " + name,
			Reason:     fmt.Sprintf("New client for %d days with %d visits so far.", ageDays, row.VisitCount),
			ContextData: contextData(map[string]interface{}{
				"account_age_days": ageDays,
				"visit_count":      row.VisitCount,
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
