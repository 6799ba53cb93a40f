package repos

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
)

// priorityOrder sorts urgent < important < useful in SQL so pagination and
// in-memory ordering agree.
const priorityOrder = "CASE priority WHEN 'urgent' THEN 0 WHEN 'important' THEN 1 WHEN 'useful' THEN 2 ELSE 3 END ASC, created_at DESC"

type SuggestionRepo interface {
	// UpsertMany inserts rows, skipping any whose (user_id, trigger_key)
	// already exists, and reports how many were actually inserted. The
	// unique index is the idempotency guarantee; callers treat the count
	// as the number of newly generated suggestions.
	UpsertMany(ctx context.Context, tx *gorm.DB, rows []*domain.Suggestion) (int, error)

	GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Suggestion, error)
	ListActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, statuses []domain.SuggestionStatus) ([]*domain.Suggestion, error)
	ListByPriority(ctx context.Context, tx *gorm.DB, userID uuid.UUID, priority domain.Priority, limit int) ([]*domain.Suggestion, error)
	ActiveTriggerKeys(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]struct{}, error)
	UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status domain.SuggestionStatus, completedAt *time.Time) (bool, error)
}

type suggestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSuggestionRepo(db *gorm.DB, baseLog *logger.Logger) SuggestionRepo {
	return &suggestionRepo{db: db, log: baseLog.With("repo", "SuggestionRepo")}
}

func (r *suggestionRepo) UpsertMany(ctx context.Context, tx *gorm.DB, rows []*domain.Suggestion) (int, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return 0, nil
	}
	res := t.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "trigger_key"}},
			DoNothing: true,
		}).
		Create(&rows)
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

func (r *suggestionRepo) GetByID(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Suggestion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var row domain.Suggestion
	err := t.WithContext(ctx).Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *suggestionRepo) ListActive(ctx context.Context, tx *gorm.DB, userID uuid.UUID, statuses []domain.SuggestionStatus) ([]*domain.Suggestion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Suggestion
	if userID == uuid.Nil {
		return out, nil
	}
	if len(statuses) == 0 {
		statuses = domain.ActiveStatuses
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND status IN ?", userID, statuses).
		Order(priorityOrder).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *suggestionRepo) ListByPriority(ctx context.Context, tx *gorm.DB, userID uuid.UUID, priority domain.Priority, limit int) ([]*domain.Suggestion, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Suggestion
	if userID == uuid.Nil {
		return out, nil
	}
	if limit <= 0 {
		limit = 10
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND priority = ? AND status IN ?", userID, priority, domain.ActiveStatuses).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *suggestionRepo) ActiveTriggerKeys(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (map[string]struct{}, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	keys := map[string]struct{}{}
	if userID == uuid.Nil {
		return keys, nil
	}
	var raw []string
	if err := t.WithContext(ctx).
		Model(&domain.Suggestion{}).
		Where("user_id = ? AND status IN ?", userID, domain.ActiveStatuses).
		Pluck("trigger_key", &raw).Error; err != nil {
		return nil, err
	}
	for _, k := range raw {
		keys[k] = struct{}{}
	}
	return keys, nil
}

func (r *suggestionRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, id uuid.UUID, status domain.SuggestionStatus, completedAt *time.Time) (bool, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return false, nil
	}
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}
	if completedAt != nil {
		updates["completed_at"] = *completedAt
	}
	res := t.WithContext(ctx).
		Model(&domain.Suggestion{}).
		Where("id = ?", id).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
