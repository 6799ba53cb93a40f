package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
)

// ClientWithVisitCount carries a client row plus its total visit count, the
// shape the new-client trigger consumes.
type ClientWithVisitCount struct {
	domain.Client
	VisitCount int64 `json:"visit_count"`
}

type ClientRepo interface {
	Create(ctx context.Context, tx *gorm.DB, clients []*domain.Client) ([]*domain.Client, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Client, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Client, error)
	ListCreatedSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*ClientWithVisitCount, error)
}

type clientRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewClientRepo(db *gorm.DB, baseLog *logger.Logger) ClientRepo {
	return &clientRepo{db: db, log: baseLog.With("repo", "ClientRepo")}
}

func (r *clientRepo) Create(ctx context.Context, tx *gorm.DB, clients []*domain.Client) ([]*domain.Client, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(clients) == 0 {
		return []*domain.Client{}, nil
	}
	if err := t.WithContext(ctx).Create(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

func (r *clientRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*domain.Client, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Client
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clientRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Client, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Client
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *clientRepo) ListCreatedSince(ctx context.Context, tx *gorm.DB, userID uuid.UUID, since time.Time) ([]*ClientWithVisitCount, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*ClientWithVisitCount
	if userID == uuid.Nil {
		return out, nil
	}
	// deterministic: oldest first, so truncation by the caller is stable
	if err := t.WithContext(ctx).
		Model(&domain.Client{}).
		Select("clients.*, (SELECT COUNT(*) FROM visits v WHERE v.client_id = clients.id AND v.deleted_at IS NULL) AS visit_count").
		Where("clients.user_id = ? AND clients.created_at >= ?", userID, since).
		Order("clients.created_at ASC").
		Scan(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
