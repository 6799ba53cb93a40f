package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
)

type VisitRepo interface {
	Create(ctx context.Context, tx *gorm.DB, visits []*domain.Visit) ([]*domain.Visit, error)
	ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Visit, error)
	ListByClientID(ctx context.Context, tx *gorm.DB, userID, clientID uuid.UUID) ([]*domain.Visit, error)
	// ListSales returns positive-amount visits for the owner, optionally
	// bounded to [from, to). Ordered by date ascending.
	ListSales(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to *time.Time) ([]*domain.Visit, error)
}

type visitRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewVisitRepo(db *gorm.DB, baseLog *logger.Logger) VisitRepo {
	return &visitRepo{db: db, log: baseLog.With("repo", "VisitRepo")}
}

func (r *visitRepo) Create(ctx context.Context, tx *gorm.DB, visits []*domain.Visit) ([]*domain.Visit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(visits) == 0 {
		return []*domain.Visit{}, nil
	}
	if err := t.WithContext(ctx).Create(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

func (r *visitRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*domain.Visit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Visit
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *visitRepo) ListByClientID(ctx context.Context, tx *gorm.DB, userID, clientID uuid.UUID) ([]*domain.Visit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Visit
	if userID == uuid.Nil || clientID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND client_id = ?", userID, clientID).
		Order("date DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *visitRepo) ListSales(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to *time.Time) ([]*domain.Visit, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Visit
	if userID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(ctx).
		Where("user_id = ? AND amount > 0", userID)
	if from != nil {
		q = q.Where("date >= ?", *from)
	}
	if to != nil {
		q = q.Where("date < ?", *to)
	}
	if err := q.Order("date ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
