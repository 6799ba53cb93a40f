package repos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
)

type NoteRepo interface {
	Create(ctx context.Context, tx *gorm.DB, notes []*domain.Note) ([]*domain.Note, error)
	ListByClientID(ctx context.Context, tx *gorm.DB, userID, clientID uuid.UUID) ([]*domain.Note, error)
	// ListInRange returns the owner's notes with date in [from, to),
	// oldest first.
	ListInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*domain.Note, error)
}

type noteRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewNoteRepo(db *gorm.DB, baseLog *logger.Logger) NoteRepo {
	return &noteRepo{db: db, log: baseLog.With("repo", "NoteRepo")}
}

func (r *noteRepo) Create(ctx context.Context, tx *gorm.DB, notes []*domain.Note) ([]*domain.Note, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	if len(notes) == 0 {
		return []*domain.Note{}, nil
	}
	if err := t.WithContext(ctx).Create(&notes).Error; err != nil {
		return nil, err
	}
	return notes, nil
}

func (r *noteRepo) ListByClientID(ctx context.Context, tx *gorm.DB, userID, clientID uuid.UUID) ([]*domain.Note, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Note
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

func (r *noteRepo) ListInRange(ctx context.Context, tx *gorm.DB, userID uuid.UUID, from, to time.Time) ([]*domain.Note, error) {
	t := tx
	if t == nil {
		t = r.db
	}
	var out []*domain.Note
	if userID == uuid.Nil {
		return out, nil
	}
	if err := t.WithContext(ctx).
		Where("user_id = ? AND date >= ? AND date < ?", userID, from, to).
		Order("date ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
