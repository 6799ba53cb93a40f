package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldmate/fieldmate-backend/internal/domain"
	"github.com/fieldmate/fieldmate-backend/internal/fieldcrypt"
)

// fixed 32-byte key; fine for tests, never for real data
var testMasterKey = []byte("0123456789abcdef0123456789abcdef")

func Cipher(tb testing.TB) fieldcrypt.Cipher {
	tb.Helper()
	c, err := fieldcrypt.New(testMasterKey, Logger(tb))
	if err != nil {
		tb.Fatalf("init cipher: %v", err)
	}
	return c
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *domain.User {
	tb.Helper()
	now := time.Now().UTC()
	u := &domain.User{
		ID:        uuid.New(),
		Email:     email,
		Password:  "x",
		FirstName: "Test",
		LastName:  "User",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedClient(tb testing.TB, ctx context.Context, tx *gorm.DB, cipher fieldcrypt.Cipher, userID uuid.UUID, name, city string, createdAt time.Time) *domain.Client {
	tb.Helper()
	id := uuid.New()
	var nameEnc []byte
	if cipher != nil {
		enc, err := cipher.Encrypt(ctx, userID, "client", id, map[string]string{"name": name})
		if err != nil {
			tb.Fatalf("encrypt client name: %v", err)
		}
		nameEnc = enc["name"]
	}
	c := &domain.Client{
		ID:        id,
		UserID:    userID,
		NameEnc:   nameEnc,
		City:      city,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed client: %v", err)
	}
	return c
}

func SeedVisit(tb testing.TB, ctx context.Context, tx *gorm.DB, userID, clientID uuid.UUID, date time.Time, amount float64) *domain.Visit {
	tb.Helper()
	v := &domain.Visit{
		ID:        uuid.New(),
		UserID:    userID,
		ClientID:  clientID,
		Date:      date,
		Amount:    amount,
		CreatedAt: date,
		UpdatedAt: date,
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed visit: %v", err)
	}
	return v
}

func SeedNote(tb testing.TB, ctx context.Context, tx *gorm.DB, cipher fieldcrypt.Cipher, userID, clientID uuid.UUID, date time.Time, content string) *domain.Note {
	tb.Helper()
	id := uuid.New()
	var contentEnc []byte
	if cipher != nil {
		enc, err := cipher.Encrypt(ctx, userID, "note", id, map[string]string{"content": content})
		if err != nil {
			tb.Fatalf("encrypt note content: %v", err)
		}
		contentEnc = enc["content"]
	}
	n := &domain.Note{
		ID:         id,
		UserID:     userID,
		ClientID:   clientID,
		Date:       date,
		ContentEnc: contentEnc,
		CreatedAt:  date,
		UpdatedAt:  date,
	}
	if err := tx.WithContext(ctx).Create(n).Error; err != nil {
		tb.Fatalf("seed note: %v", err)
	}
	return n
}
