package fieldcrypt

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"

	"github.com/fieldmate/fieldmate-backend/internal/pkg/logger"
	"github.com/fieldmate/fieldmate-backend/internal/utils"
)

// Cipher is the narrow field-level crypto capability the suggestion engine
// depends on. A scope is the owning user: every scope gets its own subkey,
// so records never decrypt across owners. Failures are per call; callers are
// expected to substitute a fallback value and continue.
type Cipher interface {
	EnsureScopeReady(ctx context.Context, scope uuid.UUID) error
	Encrypt(ctx context.Context, scope uuid.UUID, recordKind string, recordID uuid.UUID, fields map[string]string) (map[string][]byte, error)
	Decrypt(ctx context.Context, scope uuid.UUID, recordKind string, recordID uuid.UUID, encrypted map[string][]byte, fieldNames []string) (map[string]string, error)
}

type cipherService struct {
	masterKey []byte
	log       *logger.Logger

	mu   sync.RWMutex
	keys map[uuid.UUID][]byte
}

func New(masterKey []byte, log *logger.Logger) (Cipher, error) {
	if len(masterKey) < 32 {
		return nil, fmt.Errorf("fieldcrypt: master key must be at least 32 bytes, got %d", len(masterKey))
	}
	return &cipherService{
		masterKey: masterKey,
		log:       log.With("service", "FieldCrypt"),
		keys:      map[uuid.UUID][]byte{},
	}, nil
}

// NewFromEnv reads FIELDCRYPT_MASTER_KEY (hex, 32+ bytes decoded).
func NewFromEnv(log *logger.Logger) (Cipher, error) {
	raw := utils.GetEnv("FIELDCRYPT_MASTER_KEY", "", log)
	if raw == "" {
		return nil, fmt.Errorf("fieldcrypt: missing FIELDCRYPT_MASTER_KEY")
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: FIELDCRYPT_MASTER_KEY is not valid hex: %w", err)
	}
	return New(key, log)
}

func (s *cipherService) EnsureScopeReady(ctx context.Context, scope uuid.UUID) error {
	_, err := s.scopeKey(scope)
	return err
}

func (s *cipherService) scopeKey(scope uuid.UUID) ([]byte, error) {
	if scope == uuid.Nil {
		return nil, fmt.Errorf("fieldcrypt: nil scope")
	}
	s.mu.RLock()
	key, ok := s.keys[scope]
	s.mu.RUnlock()
	if ok {
		return key, nil
	}

	kdf := hkdf.New(sha256.New, s.masterKey, nil, []byte("fieldmate:scope:"+scope.String()))
	key = make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(kdf, key); err != nil {
		return nil, fmt.Errorf("fieldcrypt: derive scope key: %w", err)
	}

	s.mu.Lock()
	s.keys[scope] = key
	s.mu.Unlock()
	return key, nil
}

// recordAD binds a ciphertext to the record it belongs to, so a blob copied
// onto another row fails authentication.
func recordAD(recordKind string, recordID uuid.UUID, field string) []byte {
	return []byte(recordKind + ":" + recordID.String() + ":" + field)
}

func (s *cipherService) Encrypt(ctx context.Context, scope uuid.UUID, recordKind string, recordID uuid.UUID, fields map[string]string) (map[string][]byte, error) {
	key, err := s.scopeKey(scope)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: init aead: %w", err)
	}

	out := make(map[string][]byte, len(fields))
	for name, value := range fields {
		nonce := make([]byte, aead.NonceSize())
		if _, err := rand.Read(nonce); err != nil {
			return nil, fmt.Errorf("fieldcrypt: nonce: %w", err)
		}
		sealed := aead.Seal(nonce, nonce, []byte(value), recordAD(recordKind, recordID, name))
		out[name] = sealed
	}
	return out, nil
}

func (s *cipherService) Decrypt(ctx context.Context, scope uuid.UUID, recordKind string, recordID uuid.UUID, encrypted map[string][]byte, fieldNames []string) (map[string]string, error) {
	key, err := s.scopeKey(scope)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("fieldcrypt: init aead: %w", err)
	}

	out := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		blob := encrypted[name]
		if len(blob) <= aead.NonceSize() {
			return nil, fmt.Errorf("fieldcrypt: field %q on %s %s: ciphertext missing or truncated", name, recordKind, recordID)
		}
		nonce, sealed := blob[:aead.NonceSize()], blob[aead.NonceSize():]
		plain, err := aead.Open(nil, nonce, sealed, recordAD(recordKind, recordID, name))
		if err != nil {
			return nil, fmt.Errorf("fieldcrypt: field %q on %s %s: %w", name, recordKind, recordID, err)
		}
		out[name] = string(plain)
	}
	return out, nil
}
