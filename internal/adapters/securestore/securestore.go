// Package securestore wraps a ports.Store so values are sealed with AES-256-GCM at rest.
package securestore

import (
	"bytes"
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/target/storefront-go/internal/ports"
)

var _ ports.Store = (*Store)(nil)

// Versioned prefix to allow future key/algorithm rotations without rewriting stored data.
var sealedPrefixV1 = []byte("v1:")

// ErrUnsealed is returned when strict mode finds a value that was written unencrypted.
var ErrUnsealed = errors.New("stored value is not encrypted")

// Store seals values before delegating to the inner store. The storage key is bound as
// additional data, so a ciphertext copied under another key fails to open.
type Store struct {
	inner  ports.Store
	aead   cipher.AEAD
	strict bool
}

// Options groups optional settings.
type Options struct {
	// Strict rejects values without the sealed prefix instead of returning them as-is.
	Strict bool
}

// New wraps inner. Key must be 32 bytes (AES-256).
func New(inner ports.Store, key []byte, opts Options) (*Store, error) {
	if inner == nil {
		return nil, errors.New("inner store is required")
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("aes-gcm key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, err
	}
	return &Store{inner: inner, aead: aead, strict: opts.Strict}, nil
}

// DecodeKey parses a base64 (standard or URL) encoded 32-byte key.
func DecodeKey(s string) ([]byte, error) {
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.RawURLEncoding} {
		if key, err := enc.DecodeString(s); err == nil {
			if len(key) != 32 {
				return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
			}
			return key, nil
		}
	}
	return nil, errors.New("encryption key is not valid base64")
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := s.inner.Get(ctx, key)
	if err != nil || raw == nil {
		return raw, err
	}
	return s.open(key, raw)
}

func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	sealed, err := s.seal(key, value)
	if err != nil {
		return fmt.Errorf("seal %s: %w", key, err)
	}
	return s.inner.Set(ctx, key, sealed)
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.inner.Delete(ctx, key)
}

// DeleteMany forwards to the inner store's batch delete when it has one.
func (s *Store) DeleteMany(ctx context.Context, keys []string) error {
	return ports.DeleteKeys(ctx, s.inner, keys)
}

func (s *Store) seal(key string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	ct := s.aead.Seal(nil, nonce, plaintext, []byte(key))
	// Store nonce||ciphertext
	buf := make([]byte, 0, len(nonce)+len(ct))
	buf = append(buf, nonce...)
	buf = append(buf, ct...)
	out := make([]byte, 0, len(sealedPrefixV1)+base64.StdEncoding.EncodedLen(len(buf)))
	out = append(out, sealedPrefixV1...)
	return base64.StdEncoding.AppendEncode(out, buf), nil
}

func (s *Store) open(key string, raw []byte) ([]byte, error) {
	if !bytes.HasPrefix(raw, sealedPrefixV1) {
		// Values written before encryption was enabled.
		if s.strict {
			return nil, fmt.Errorf("open %s: %w", key, ErrUnsealed)
		}
		return raw, nil
	}
	data, err := base64.StdEncoding.DecodeString(string(raw[len(sealedPrefixV1):]))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	nonceSize := s.aead.NonceSize()
	if len(data) < nonceSize {
		return nil, fmt.Errorf("open %s: ciphertext too short", key)
	}
	pt, err := s.aead.Open(nil, data[:nonceSize], data[nonceSize:], []byte(key))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	return pt, nil
}
