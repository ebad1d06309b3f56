package securestore

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/pbkdf2"
)

// ErrNotFound is returned when no secret exists under the given key.
var ErrNotFound = errors.New("securestore: not found")

const keySalt = "bodima-securestore-v1"

// KV is the opaque key-value backend the store encrypts into.
type KV interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// Store encrypts small secrets (auth tokens, cached credentials) with
// AES-256 GCM before handing them to the backend. The nonce is prepended
// to the ciphertext so it can be recovered during decryption.
type Store struct {
	kv   KV
	aead cipher.AEAD
}

// New derives a 32-byte key from masterKey using PBKDF2 and builds the store.
func New(kv KV, masterKey string) (*Store, error) {
	if masterKey == "" {
		return nil, errors.New("securestore: master key is required")
	}
	key := pbkdf2.Key([]byte(masterKey), []byte(keySalt), 4096, 32, sha256.New)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCM: %w", err)
	}
	return &Store{kv: kv, aead: aead}, nil
}

// Set encrypts and stores a secret under key with the given TTL.
func (s *Store) Set(ctx context.Context, key string, secret []byte, ttl time.Duration) error {
	nonce := make([]byte, s.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return fmt.Errorf("failed to generate nonce: %w", err)
	}
	sealed := s.aead.Seal(nonce, nonce, secret, nil)
	if err := s.kv.Set(ctx, key, sealed, ttl); err != nil {
		return fmt.Errorf("failed to store secret: %w", err)
	}
	return nil
}

// Get retrieves and decrypts the secret stored under key.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < s.aead.NonceSize() {
		return nil, errors.New("securestore: stored value is truncated")
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plain, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt secret: %w", err)
	}
	return plain, nil
}

// Delete removes the secret stored under key.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.kv.Delete(ctx, key)
}

// RedisKV adapts a redis client to the KV interface.
type RedisKV struct {
	Client *redis.Client
}

func (r *RedisKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return r.Client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKV) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.Client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

func (r *RedisKV) Delete(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
