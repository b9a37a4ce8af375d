package tokenstore

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/nacl/secretbox"
	"golang.org/x/crypto/scrypt"

	"github.com/pribylovaa/go-taskboard/internal/models"
)

// ErrDecrypt - значение в хранилище не расшифровывается этим ключом.
var ErrDecrypt = errors.New("token decrypt failed")

const (
	saltSize  = 16
	nonceSize = 24
	keySize   = 32

	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
)

// Encrypted оборачивает любое Store и хранит токены зашифрованными:
// base64url(salt | nonce | secretbox(token)). Ключ выводится из парольной
// фразы через scrypt; выведенные ключи кэшируются по соли.
type Encrypted struct {
	inner      Store
	passphrase []byte

	mu   sync.Mutex
	salt []byte
	keys map[string]*[keySize]byte
}

// NewEncrypted создаёт обёртку с новой солью для последующих записей.
func NewEncrypted(inner Store, passphrase string) (*Encrypted, error) {
	const op = "tokenstore.NewEncrypted"

	if passphrase == "" {
		return nil, fmt.Errorf("%s: empty passphrase", op)
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%s: salt: %w", op, err)
	}

	return &Encrypted{
		inner:      inner,
		passphrase: []byte(passphrase),
		salt:       salt,
		keys:       make(map[string]*[keySize]byte),
	}, nil
}

func (e *Encrypted) Get(ctx context.Context) (models.TokenPair, error) {
	const op = "tokenstore.Encrypted.Get"

	sealed, err := e.inner.Get(ctx)
	if err != nil {
		return models.TokenPair{}, err
	}

	access, err := e.open(sealed.AccessToken)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: access: %w", op, err)
	}

	refresh, err := e.open(sealed.RefreshToken)
	if err != nil {
		return models.TokenPair{}, fmt.Errorf("%s: refresh: %w", op, err)
	}

	return models.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (e *Encrypted) Set(ctx context.Context, pair models.TokenPair) error {
	const op = "tokenstore.Encrypted.Set"

	if !pair.Complete() {
		return fmt.Errorf("%s: %w", op, ErrIncompletePair)
	}

	access, err := e.seal(pair.AccessToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	refresh, err := e.seal(pair.RefreshToken)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return e.inner.Set(ctx, models.TokenPair{AccessToken: access, RefreshToken: refresh})
}

func (e *Encrypted) Clear(ctx context.Context) error {
	return e.inner.Clear(ctx)
}

func (e *Encrypted) seal(plain string) (string, error) {
	key, err := e.key(e.salt)
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", fmt.Errorf("nonce: %w", err)
	}

	out := make([]byte, 0, saltSize+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, e.salt...)
	out = append(out, nonce[:]...)
	out = secretbox.Seal(out, []byte(plain), &nonce, key)

	return base64.RawURLEncoding.EncodeToString(out), nil
}

func (e *Encrypted) open(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil || len(raw) < saltSize+nonceSize+secretbox.Overhead {
		return "", ErrDecrypt
	}

	key, err := e.key(raw[:saltSize])
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], raw[saltSize:saltSize+nonceSize])

	plain, ok := secretbox.Open(nil, raw[saltSize+nonceSize:], &nonce, key)
	if !ok {
		return "", ErrDecrypt
	}

	return string(plain), nil
}

func (e *Encrypted) key(salt []byte) (*[keySize]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if k, ok := e.keys[string(salt)]; ok {
		return k, nil
	}

	derived, err := scrypt.Key(e.passphrase, salt, scryptN, scryptR, scryptP, keySize)
	if err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}

	var k [keySize]byte
	copy(k[:], derived)
	e.keys[string(salt)] = &k

	return &k, nil
}
