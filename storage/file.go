package storage

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
)

// ErrCorruptValue is returned when a sealed value cannot be opened
var ErrCorruptValue = errors.New("corrupt stored value")

// File keeps every key in one JSON document on disk. Each write rewrites the
// document through a temp file and rename. When a key is given, values are
// sealed with XChaCha20-Poly1305 so tokens are not readable at rest.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]string
	aead   aeadCipher
}

type aeadCipher interface {
	NonceSize() int
	Seal(dst, nonce, plaintext, additionalData []byte) []byte
	Open(dst, nonce, ciphertext, additionalData []byte) ([]byte, error)
}

var _ Store = (*File)(nil)

// OpenFile loads path, creating parent folders when needed. key may be nil.
func OpenFile(path string, key []byte) (*File, error) {
	f := &File{
		path:   path,
		values: make(map[string]string),
	}

	if key != nil {
		aead, err := chacha20poly1305.NewX(key)
		if err != nil {
			return nil, fmt.Errorf("[storage OpenFile] sealing key: %w", err)
		}
		f.aead = aead
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("[storage OpenFile] %w", err)
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("[storage OpenFile] %w", err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("[storage OpenFile] %s is not a valid store: %w", path, err)
	}
	return f, nil
}

func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored, ok := f.values[key]
	if !ok {
		return "", false, nil
	}
	value, err := f.open(key, stored)
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	sealed, err := f.seal(key, value)
	if err != nil {
		return err
	}
	previous, existed := f.values[key]
	f.values[key] = sealed
	if err := f.flush(); err != nil {
		if existed {
			f.values[key] = previous
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	removed := make(map[string]string)
	for _, key := range keys {
		if stored, ok := f.values[key]; ok {
			removed[key] = stored
			delete(f.values, key)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := f.flush(); err != nil {
		for key, stored := range removed {
			f.values[key] = stored
		}
		return err
	}
	return nil
}

// flush must be called with mu held
func (f *File) flush() error {
	data, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("[storage File.flush] %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".sessions-*")
	if err != nil {
		return fmt.Errorf("[storage File.flush] %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("[storage File.flush] %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("[storage File.flush] %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("[storage File.flush] %w", err)
	}
	return nil
}

// seal binds the ciphertext to its key so values cannot be swapped between keys
func (f *File) seal(key, value string) (string, error) {
	if f.aead == nil {
		return value, nil
	}
	nonce := make([]byte, f.aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("[storage File.seal] %w", err)
	}
	sealed := f.aead.Seal(nonce, nonce, []byte(value), []byte(key))
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

func (f *File) open(key, stored string) (string, error) {
	if f.aead == nil {
		return stored, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(stored)
	if err != nil || len(raw) < f.aead.NonceSize() {
		return "", fmt.Errorf("%w: %s", ErrCorruptValue, key)
	}
	nonce, ciphertext := raw[:f.aead.NonceSize()], raw[f.aead.NonceSize():]
	plain, err := f.aead.Open(nil, nonce, ciphertext, []byte(key))
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrCorruptValue, key)
	}
	return string(plain), nil
}
