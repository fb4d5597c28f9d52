package localstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/securexchat/client-go/internal/crypto"
)

// File and directory permissions used by File.
const (
	FileMode os.FileMode = 0o600
	DirMode  os.FileMode = 0o700
)

const plainVersion = 1

var (
	// ErrPassphraseRequired is returned when reading a sealed value from a
	// store opened without a passphrase.
	ErrPassphraseRequired = errors.New("value is sealed; passphrase required")

	// ErrWrongPassphrase is returned when a sealed value cannot be opened.
	ErrWrongPassphrase = errors.New("wrong passphrase or corrupted value")
)

var plainName = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// File stores one value per file under a directory.
type File struct {
	dir        string
	passphrase string
}

// FileOption configures a File store.
type FileOption func(*File)

// WithPassphrase seals every value written with a key derived from
// passphrase (argon2id, then ChaCha20-Poly1305).
func WithPassphrase(passphrase string) FileOption {
	return func(f *File) {
		f.passphrase = passphrase
	}
}

// NewFile opens a File store rooted at dir, creating it with mode 0700.
func NewFile(dir string, opts ...FileOption) (*File, error) {
	if dir == "" {
		return nil, errors.New("localstore: directory is required")
	}
	if err := os.MkdirAll(dir, DirMode); err != nil {
		return nil, fmt.Errorf("localstore: create %s: %w", dir, err)
	}
	f := &File{dir: dir}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Dir returns the store's directory.
func (f *File) Dir() string {
	return f.dir
}

// Sealed reports whether values are written sealed.
func (f *File) Sealed() bool {
	return f.passphrase != ""
}

type plainFile struct {
	Version int    `json:"version"`
	Value   string `json:"value"`
}

// probe tells the two layouts apart: a sealed file carries "kdf".
type probe struct {
	Version int    `json:"version"`
	KDF     string `json:"kdf"`
	Value   string `json:"value"`
}

func (f *File) path(key string) string {
	name := key
	if !plainName.MatchString(key) {
		name = "b64-" + crypto.ToBase64URL([]byte(key))
	}
	return filepath.Join(f.dir, name+".json")
}

// Get returns the value under key and whether it was present.
func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("localstore: read %s: %w", key, err)
	}

	var p probe
	if err := json.Unmarshal(data, &p); err != nil {
		return "", false, fmt.Errorf("localstore: decode %s: %w", key, err)
	}

	if p.KDF == "" {
		if p.Version != plainVersion {
			return "", false, fmt.Errorf("localstore: %s: unsupported version %d", key, p.Version)
		}
		return p.Value, true, nil
	}

	if f.passphrase == "" {
		return "", false, ErrPassphraseRequired
	}
	var sealed crypto.SealedSecret
	if err := json.Unmarshal(data, &sealed); err != nil {
		return "", false, fmt.Errorf("localstore: decode %s: %w", key, err)
	}
	pt, err := crypto.Open(f.passphrase, &sealed)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return "", false, ErrWrongPassphrase
		}
		return "", false, fmt.Errorf("localstore: open %s: %w", key, err)
	}
	return string(pt), true, nil
}

// Put stores value under key, replacing the file atomically.
func (f *File) Put(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var payload any = plainFile{Version: plainVersion, Value: value}
	if f.passphrase != "" {
		sealed, err := crypto.Seal(f.passphrase, []byte(value))
		if err != nil {
			return fmt.Errorf("localstore: seal %s: %w", key, err)
		}
		payload = sealed
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(f.path(key), data)
}

// Delete removes key. Deleting a missing key is not an error.
func (f *File) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := os.Remove(f.path(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("localstore: delete %s: %w", key, err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(FileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("localstore: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("localstore: %w", err)
	}
	return os.Rename(tmp.Name(), path)
}
