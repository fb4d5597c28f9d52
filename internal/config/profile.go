package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Verification settings accepted in a profile.
const (
	VerifyNone     = "none"
	VerifyIfSigned = "if-signed"
	VerifyRequired = "required"
)

// ErrProfileNotFound is returned by LoadProfile when no profile exists.
var ErrProfileNotFound = errors.New("profile not found")

// Profile is the CLI's per-user configuration.
type Profile struct {
	AccountID    string `toml:"account_id"`
	ServerURL    string `toml:"server_url"`
	APIKey       string `toml:"api_key,omitempty"`
	KeyDir       string `toml:"key_dir,omitempty"`
	DirectoryKey string `toml:"directory_key,omitempty"`
	Verify       string `toml:"verify,omitempty"`
}

// DefaultProfilePath returns $XDG_CONFIG_HOME/securexchat/profile.toml, or
// the platform equivalent.
func DefaultProfilePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	return filepath.Join(dir, "securexchat", "profile.toml"), nil
}

// LoadProfile reads the profile at path. A relative key_dir is resolved
// against the profile's directory, and an empty one defaults to "keys"
// next to the profile.
func LoadProfile(path string) (*Profile, error) {
	var p Profile
	if _, err := toml.DecodeFile(path, &p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrProfileNotFound, path)
		}
		return nil, fmt.Errorf("decode profile %s: %w", path, err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	base := filepath.Dir(path)
	switch {
	case p.KeyDir == "":
		p.KeyDir = filepath.Join(base, "keys")
	case !filepath.IsAbs(p.KeyDir):
		p.KeyDir = filepath.Join(base, p.KeyDir)
	}
	if p.Verify == "" {
		p.Verify = VerifyNone
	}
	return &p, nil
}

// SaveProfile writes p to path, creating the directory with mode 0700 and
// the file with mode 0600.
func SaveProfile(path string, p *Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(p); err != nil {
		f.Close()
		return fmt.Errorf("encode profile: %w", err)
	}
	return f.Close()
}

// Validate checks required fields and the verify setting.
func (p *Profile) Validate() error {
	if p.AccountID == "" {
		return fmt.Errorf("%w: account_id is required", ErrInvalidConfig)
	}
	if p.ServerURL == "" {
		return fmt.Errorf("%w: server_url is required", ErrInvalidConfig)
	}
	switch p.Verify {
	case "", VerifyNone, VerifyIfSigned, VerifyRequired:
	default:
		return fmt.Errorf("%w: unknown verify mode %q", ErrInvalidConfig, p.Verify)
	}
	return nil
}
