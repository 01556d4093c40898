// Package keys resolves keypair references into signing keys. Keypair files
// use the solana-keygen layout: a JSON array with the 32 bytes seed followed
// by the 32 bytes public key.
package keys

import (
	"bytes"
	"crypto/ed25519"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/RogueTeam/volley/utils"
	"github.com/adrg/xdg"
	"github.com/gagliardetto/solana-go"
)

const (
	HomePrefix = "~/"
	KeyLength  = ed25519.PrivateKeySize
)

var (
	ErrKeyResolution    = errors.New("key resolution failed")
	ErrKeyNotFound      = errors.New("keypair file not found")
	ErrMalformedKey     = errors.New("malformed keypair file")
	ErrInvalidKeyLength = errors.New("invalid keypair length")
	ErrKeyMismatch      = errors.New("public key does not match secret")
	ErrKeyExists        = errors.New("keypair file already exists")
)

// Provider turns a reference into a signing key
type Provider interface {
	Resolve(ref string) (key solana.PrivateKey, err error)
}

// Filesystem resolves references as paths to keypair files
type Filesystem struct {
	// Directory substituted for the ~/ prefix. Defaults to the user's home
	Home string
}

var _ Provider = (*Filesystem)(nil)

// Path expands the home shorthand. Any other reference is returned as is
func (f *Filesystem) Path(ref string) (path string) {
	if !strings.HasPrefix(ref, HomePrefix) {
		return ref
	}

	home := f.Home
	if home == "" {
		home = xdg.Home
	}
	return filepath.Join(home, ref[len(HomePrefix):])
}

func (f *Filesystem) Resolve(ref string) (key solana.PrivateKey, err error) {
	path := f.Path(ref)

	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: %s", ErrKeyResolution, ErrKeyNotFound, path)
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrKeyResolution, path, err)
	}

	key, err = Parse(contents)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrKeyResolution, path, err)
	}
	return key, nil
}

// Parse decodes the contents of a keypair file
func Parse(contents []byte) (key solana.PrivateKey, err error) {
	var values []int
	err = json.Unmarshal(contents, &values)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedKey, err)
	}

	for index, value := range values {
		if value < 0 || value > 0xFF {
			return nil, fmt.Errorf("%w: byte %d out of range: %d", ErrMalformedKey, index, value)
		}
	}

	if len(values) != KeyLength {
		return nil, fmt.Errorf("%w: expecting %d bytes, got %d", ErrInvalidKeyLength, KeyLength, len(values))
	}

	raw := utils.MapInt[int, byte](values)

	derived := ed25519.NewKeyFromSeed(raw[:ed25519.SeedSize])
	if !bytes.Equal(derived[ed25519.SeedSize:], raw[ed25519.SeedSize:]) {
		return nil, ErrKeyMismatch
	}

	return solana.PrivateKey(raw), nil
}

// Encode produces the contents of a keypair file
func Encode(key solana.PrivateKey) (contents []byte, err error) {
	return json.Marshal(utils.MapInt[byte, int](key))
}

// Generate writes a new keypair file at path. Existing files are never overwritten
func Generate(path string) (key solana.PrivateKey, err error) {
	key, err = solana.NewRandomPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("failed to generate keypair: %w", err)
	}

	contents, err := Encode(key)
	if err != nil {
		return nil, fmt.Errorf("failed to encode keypair: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("%w: %s", ErrKeyExists, path)
		}
		return nil, fmt.Errorf("failed to create keypair file: %w", err)
	}
	defer file.Close()

	_, err = file.Write(contents)
	if err != nil {
		return nil, fmt.Errorf("failed to write keypair file: %w", err)
	}
	return key, nil
}
