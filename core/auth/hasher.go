// Package auth hashes passwords and issues the signed bearer tokens that
// identify callers.
package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// ErrUnknownHashFormat is returned by Verify for hashes no hasher recognises.
var ErrUnknownHashFormat = errors.New("unknown password hash format")

// Hasher turns a password into a salted, encoded hash and checks
// candidates against stored hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Argon2id hashes with argon2id and encodes as
// argon2id$v=19$m=<KiB>,t=<passes>,p=<lanes>$<salt>$<key>.
type Argon2id struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

const argon2idPrefix = "argon2id$"

// DefaultArgon2id matches the cost parameters commonly used for interactive logins.
func DefaultArgon2id() Argon2id {
	return Argon2id{Time: 2, Memory: 100 * 1024, Threads: 8, SaltLen: 16, KeyLen: 32}
}

func (h Argon2id) Hash(password string) (string, error) {
	salt := make([]byte, h.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("failed to generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(password), salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	return fmt.Sprintf("argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

// Verify uses the parameters stored in encoded, not the receiver's.
func (Argon2id) Verify(password, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 5 || parts[0] != "argon2id" {
		return false, ErrUnknownHashFormat
	}
	var version int
	if _, err := fmt.Sscanf(parts[1], "v=%d", &version); err != nil || version != argon2.Version {
		return false, fmt.Errorf("unsupported argon2 version %q", parts[1])
	}
	var memory, passes uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[2], "m=%d,t=%d,p=%d", &memory, &passes, &threads); err != nil {
		return false, fmt.Errorf("malformed argon2 parameters: %w", err)
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[3])
	if err != nil {
		return false, fmt.Errorf("malformed argon2 salt: %w", err)
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, fmt.Errorf("malformed argon2 key: %w", err)
	}
	if memory == 0 || passes == 0 || threads == 0 || len(salt) == 0 || len(want) == 0 {
		return false, fmt.Errorf("invalid argon2 parameters %q", parts[2])
	}
	got := argon2.IDKey([]byte(password), salt, passes, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}

// Bcrypt hashes with bcrypt at Cost.
type Bcrypt struct {
	Cost int
}

func (h Bcrypt) Hash(password string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(bytes), nil
}

func (Bcrypt) Verify(password, encoded string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, err
	}
}

// Passwords hashes with its primary algorithm and verifies any supported
// format, so switching algorithms keeps existing accounts usable.
type Passwords struct {
	primary Hasher
	argon   Argon2id
	bcrypt  Bcrypt
}

// NewPasswords selects the primary algorithm by name: "argon2id" or "bcrypt".
func NewPasswords(name string) (*Passwords, error) {
	p := &Passwords{argon: DefaultArgon2id(), bcrypt: Bcrypt{Cost: bcrypt.DefaultCost}}
	switch name {
	case "", "argon2id":
		p.primary = p.argon
	case "bcrypt":
		p.primary = p.bcrypt
	default:
		return nil, fmt.Errorf("unsupported password hasher %q", name)
	}
	return p, nil
}

// WithPrimary returns p hashing with h.
func (p *Passwords) WithPrimary(h Hasher) *Passwords {
	cp := *p
	cp.primary = h
	if a, ok := h.(Argon2id); ok {
		cp.argon = a
	}
	return &cp
}

func (p *Passwords) Hash(password string) (string, error) {
	return p.primary.Hash(password)
}

func (p *Passwords) Verify(password, encoded string) (bool, error) {
	switch {
	case strings.HasPrefix(encoded, argon2idPrefix):
		return p.argon.Verify(password, encoded)
	case strings.HasPrefix(encoded, "$2"):
		return p.bcrypt.Verify(password, encoded)
	default:
		return false, ErrUnknownHashFormat
	}
}
