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

// PasswordHasher hashes and verifies passwords with bcrypt or argon2id.
// Verify never fails loudly: a malformed hash is simply a mismatch.
type PasswordHasher interface {
	Hash(pw string) (string, error)
	Verify(hash, pw string) bool
	NeedsRehash(hash string) bool
}

const (
	AlgoBcrypt   = "bcrypt"
	AlgoArgon2id = "argon2id"
)

// HasherConfig selects and tunes the password hashing algorithm.
type HasherConfig struct {
	Algorithm     string
	BcryptCost    int
	Argon2Time    uint32
	Argon2Memory  uint32 // KiB
	Argon2Threads uint8
}

// ApplyDefaults fills zero-valued fields.
func (c *HasherConfig) ApplyDefaults() {
	if c.Algorithm == "" {
		c.Algorithm = AlgoBcrypt
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 10
	}
	if c.Argon2Time == 0 {
		c.Argon2Time = 3
	}
	if c.Argon2Memory == 0 {
		c.Argon2Memory = 64 * 1024
	}
	if c.Argon2Threads == 0 {
		c.Argon2Threads = 2
	}
}

// Validate checks the configuration.
func (c HasherConfig) Validate() error {
	switch c.Algorithm {
	case AlgoBcrypt, AlgoArgon2id:
	default:
		return fmt.Errorf("unsupported password algorithm: %q (use bcrypt or argon2id)", c.Algorithm)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost must be between %d and %d (got %d)", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}

// NewHasher builds a hasher that hashes with the algorithm named by cfg and
// verifies digests of either algorithm, so switching PASSWORD_ALGO keeps
// existing users able to log in. Their digests are replaced on next login.
func NewHasher(cfg HasherConfig) PasswordHasher {
	cfg.ApplyDefaults()
	return &MultiHasher{
		Algorithm: cfg.Algorithm,
		Bcrypt:    BcryptHasher{Cost: cfg.BcryptCost},
		Argon2:    &Argon2Hasher{Time: cfg.Argon2Time, Memory: cfg.Argon2Memory, Threads: cfg.Argon2Threads, SaltLen: 16, KeyLen: 32},
	}
}

// MultiHasher picks the algorithm for Verify from the digest prefix and hashes
// new passwords with Algorithm.
type MultiHasher struct {
	Algorithm string
	Bcrypt    BcryptHasher
	Argon2    *Argon2Hasher
}

func (m *MultiHasher) primary() PasswordHasher {
	if m.Algorithm == AlgoArgon2id {
		return m.Argon2
	}
	return m.Bcrypt
}

// digestAlgo names the algorithm of a stored digest, or "" when unknown.
func digestAlgo(hash string) string {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return AlgoArgon2id
	case strings.HasPrefix(hash, "$2"):
		return AlgoBcrypt
	default:
		return ""
	}
}

func (m *MultiHasher) Hash(pw string) (string, error) {
	return m.primary().Hash(pw)
}

func (m *MultiHasher) Verify(hash, pw string) bool {
	switch digestAlgo(hash) {
	case AlgoArgon2id:
		return m.Argon2.Verify(hash, pw)
	case AlgoBcrypt:
		return m.Bcrypt.Verify(hash, pw)
	default:
		return false
	}
}

// NeedsRehash is true for digests of the other algorithm as well as for
// stale parameters of the configured one.
func (m *MultiHasher) NeedsRehash(hash string) bool {
	if digestAlgo(hash) != m.Algorithm {
		return true
	}
	return m.primary().NeedsRehash(hash)
}

// BcryptHasher implementation.
type BcryptHasher struct{ Cost int }

func (b BcryptHasher) cost() int {
	if b.Cost == 0 {
		return bcrypt.DefaultCost
	}
	return b.Cost
}

func (b BcryptHasher) Hash(pw string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(pw), b.cost())
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (b BcryptHasher) Verify(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}

// NeedsRehash reports whether hash was produced with a different cost or algorithm.
func (b BcryptHasher) NeedsRehash(hash string) bool {
	c, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return true
	}
	return c != b.cost()
}

// Argon2Hasher stores PHC strings: $argon2id$v=19$m=65536,t=3,p=2$<salt>$<key>.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	SaltLen uint32
	KeyLen  uint32
}

func (a *Argon2Hasher) Hash(pw string) (string, error) {
	salt := make([]byte, a.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}
	key := argon2.IDKey([]byte(pw), salt, a.Time, a.Memory, a.Threads, a.KeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, a.Memory, a.Time, a.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (a *Argon2Hasher) Verify(hash, pw string) bool {
	p, salt, key, err := decodeArgon2(hash)
	if err != nil {
		return false
	}
	got := argon2.IDKey([]byte(pw), salt, p.Time, p.Memory, p.Threads, uint32(len(key)))
	return subtle.ConstantTimeCompare(key, got) == 1
}

func (a *Argon2Hasher) NeedsRehash(hash string) bool {
	p, _, key, err := decodeArgon2(hash)
	if err != nil {
		return true
	}
	return p.Time != a.Time || p.Memory != a.Memory || p.Threads != a.Threads || uint32(len(key)) != a.KeyLen
}

var errBadArgon2Hash = errors.New("invalid argon2id hash")

func decodeArgon2(encoded string) (*Argon2Hasher, []byte, []byte, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != AlgoArgon2id {
		return nil, nil, nil, errBadArgon2Hash
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, nil, nil, errBadArgon2Hash
	}
	p := &Argon2Hasher{}
	var threads int
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.Memory, &p.Time, &threads); err != nil {
		return nil, nil, nil, errBadArgon2Hash
	}
	if threads < 1 || threads > 255 || p.Time == 0 {
		return nil, nil, nil, errBadArgon2Hash
	}
	p.Threads = uint8(threads)
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return nil, nil, nil, errBadArgon2Hash
	}
	key, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(key) == 0 {
		return nil, nil, nil, errBadArgon2Hash
	}
	return p, salt, key, nil
}
