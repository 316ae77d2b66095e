// Package cryptox provides the pluggable credential hashing capability.
// Accounts never store plaintext credentials; they store the encoded
// output of a Hasher and are checked with Verify.
package cryptox

import (
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/fxkeeper/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrMalformedHash is returned when an encoded hash cannot be parsed.
	ErrMalformedHash = errors.New("malformed credential hash")
	// ErrCredentialTooLong is returned by Hash when the credential exceeds
	// what the algorithm can take into account.
	ErrCredentialTooLong = errors.New("credential too long for hasher")
)

// BcryptMaxBytes is the longest credential bcrypt accepts.
const BcryptMaxBytes = 72

// Hasher turns a credential into a self-describing encoded hash and checks
// candidates against it. Verify must run in time independent of where a
// mismatch occurs.
type Hasher interface {
	Hash(credential string) (string, error)
	Verify(encoded, credential string) bool
}

// NewHasher returns the hasher registered under kind: "argon2" or "bcrypt".
func NewHasher(kind string) (Hasher, error) {
	switch strings.ToLower(kind) {
	case "", "argon2", "argon2id":
		return NewArgon2Hasher(), nil
	case "bcrypt":
		return &BcryptHasher{Cost: bcrypt.DefaultCost}, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", kind)
	}
}

// Argon2Hasher derives keys with argon2id. The encoded form follows the
// PHC string format: $argon2id$v=19$m=<KiB>,t=<time>,p=<threads>$<salt>$<key>.
type Argon2Hasher struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
	SaltLen int
}

// NewArgon2Hasher uses the same parameters as the master key derivation of
// the sync client: one pass, 64 MiB, four lanes, 32-byte key.
func NewArgon2Hasher() *Argon2Hasher {
	return &Argon2Hasher{Time: 1, Memory: 64 * 1024, Threads: 4, KeyLen: 32, SaltLen: 16}
}

func (h *Argon2Hasher) Hash(credential string) (string, error) {
	salt := common.GenerateRandByteArray(h.SaltLen)
	key := argon2.IDKey([]byte(credential), salt, h.Time, h.Memory, h.Threads, h.KeyLen)
	defer common.WipeByteArray(key)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, h.Memory, h.Time, h.Threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key)), nil
}

func (h *Argon2Hasher) Verify(encoded, credential string) bool {
	p, err := parseArgon2(encoded)
	if err != nil {
		return false
	}
	candidate := argon2.IDKey([]byte(credential), p.salt, p.time, p.memory, p.threads, uint32(len(p.key)))
	defer common.WipeByteArray(candidate)
	return subtle.ConstantTimeCompare(candidate, p.key) == 1
}

type argon2Params struct {
	memory  uint32
	time    uint32
	threads uint8
	salt    []byte
	key     []byte
}

func parseArgon2(encoded string) (*argon2Params, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return nil, ErrMalformedHash
	}

	p := &argon2Params{}
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return nil, ErrMalformedHash
	}

	var err error
	if p.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil {
		return nil, ErrMalformedHash
	}
	if p.key, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return nil, ErrMalformedHash
	}
	return p, nil
}

// BcryptHasher stores credentials as bcrypt hashes. bcrypt only looks at the
// first 72 bytes, so longer credentials are rejected by Hash.
type BcryptHasher struct {
	Cost int
}

func (h *BcryptHasher) Hash(credential string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(credential), h.Cost)
	if errors.Is(err, bcrypt.ErrPasswordTooLong) {
		return "", fmt.Errorf("%w: limit is %d bytes", ErrCredentialTooLong, BcryptMaxBytes)
	}
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(encoded, credential string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(credential)) == nil
}
