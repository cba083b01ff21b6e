// AngelaMos | 2026
// security.go

package core

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/argon2"
)

var ErrMalformedHash = errors.New("malformed password hash")

// passwordParams are the argon2id cost settings encoded into every stored
// hash. Hashes written with other settings are upgraded on next login.
type passwordParams struct {
	memory  uint32
	time    uint32
	threads uint8
	keyLen  uint32
}

var currentParams = passwordParams{
	memory:  64 * 1024,
	time:    1,
	threads: 4,
	keyLen:  32,
}

const saltLength = 16

var b64 = base64.RawStdEncoding

// HashPassword returns a PHC-formatted argon2id hash with a fresh salt.
func HashPassword(password string) (string, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	p := currentParams
	key := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)

	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, p.memory, p.time, p.threads,
		b64.EncodeToString(salt), b64.EncodeToString(key),
	), nil
}

func VerifyPassword(password, encodedHash string) (bool, error) {
	p, salt, want, err := parseHash(encodedHash)
	if err != nil {
		return false, err
	}

	got := argon2.IDKey([]byte(password), salt, p.time, p.memory, p.threads, p.keyLen)
	return subtle.ConstantTimeCompare(want, got) == 1, nil
}

// VerifyPasswordWithRehash also returns a replacement hash when the stored
// one was produced with outdated parameters. A failed rehash is not an
// error; the login still succeeds and the upgrade is retried next time.
func VerifyPasswordWithRehash(password, encodedHash string) (bool, string, error) {
	ok, err := VerifyPassword(password, encodedHash)
	if err != nil || !ok {
		return false, "", err
	}

	if !needsRehash(encodedHash) {
		return true, "", nil
	}

	upgraded, err := HashPassword(password)
	if err != nil {
		return true, "", nil //nolint:nilerr // verified; upgrade is best effort
	}
	return true, upgraded, nil
}

var dummyHash = sync.OnceValue(func() string {
	h, err := HashPassword("tenant-platform-timing-equalizer")
	if err != nil {
		panic(fmt.Sprintf("security: dummy hash: %v", err))
	}
	return h
})

// VerifyPasswordTimingSafe spends the same argon2 work whether or not the
// account has a password, so unknown and federated accounts are not
// distinguishable by response time.
func VerifyPasswordTimingSafe(password string, encodedHash *string) (bool, string, error) {
	if encodedHash == nil || *encodedHash == "" {
		_, _, _ = VerifyPasswordWithRehash(password, dummyHash())
		return false, "", nil
	}

	return VerifyPasswordWithRehash(password, *encodedHash)
}

func parseHash(encoded string) (passwordParams, []byte, []byte, error) {
	var p passwordParams

	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return p, nil, nil, ErrMalformedHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return p, nil, nil, fmt.Errorf("%w: version %q", ErrMalformedHash, parts[2])
	}

	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &p.memory, &p.time, &p.threads); err != nil {
		return p, nil, nil, fmt.Errorf("%w: params: %v", ErrMalformedHash, err)
	}

	salt, err := b64.DecodeString(parts[4])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: salt: %v", ErrMalformedHash, err)
	}

	key, err := b64.DecodeString(parts[5])
	if err != nil {
		return p, nil, nil, fmt.Errorf("%w: key: %v", ErrMalformedHash, err)
	}

	//nolint:gosec // G115: argon2 key lengths are tiny
	p.keyLen = uint32(len(key))

	return p, salt, key, nil
}

func needsRehash(encoded string) bool {
	p, _, _, err := parseHash(encoded)
	return err != nil || p != currentParams
}

// GenerateSecureToken returns length random bytes, URL-safe base64 encoded.
func GenerateSecureToken(length int) (string, error) {
	buf := make([]byte, length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return base64.URLEncoding.EncodeToString(buf), nil
}

// SecretsEqual compares two shared secrets without leaking their length
// difference through timing.
func SecretsEqual(given, expected string) bool {
	g := sha256.Sum256([]byte(given))
	e := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(g[:], e[:]) == 1
}
