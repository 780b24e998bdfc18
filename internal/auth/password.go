// Password hashing.
//
// bcrypt generates a random salt per hash and embeds salt and cost in its
// output, so the whole string goes into users.password_hash:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 iterations)
//	 version

package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// WHY A CONFIGURABLE COST?
// Each +1 doubles the hashing time. 12 takes roughly 250ms on current
// hardware, which is tolerable once per login and expensive for an attacker
// replaying a leaked users table. Tests drop to bcrypt.MinCost so a suite
// with dozens of logins stays fast; production config refuses anything
// below MinProductionCost.
const (
	// DefaultCost is the bcrypt work factor used when BCRYPT_COST is unset.
	DefaultCost = 12

	// MinProductionCost is the lowest cost accepted from configuration.
	MinProductionCost = 10
)

// MaxPasswordBytes is bcrypt's input limit. Longer passwords would be
// silently truncated, so they are rejected instead.
const MaxPasswordBytes = 72

// ErrPasswordMismatch is returned by Verify when the password is wrong.
var ErrPasswordMismatch = errors.New("auth: invalid password")

// PasswordService provides bcrypt hashing and verification.
//
// The cost is a field so tests can run at bcrypt.MinCost (4).
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the given bcrypt cost.
func NewPasswordService(cost int) (*PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d outside [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordService{cost: cost}, nil
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns an error if the plaintext is longer than MaxPasswordBytes.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > MaxPasswordBytes {
		return "", fmt.Errorf("auth: password must be %d bytes or fewer", MaxPasswordBytes)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// Returns nil on match and ErrPasswordMismatch on a wrong password. Any other
// error means the stored hash is unusable.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrPasswordMismatch
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}
