// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// User is a host account. It owns properties and the verifications run on them.
type User struct {
	ID               uuid.UUID        // The Global Unique Identifier (GUID) for the user.
	Email            string           // Lowercased login email, unique across accounts.
	PasswordHash     string           // bcrypt hash. Never leaves the domain layer.
	FirstName        *string          // Optional given name.
	LastName         *string          // Optional family name.
	Role             Role             // HOST by default.
	Avatar           *string          // Optional avatar URL.
	SubscriptionPlan SubscriptionPlan // FREE by default.
	TwoFactorSecret  *string          // Base32 TOTP secret, set once 2FA setup has started.
	TwoFactorEnabled bool             // True only after the secret has been confirmed with a valid code.
	LastLoginAt      *time.Time       // Set when a login opens a session, after any second factor.
	CreatedAt        time.Time        // Timestamp of when this user account was created.
	UpdatedAt        time.Time        // Timestamp of the last modification to this user's data.
}

// HasPendingTwoFactor reports whether a secret exists that has not been confirmed yet.
func (u *User) HasPendingTwoFactor() bool {
	return u.TwoFactorSecret != nil && !u.TwoFactorEnabled
}
