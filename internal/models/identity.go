package models

// Identity represents a registered user account.
//
// Email and PhoneNumber are each unique across all identities when set; an
// empty string means "not provided" and is stored as NULL so the uniqueness
// constraints only apply to real values.
type Identity struct {
	// ID is the stable, immutable identifier (UUID format). It is assigned
	// by the external identity provider at registration and never changes.
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address. Empty if not provided.
	Email string

	// PhoneNumber is the user's phone number in canonical +<country><subscriber>
	// form. Empty if not provided. This is the key debts are matched on.
	PhoneNumber string

	// AvatarURL points at the user's profile picture. Empty if not set.
	AvatarURL string

	// CreatedAt is the Unix timestamp when the identity was created.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last profile change.
	UpdatedAt int64
}
