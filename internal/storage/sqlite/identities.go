package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/debtrail/debtrail/internal/models"
	"github.com/debtrail/debtrail/internal/storage"
)

const identityColumns = "id, name, email, phone_number, avatar_url, created_at, updated_at"

func scanIdentity(row *sql.Row) (*models.Identity, error) {
	identity := &models.Identity{}
	var email, phoneNumber, avatarURL sql.NullString

	err := row.Scan(&identity.ID, &identity.Name, &email, &phoneNumber, &avatarURL,
		&identity.CreatedAt, &identity.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // Identity not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan identity: %w", err)
	}

	identity.Email = email.String
	identity.PhoneNumber = phoneNumber.String
	identity.AvatarURL = avatarURL.String
	return identity, nil
}

// FindIdentityByID retrieves an identity by its id.
func (s *SQLiteStore) FindIdentityByID(ctx context.Context, id string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE id = ?", id)
	return scanIdentity(row)
}

// FindIdentityByEmail retrieves an identity by email.
func (s *SQLiteStore) FindIdentityByEmail(ctx context.Context, email string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE email = ?", email)
	return scanIdentity(row)
}

// FindIdentityByPhone retrieves an identity by canonical phone number.
func (s *SQLiteStore) FindIdentityByPhone(ctx context.Context, phoneNumber string) (*models.Identity, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE phone_number = ?", phoneNumber)
	return scanIdentity(row)
}

// InsertIdentity persists a new identity. Uniqueness violations come back as
// a typed ConflictKind with a nil error; other failures are returned as-is.
func (s *SQLiteStore) InsertIdentity(ctx context.Context, identity *models.Identity) (storage.ConflictKind, error) {
	now := time.Now().Unix()
	if identity.CreatedAt == 0 {
		identity.CreatedAt = now
	}
	identity.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO identities (id, name, email, phone_number, avatar_url, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		identity.ID, identity.Name, nullable(identity.Email), nullable(identity.PhoneNumber),
		nullable(identity.AvatarURL), identity.CreatedAt, identity.UpdatedAt,
	)
	if err != nil {
		if kind := classifyConflict(err); kind != storage.ConflictNone {
			return kind, nil
		}
		return storage.ConflictNone, fmt.Errorf("failed to insert identity: %w", err)
	}

	return storage.ConflictNone, nil
}

// UpdateIdentity updates the mutable fields of an existing identity, with
// the same conflict reporting as InsertIdentity.
func (s *SQLiteStore) UpdateIdentity(ctx context.Context, identity *models.Identity) (storage.ConflictKind, error) {
	identity.UpdatedAt = time.Now().Unix()

	res, err := s.db.ExecContext(ctx,
		`UPDATE identities
		 SET name = ?, email = ?, phone_number = ?, avatar_url = ?, updated_at = ?
		 WHERE id = ?`,
		identity.Name, nullable(identity.Email), nullable(identity.PhoneNumber),
		nullable(identity.AvatarURL), identity.UpdatedAt, identity.ID,
	)
	if err != nil {
		if kind := classifyConflict(err); kind != storage.ConflictNone {
			return kind, nil
		}
		return storage.ConflictNone, fmt.Errorf("failed to update identity: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return storage.ConflictNone, fmt.Errorf("failed to check update result: %w", err)
	}
	if rows == 0 {
		return storage.ConflictNone, fmt.Errorf("identity not found: %s", identity.ID)
	}

	return storage.ConflictNone, nil
}

// DeleteIdentity removes an identity. Debts lent by the identity cascade
// away with it; debts it owed keep their phone number and drop the link.
func (s *SQLiteStore) DeleteIdentity(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM identities WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete identity: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check delete result: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("identity not found: %s", id)
	}
	return nil
}

// ListIdentitiesWithPhone returns all identities that have a phone number
// on record, ordered by creation time.
func (s *SQLiteStore) ListIdentitiesWithPhone(ctx context.Context) ([]*models.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+identityColumns+" FROM identities WHERE phone_number IS NOT NULL ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("failed to list identities with phone: %w", err)
	}
	defer rows.Close()

	var identities []*models.Identity
	for rows.Next() {
		identity := &models.Identity{}
		var email, phoneNumber, avatarURL sql.NullString
		if err := rows.Scan(&identity.ID, &identity.Name, &email, &phoneNumber, &avatarURL,
			&identity.CreatedAt, &identity.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan identity: %w", err)
		}
		identity.Email = email.String
		identity.PhoneNumber = phoneNumber.String
		identity.AvatarURL = avatarURL.String
		identities = append(identities, identity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate identities: %w", err)
	}

	return identities, nil
}
