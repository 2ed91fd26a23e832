package service

import (
	"context"
	"log/slog"

	"github.com/debtrail/debtrail/internal/apperrors"
	"github.com/debtrail/debtrail/internal/metrics"
	"github.com/debtrail/debtrail/internal/models"
	"github.com/debtrail/debtrail/internal/phone"
	"github.com/debtrail/debtrail/internal/storage"
)

// ProfileService reconciles identity records against concurrent
// registration attempts. It performs an idempotent create-or-update that
// tolerates uniqueness races: the store's constraints are the serialization
// point, and each conflict kind gets at most one retry before surfacing as
// a ConflictError.
type ProfileService struct {
	store   storage.Store
	linking *LinkingService
}

// NewProfileService creates a new ProfileService with the given collaborators.
func NewProfileService(store storage.Store, linking *LinkingService) *ProfileService {
	return &ProfileService{store: store, linking: linking}
}

// ProfileCandidate carries the identity fields reported by the external
// identity provider on registration or profile edit.
type ProfileCandidate struct {
	ID          string
	Name        string
	Email       string
	PhoneNumber string
	AvatarURL   string
}

// CreateOrUpdate materializes the candidate as an identity record:
//
//   - an existing identity with the candidate's id gets its mutable fields
//     updated;
//   - otherwise the candidate is inserted, resolving uniqueness conflicts:
//     id conflict means another writer won the registration race (re-fetch
//     and return the winner); email conflict means the email's existing
//     owner wins (return that identity); phone conflict drops the phone
//     from the candidate and retries once, logging a warning.
//
// After a successful write, any unlinked debts carrying the identity's
// phone number are swept and attached. The sweep is re-runnable, so its
// failure is logged but does not fail the reconciliation.
func (s *ProfileService) CreateOrUpdate(ctx context.Context, candidate ProfileCandidate) (*models.Identity, error) {
	if candidate.ID == "" {
		return nil, apperrors.Validationf("identity id is required")
	}
	if candidate.PhoneNumber != "" {
		canonical, err := phone.Canonicalize(candidate.PhoneNumber)
		if err != nil {
			return nil, apperrors.Validationf("invalid phone number: %v", err)
		}
		candidate.PhoneNumber = canonical
	}

	existing, err := s.store.FindIdentityByID(ctx, candidate.ID)
	if err != nil {
		slog.Error("CreateOrUpdateProfile: lookup failed", "identity_id", candidate.ID, "error", err)
		return nil, apperrors.External("failed to look up identity", err)
	}

	var identity *models.Identity
	if existing != nil {
		identity, err = s.update(ctx, existing, candidate)
	} else {
		identity, err = s.insert(ctx, candidate)
	}
	if err != nil {
		return nil, err
	}

	if identity.PhoneNumber != "" {
		if _, err := s.linking.LinkIdentityToExistingDebts(ctx, identity.ID, identity.PhoneNumber); err != nil {
			slog.Warn("CreateOrUpdateProfile: link sweep failed, will be retried by maintenance",
				"identity_id", identity.ID, "error", err)
		}
	}

	return identity, nil
}

// update applies the candidate's mutable fields to an existing identity.
// A phone conflict drops the phone and retries once; an email conflict
// cannot be resolved by adoption on the update path and surfaces directly.
func (s *ProfileService) update(ctx context.Context, existing *models.Identity, candidate ProfileCandidate) (*models.Identity, error) {
	existing.Name = candidate.Name
	existing.Email = candidate.Email
	existing.PhoneNumber = candidate.PhoneNumber
	existing.AvatarURL = candidate.AvatarURL

	kind, err := s.store.UpdateIdentity(ctx, existing)
	if err != nil {
		slog.Error("CreateOrUpdateProfile: update failed", "identity_id", existing.ID, "error", err)
		return nil, apperrors.External("failed to update identity", err)
	}

	switch kind {
	case storage.ConflictNone:
		return existing, nil

	case storage.ConflictPhone:
		metrics.ProfileConflicts.WithLabelValues("phone").Inc()
		slog.Warn("Phone number already owned by another identity, dropping it",
			"identity_id", existing.ID, "phone", existing.PhoneNumber)
		existing.PhoneNumber = ""
		kind, err = s.store.UpdateIdentity(ctx, existing)
		if err != nil {
			return nil, apperrors.External("failed to update identity", err)
		}
		if kind != storage.ConflictNone {
			return nil, apperrors.Conflictf("contact detail already in use: %s", kind)
		}
		return existing, nil

	default:
		metrics.ProfileConflicts.WithLabelValues(kind.String()).Inc()
		return nil, apperrors.Conflictf("contact detail already in use: %s", kind)
	}
}

// insert materializes a brand-new identity, resolving at most one conflict
// per kind.
func (s *ProfileService) insert(ctx context.Context, candidate ProfileCandidate) (*models.Identity, error) {
	identity := &models.Identity{
		ID:          candidate.ID,
		Name:        candidate.Name,
		Email:       candidate.Email,
		PhoneNumber: candidate.PhoneNumber,
		AvatarURL:   candidate.AvatarURL,
	}

	kind, err := s.store.InsertIdentity(ctx, identity)
	if err != nil {
		slog.Error("CreateOrUpdateProfile: insert failed", "identity_id", identity.ID, "error", err)
		return nil, apperrors.External("failed to insert identity", err)
	}

	if kind == storage.ConflictPhone {
		metrics.ProfileConflicts.WithLabelValues("phone").Inc()
		slog.Warn("Phone number already owned by another identity, creating without it",
			"identity_id", identity.ID, "phone", identity.PhoneNumber)
		identity.PhoneNumber = ""
		kind, err = s.store.InsertIdentity(ctx, identity)
		if err != nil {
			return nil, apperrors.External("failed to insert identity", err)
		}
	}

	switch kind {
	case storage.ConflictNone:
		return identity, nil

	case storage.ConflictID:
		// Another writer created this identity between our lookup and
		// insert (registration race). The row exists; return it.
		metrics.ProfileConflicts.WithLabelValues("id").Inc()
		winner, err := s.store.FindIdentityByID(ctx, identity.ID)
		if err != nil {
			return nil, apperrors.External("failed to re-fetch identity", err)
		}
		if winner == nil {
			return nil, apperrors.Conflictf("identity %s raced and disappeared", identity.ID)
		}
		return winner, nil

	case storage.ConflictEmail:
		// A different identity already owns this email: email wins, return
		// the owner instead of the candidate.
		metrics.ProfileConflicts.WithLabelValues("email").Inc()
		owner, err := s.store.FindIdentityByEmail(ctx, identity.Email)
		if err != nil {
			return nil, apperrors.External("failed to fetch email owner", err)
		}
		if owner == nil {
			return nil, apperrors.Conflictf("email already in use")
		}
		slog.Info("Email already registered, returning existing identity",
			"candidate_id", candidate.ID, "owner_id", owner.ID)
		return owner, nil

	default:
		return nil, apperrors.Conflictf("contact detail already in use: %s", kind)
	}
}

// Get retrieves an identity by id.
func (s *ProfileService) Get(ctx context.Context, id string) (*models.Identity, error) {
	identity, err := s.store.FindIdentityByID(ctx, id)
	if err != nil {
		slog.Error("GetProfile failed", "identity_id", id, "error", err)
		return nil, apperrors.External("failed to get identity", err)
	}
	if identity == nil {
		return nil, apperrors.NotFoundf("identity not found: %s", id)
	}
	return identity, nil
}

// Delete removes an identity (explicit account deletion). Debts lent by the
// identity are removed with it; debts it owed keep their phone number for
// future re-linking.
func (s *ProfileService) Delete(ctx context.Context, id string) error {
	identity, err := s.store.FindIdentityByID(ctx, id)
	if err != nil {
		slog.Error("DeleteProfile: lookup failed", "identity_id", id, "error", err)
		return apperrors.External("failed to look up identity", err)
	}
	if identity == nil {
		return apperrors.NotFoundf("identity not found: %s", id)
	}

	if err := s.store.DeleteIdentity(ctx, id); err != nil {
		slog.Error("DeleteProfile failed", "identity_id", id, "error", err)
		return apperrors.External("failed to delete identity", err)
	}

	slog.Info("Identity deleted", "identity_id", id)
	return nil
}
