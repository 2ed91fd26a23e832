package service

import (
	"context"
	"log/slog"

	"github.com/debtrail/debtrail/internal/apperrors"
	"github.com/debtrail/debtrail/internal/metrics"
	"github.com/debtrail/debtrail/internal/storage"
)

// LinkingService matches debts created against a bare phone number to
// identity records, in both directions: new debt to existing identity, and
// new identity to pre-existing unlinked debts.
//
// All matching runs on the canonical phone form. Idempotency under
// concurrent retries comes from the store's "debtor id is null" batch
// predicate, not from locking.
type LinkingService struct {
	store storage.Store
}

// NewLinkingService creates a new LinkingService backed by the given store.
func NewLinkingService(store storage.Store) *LinkingService {
	return &LinkingService{store: store}
}

// ResolveDebtor returns the id of the identity owning the canonical phone
// number, or "" when nobody has registered it yet. "No match" is an
// expected, common outcome, not an error.
func (s *LinkingService) ResolveDebtor(ctx context.Context, phoneNumber string) (string, error) {
	identity, err := s.store.FindIdentityByPhone(ctx, phoneNumber)
	if err != nil {
		return "", err
	}
	if identity == nil {
		return "", nil
	}
	return identity.ID, nil
}

// LinkNewDebtToIdentity attempts to attach a debt to the identity owning its
// debtor phone number. Reports whether a link was made; an unmatched phone
// number leaves the debt discoverable through the number alone.
func (s *LinkingService) LinkNewDebtToIdentity(ctx context.Context, debtID, phoneNumber string) (bool, error) {
	debtorID, err := s.ResolveDebtor(ctx, phoneNumber)
	if err != nil {
		slog.Error("LinkNewDebtToIdentity: resolution failed", "phone", phoneNumber, "error", err)
		return false, apperrors.External("failed to resolve debtor", err)
	}
	if debtorID == "" {
		return false, nil
	}

	debt, err := s.store.GetDebt(ctx, debtID)
	if err != nil {
		slog.Error("LinkNewDebtToIdentity: debt lookup failed", "debt_id", debtID, "error", err)
		return false, apperrors.External("failed to get debt", err)
	}
	if debt == nil {
		return false, apperrors.NotFoundf("debt not found: %s", debtID)
	}
	if debt.DebtorID != "" {
		// Already linked; linking is monotonic.
		return false, nil
	}

	debt.DebtorID = debtorID
	if err := s.store.UpdateDebt(ctx, debt); err != nil {
		slog.Error("LinkNewDebtToIdentity: update failed", "debt_id", debtID, "error", err)
		return false, apperrors.External("failed to link debt", err)
	}

	metrics.DebtsLinked.Inc()
	slog.Info("Debt linked to identity", "debt_id", debtID, "debtor_id", debtorID)
	return true, nil
}

// LinkIdentityToExistingDebts attaches the identity to every unlinked debt
// carrying its phone number, in one guarded batch update. Safe to re-run:
// a second sweep (or a racing duplicate, e.g. webhook retries) finds no
// unlinked debts to touch and links nothing twice.
func (s *LinkingService) LinkIdentityToExistingDebts(ctx context.Context, identityID, phoneNumber string) (int64, error) {
	linked, err := s.store.BatchLinkDebts(ctx, identityID, phoneNumber)
	if err != nil {
		slog.Error("LinkIdentityToExistingDebts failed", "identity_id", identityID, "phone", phoneNumber, "error", err)
		return 0, apperrors.External("failed to link debts", err)
	}

	if linked > 0 {
		metrics.DebtsLinked.Add(float64(linked))
		slog.Info("Linked existing debts to identity", "identity_id", identityID, "linked", linked)
	}
	return linked, nil
}

// LinkAllUnlinkedDebts sweeps every identity with a known phone number and
// links their outstanding unlinked debts. Intended as a periodic
// reconciliation job, not the hot path.
func (s *LinkingService) LinkAllUnlinkedDebts(ctx context.Context) (int64, error) {
	identities, err := s.store.ListIdentitiesWithPhone(ctx)
	if err != nil {
		slog.Error("LinkAllUnlinkedDebts: identity listing failed", "error", err)
		return 0, apperrors.External("failed to list identities", err)
	}

	var total int64
	for _, identity := range identities {
		linked, err := s.LinkIdentityToExistingDebts(ctx, identity.ID, identity.PhoneNumber)
		if err != nil {
			return total, err
		}
		total += linked
	}

	if total > 0 {
		slog.Info("Maintenance link sweep finished", "identities", len(identities), "linked", total)
	}
	return total, nil
}
