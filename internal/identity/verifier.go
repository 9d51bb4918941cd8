package identity

import (
	"context"
	"fmt"

	"github.com/police-portal/platform/internal/adapters/registry"
	"github.com/police-portal/platform/internal/shared/errors"
	"github.com/police-portal/platform/internal/shared/types"
)

// Verifier cross-checks person details against registered users and,
// when configured, the national civil registry.
type Verifier struct {
	repo     *Repository
	registry registry.Registry
}

// NewVerifier creates a new identity verifier. The registry may be nil
// when no civil registry connection is configured.
func NewVerifier(repo *Repository, reg registry.Registry) *Verifier {
	return &Verifier{repo: repo, registry: reg}
}

// VerifyWitness checks that a supplied witness corresponds to a
// registered user: the national ID must resolve to a user, the phone
// must match exactly, and a supplied full name must match after
// normalization. Returns the resolved full name and matched user ID.
func (v *Verifier) VerifyWitness(ctx context.Context, fullName, phone, nationalID string) (string, types.ID, error) {
	user, err := v.repo.GetByNationalID(ctx, nationalID)
	if err != nil {
		if appErr, ok := err.(*errors.AppError); ok && appErr.Code == "not_found" {
			return "", "", errors.Validation(
				fmt.Sprintf("witness with national ID %q must be a registered user", nationalID), nil)
		}
		return "", "", err
	}

	if user.Phone != phone {
		return "", "", errors.Validation(
			fmt.Sprintf("witness phone for national ID %q does not match the registered user", nationalID), nil)
	}

	expected := user.FullName()
	if fullName != "" && NormalizeName(fullName) != NormalizeName(expected) {
		return "", "", errors.Validation(
			fmt.Sprintf("witness full name for national ID %q does not match the registered user", nationalID), nil)
	}

	resolved := fullName
	if resolved == "" {
		resolved = expected
	}

	return resolved, user.ID, nil
}

// VerifyRegistration validates registration details. The national ID
// checksum is always checked; the civil registry, when available, must
// also hold a matching person record.
func (v *Verifier) VerifyRegistration(ctx context.Context, req RegisterRequest) error {
	nid, err := types.ParseNationalID(req.NationalID)
	if err != nil {
		return errors.Validation(err.Error(), map[string]string{"national_id": req.NationalID})
	}

	if v.registry == nil {
		return nil
	}

	person, err := v.registry.Lookup(ctx, nid.String())
	if err != nil {
		if err == registry.ErrNotFound {
			return errors.Validation("national ID not found in the civil registry",
				map[string]string{"national_id": nid.Masked()})
		}
		// The registry is an auxiliary system; a connectivity failure
		// must not block registration
		return nil
	}

	registered := NormalizeName(person.FirstName + " " + person.LastName)
	supplied := NormalizeName(req.FirstName + " " + req.LastName)
	if supplied != "" && registered != supplied {
		return errors.Validation("name does not match the civil registry record",
			map[string]string{"national_id": nid.Masked()})
	}

	return nil
}
