package service

import (
	"context"
	"errors"
	"log"

	"rideid/internal/repository"
)

// LinkService merges a placeholder driver identity into the permanent
// record once the real driver completes phone verification.
type LinkService struct {
	identityRepo repository.IdentityRepository
	driverRepo   repository.DriverRepository
}

// NewLinkService creates a new LinkService.
func NewLinkService(identityRepo repository.IdentityRepository, driverRepo repository.DriverRepository) *LinkService {
	return &LinkService{
		identityRepo: identityRepo,
		driverRepo:   driverRepo,
	}
}

// Link consumes the placeholder at tempUserID into an identity keyed by
// subjectID and updates the originating driver record. The placeholder
// consumption is atomic at the store: when two links race, exactly one
// succeeds and the other gets ErrPlaceholderNotFound.
func (s *LinkService) Link(ctx context.Context, tempUserID, subjectID string) (string, error) {
	if subjectID == "" {
		return "", ErrInvalidSubjectID
	}
	if tempUserID == "" {
		return "", ErrPlaceholderNotFound
	}

	linked, err := s.identityRepo.ConsumePlaceholder(ctx, tempUserID, subjectID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPlaceholderNotFound
		}
		return "", err
	}

	// The identity is committed at this point. A driver update failure
	// leaves a linked identity with an unlinked driver record; that is a
	// recoverable inconsistency and must be reported, not swallowed.
	if linked.DriverID != "" {
		if err := s.driverRepo.SetAuthLink(ctx, linked.DriverID, subjectID); err != nil {
			log.Printf("[LINK] defect: identity %s linked but driver %s update failed: %v",
				subjectID, linked.DriverID, err)
			return subjectID, ErrDriverLinkIncomplete
		}
	}

	return subjectID, nil
}
