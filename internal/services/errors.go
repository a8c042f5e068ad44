package services

import (
	"net/http"

	apperrors "github.com/earlylookhq/earlylook/pkg/errors"
)

// Domain errors surfaced by the bookbuilding services. Every kind is
// recoverable by the caller; handlers render them verbatim.
var (
	// ErrDealNotFound indicates the referenced deal does not exist.
	ErrDealNotFound = apperrors.New("DEAL_NOT_FOUND", "Deal not found", http.StatusNotFound)
	// ErrDealNotOpen signals an IOI mutation attempted outside the open window.
	ErrDealNotOpen = apperrors.New("DEAL_NOT_OPEN", "Deal is not open for indications", http.StatusConflict)
	// ErrInvalidStateTransition rejects lifecycle moves outside draft -> open -> closed.
	ErrInvalidStateTransition = apperrors.New("INVALID_STATE_TRANSITION", "Deal cannot transition from its current status", http.StatusConflict)
	// ErrConstraintViolation covers structural failures such as the 3-7 band requirement.
	ErrConstraintViolation = apperrors.New("CONSTRAINT_VIOLATION", "Deal must have between 3 and 7 bands", http.StatusUnprocessableEntity)

	// ErrBandInvalid indicates the band is missing or belongs to another deal.
	ErrBandInvalid = apperrors.New("INVALID_BAND", "Band does not belong to this deal", http.StatusUnprocessableEntity)
	// ErrBandHasIOIs blocks deleting a band that indications already reference.
	ErrBandHasIOIs = apperrors.New("BAND_HAS_IOIS", "Cannot delete a band with existing indications", http.StatusConflict)
	// ErrBandsNotAdjacent rejects indicative ranges whose bands are not neighbours.
	ErrBandsNotAdjacent = apperrors.New("BANDS_NOT_ADJACENT", "Selected bands must be adjacent", http.StatusUnprocessableEntity)

	// ErrInvalidAmount rejects non-positive IOI amounts.
	ErrInvalidAmount = apperrors.New("INVALID_AMOUNT", "Indication amount must be positive", http.StatusUnprocessableEntity)
	// ErrAmountExceedsCap rejects amounts above the deal's per-investor cap.
	ErrAmountExceedsCap = apperrors.New("AMOUNT_EXCEEDS_CAP", "Indication amount exceeds the per-investor maximum", http.StatusUnprocessableEntity)

	// ErrIOINotFound indicates no active indication matches the id and owner.
	ErrIOINotFound = apperrors.New("IOI_NOT_FOUND", "Indication of interest not found", http.StatusNotFound)

	// ErrNotInvited denies investors without an accepted invitation to the deal.
	ErrNotInvited = apperrors.New("NOT_INVITED", "Investor does not hold an accepted invitation for this deal", http.StatusForbidden)

	// ErrInvitationNotFound indicates no invitation matches the provided token.
	ErrInvitationNotFound = apperrors.New("INVITATION_NOT_FOUND", "Invitation not found", http.StatusNotFound)
	// ErrInvitationExpired indicates the invitation token has expired.
	ErrInvitationExpired = apperrors.New("INVITATION_EXPIRED", "Invitation has expired", http.StatusGone)
	// ErrInvitationAlreadyUsed signals that the token was already accepted.
	ErrInvitationAlreadyUsed = apperrors.New("INVITATION_ALREADY_USED", "Invitation has already been accepted", http.StatusConflict)
	// ErrInvitationLimit caps invitations at ten per deal.
	ErrInvitationLimit = apperrors.New("INVITATION_LIMIT", "A deal can have at most 10 invitations", http.StatusUnprocessableEntity)

	// ErrUserNotFound indicates the referenced user does not exist.
	ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)
)
