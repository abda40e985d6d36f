// Package ledger defines the typed failure conditions shared by the
// fundraising and distribution services. Every condition names the violated
// invariant; validation failures additionally carry a short code so callers
// can tell apart which field check fired.
package ledger

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownDeal                    = errors.New("unknown deal")
	ErrNotDaoMember                   = errors.New("wallet is not dao member")
	ErrInterestDiscoveryNotActive     = errors.New("interest discovery not active")
	ErrFundraisingNotAllowed          = errors.New("fundraising is not active")
	ErrOnlyPreregisteredAmountAllowed = errors.New("only pre-registered exact amount allowed")
	ErrMinimumNotMet                  = errors.New("minimum allocation not met")
	ErrMaximumNotMet                  = errors.New("maximum allocation not met")
	ErrTotalAllocationReached         = errors.New("total allocation reached")
	ErrInvalidAmount                  = errors.New("amount has to be positive")
	ErrNotEnoughTokens                = errors.New("not enough tokens")
	ErrRefundNotAllowed               = errors.New("refund is not allowed")
	ErrNothingToRefund                = errors.New("nothing to refund")
	ErrNothingToWithdraw              = errors.New("nothing to withdraw")
	ErrZeroAddress                    = errors.New("zero address")
	ErrOutOfBounds                    = errors.New("out of bounds")

	ErrDisabled                 = errors.New("distribution disabled")
	ErrInvalidMerkleProof       = errors.New("invalid merkle proof")
	ErrNothingToClaim           = errors.New("nothing to claim")
	ErrDataNotExists            = errors.New("data does not exist")
	ErrAddressAlreadyRedirected = errors.New("address already redirected")
	ErrInvalidSignature         = errors.New("invalid wallet change signature")
)

// Validation codes carried by InvalidDataError.
const (
	CodeDealToken       = "TOK"
	CodeDealMax         = "MAX"
	CodeDealMin         = "MIN"
	CodeDealUuid        = "IU"
	CodeDistUuid        = "DU"
	CodeDistToken       = "DT"
	CodeDistTokensTotal = "DTC"
	CodeDistTotalBelow  = "TT_TD"
	CodeDistDeposited   = "TD_AD"
	CodeDistTokenLocked = "RTC"
	CodeDistRootLocked  = "RMC"
	CodeChangeUuid      = "IWU"
	CodeChangeFrom      = "IWF"
	CodeChangeFromTo    = "IWFT"
	CodeChangeTo        = "IWT"
)

// InvalidDataError reports a field validation failure for a stored record.
type InvalidDataError struct {
	Entity string
	Code   string
}

func (e *InvalidDataError) Error() string {
	return fmt.Sprintf("invalid %s data: %s", e.Entity, e.Code)
}

// InvalidData builds an InvalidDataError for the given entity and code.
func InvalidData(entity, code string) error {
	return &InvalidDataError{Entity: entity, Code: code}
}

// InvalidParamsError reports invalid call parameters, such as a deposit
// that would push a distribution past its distributable budget.
type InvalidParamsError struct {
	Code string
}

func (e *InvalidParamsError) Error() string {
	return fmt.Sprintf("invalid params: %s", e.Code)
}

// DataAlreadyExistsError reports a uniqueness conflict on store.
type DataAlreadyExistsError struct {
	Code string
}

func (e *DataAlreadyExistsError) Error() string {
	return fmt.Sprintf("data already exists: %s", e.Code)
}

// AccessDeniedError reports a missing role grant.
type AccessDeniedError struct {
	Role   string
	Wallet string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("account %s is missing role %s", e.Wallet, e.Role)
}
