package services

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
	"github.com/daofund-lab/fundraising-ledger/internal/rbac"
)

// FundraisingService handles binding deposits, refunds and operator
// withdrawals for deals. All mutations run as single transactions: cap
// checks re-read current state and token movement happens only after every
// check has passed.
type FundraisingService interface {
	Purchase(caller common.Address, dealUuid string, amount *models.Amount) error
	Refund(caller common.Address, dealUuid string) error
	WithdrawFundraisedTokens(caller common.Address, dealUuid string, target common.Address) error

	WalletDeposit(dealUuid string, wallet common.Address) (*models.Amount, error)
	DealDeposits(dealUuid string) (*models.Amount, error)
	DealWithdrawals(dealUuid string) (*models.Amount, error)
	DealDepositorCount(dealUuid string) (int64, error)
}

type fundraisingService struct {
	db         *gorm.DB
	policy     *rbac.Policy
	membership MembershipService
	interests  InterestService
	// account is the ledger address holding collected deposits.
	account common.Address
}

// NewFundraisingService creates a new FundraisingService
func NewFundraisingService(db *gorm.DB, policy *rbac.Policy, membership MembershipService, interests InterestService, account common.Address) FundraisingService {
	return &fundraisingService{
		db:         db,
		policy:     policy,
		membership: membership,
		interests:  interests,
		account:    account,
	}
}

// Purchase deposits amount of the deal's collected token for the caller.
// During the registered-only round the amount must consume the caller's
// remaining pre-registered interest exactly; during the open round the
// caller's cumulative deposit must end up within [min, max].
func (s *fundraisingService) Purchase(caller common.Address, dealUuid string, amount *models.Amount) error {
	isMember, err := s.membership.HasCommunityNft(caller)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		deal, err := loadDeal(tx, dealUuid)
		if err != nil {
			return err
		}
		if !isMember {
			return ledger.ErrNotDaoMember
		}
		if amount.IsZero() {
			return ledger.ErrInvalidAmount
		}

		wallet := caller.Hex()
		balance, err := tokenBalanceOf(tx, deal.CollectedToken, wallet)
		if err != nil {
			return err
		}
		if balance.Cmp(amount) < 0 {
			return ledger.ErrNotEnoughTokens
		}

		if !deal.FundraisingActiveForRegistered && !deal.FundraisingActiveForEveryone {
			return ledger.ErrFundraisingNotAllowed
		}

		deposited := models.ZeroAmount()
		var record models.DealDeposit
		err = tx.Where("deal_uuid = ? AND wallet = ?", dealUuid, wallet).First(&record).Error
		if err == nil {
			deposited = record.Amount
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load deposit: %w", err)
		}

		if !deal.FundraisingActiveForEveryone {
			// Registered-only round: one purchase consuming the full
			// remaining pre-registered amount.
			registered, err := s.interests.WalletInterest(dealUuid, caller)
			if err != nil {
				return err
			}
			remaining := registered.Sub(deposited)
			if remaining.IsZero() || amount.Cmp(remaining) != 0 {
				return ledger.ErrOnlyPreregisteredAmountAllowed
			}
		} else {
			// Open round: the minimum applies to the cumulative wallet
			// total after the call, so top-ups below the minimum are fine.
			newDeposit := deposited.Add(amount)
			if newDeposit.Cmp(deal.MinAllocation) < 0 {
				return ledger.ErrMinimumNotMet
			}
			if newDeposit.Cmp(deal.MaxAllocation) > 0 {
				return ledger.ErrMaximumNotMet
			}
		}

		state, err := fundraisingState(tx, dealUuid)
		if err != nil {
			return err
		}
		if state.Deposited.Add(amount).Cmp(deal.TotalAllocation) > 0 {
			return ledger.ErrTotalAllocationReached
		}

		// Checks done, apply effects.
		if err := tokenTransfer(tx, deal.CollectedToken, wallet, s.account.Hex(), amount); err != nil {
			return err
		}

		if record.ID == 0 {
			record = models.DealDeposit{DealUuid: dealUuid, Wallet: wallet, Amount: amount}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
			state.DepositorCount++
		} else if err := tx.Model(&record).Update("amount", deposited.Add(amount)).Error; err != nil {
			return err
		}

		state.Deposited = state.Deposited.Add(amount)
		return storeFundraisingState(tx, state)
	})
}

// Refund returns the caller's full deposit when the deal allows refunds.
func (s *fundraisingService) Refund(caller common.Address, dealUuid string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		deal, err := loadDeal(tx, dealUuid)
		if err != nil {
			return err
		}
		if !deal.RefundAllowed {
			return ledger.ErrRefundNotAllowed
		}

		wallet := caller.Hex()
		var record models.DealDeposit
		err = tx.Where("deal_uuid = ? AND wallet = ?", dealUuid, wallet).First(&record).Error
		if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && record.Amount.IsZero()) {
			return ledger.ErrNothingToRefund
		}
		if err != nil {
			return fmt.Errorf("failed to load deposit: %w", err)
		}

		state, err := fundraisingState(tx, dealUuid)
		if err != nil {
			return err
		}
		newTotal, err := state.Deposited.SubChecked(record.Amount)
		if err != nil {
			return fmt.Errorf("deal deposit accounting underflow: %w", err)
		}

		refund := record.Amount
		if err := tx.Model(&record).Update("amount", models.ZeroAmount()).Error; err != nil {
			return err
		}
		state.Deposited = newTotal
		if err := storeFundraisingState(tx, state); err != nil {
			return err
		}

		return tokenTransfer(tx, deal.CollectedToken, s.account.Hex(), wallet, refund)
	})
}

// WithdrawFundraisedTokens sends the unwithdrawn remainder of a deal's
// deposits to target. Withdrawals are cumulative: each call pays only the
// delta collected since the previous one.
func (s *fundraisingService) WithdrawFundraisedTokens(caller common.Address, dealUuid string, target common.Address) error {
	if err := s.policy.Require(rbac.RoleOwner, caller); err != nil {
		return err
	}
	if target == (common.Address{}) {
		return ledger.ErrZeroAddress
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		deal, err := loadDeal(tx, dealUuid)
		if err != nil {
			return err
		}

		state, err := fundraisingState(tx, dealUuid)
		if err != nil {
			return err
		}
		available, err := state.Deposited.SubChecked(state.Withdrawn)
		if err != nil {
			return fmt.Errorf("deal withdrawal accounting underflow: %w", err)
		}
		if available.IsZero() {
			return ledger.ErrNothingToWithdraw
		}

		state.Withdrawn = state.Withdrawn.Add(available)
		if err := storeFundraisingState(tx, state); err != nil {
			return err
		}

		return tokenTransfer(tx, deal.CollectedToken, s.account.Hex(), target.Hex(), available)
	})
}

func (s *fundraisingService) WalletDeposit(dealUuid string, wallet common.Address) (*models.Amount, error) {
	var record models.DealDeposit
	err := s.db.Where("deal_uuid = ? AND wallet = ?", dealUuid, wallet.Hex()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ZeroAmount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deposit: %w", err)
	}
	return record.Amount, nil
}

func (s *fundraisingService) DealDeposits(dealUuid string) (*models.Amount, error) {
	state, err := fundraisingState(s.db, dealUuid)
	if err != nil {
		return nil, err
	}
	return state.Deposited, nil
}

func (s *fundraisingService) DealWithdrawals(dealUuid string) (*models.Amount, error) {
	state, err := fundraisingState(s.db, dealUuid)
	if err != nil {
		return nil, err
	}
	return state.Withdrawn, nil
}

func (s *fundraisingService) DealDepositorCount(dealUuid string) (int64, error) {
	state, err := fundraisingState(s.db, dealUuid)
	if err != nil {
		return 0, err
	}
	return state.DepositorCount, nil
}

func fundraisingState(tx *gorm.DB, dealUuid string) (*models.DealFundraisingState, error) {
	var state models.DealFundraisingState
	err := tx.Where("deal_uuid = ?", dealUuid).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.DealFundraisingState{
			DealUuid:  dealUuid,
			Deposited: models.ZeroAmount(),
			Withdrawn: models.ZeroAmount(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load fundraising state: %w", err)
	}
	return &state, nil
}

func storeFundraisingState(tx *gorm.DB, state *models.DealFundraisingState) error {
	if state.ID == 0 {
		return tx.Create(state).Error
	}
	return tx.Model(state).Updates(map[string]interface{}{
		"deposited":       state.Deposited,
		"withdrawn":       state.Withdrawn,
		"depositor_count": state.DepositorCount,
	}).Error
}
