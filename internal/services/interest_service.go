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

// InterestService tracks non-binding interest registrations against deal
// caps during the discovery phase.
type InterestService interface {
	RegisterInterest(caller common.Address, dealUuid string, amount *models.Amount) error
	ImportOldDealInterests(caller common.Address, dealUuid string, wallets []common.Address, amounts []*models.Amount) error
	WalletInterest(dealUuid string, wallet common.Address) (*models.Amount, error)
	DealTotalInterest(dealUuid string) (*models.Amount, error)
	InterestedWallets(dealUuid string) ([]string, error)
	InterestedWalletsCount(dealUuid string) (int64, error)
}

type interestService struct {
	db         *gorm.DB
	policy     *rbac.Policy
	membership MembershipService
}

// NewInterestService creates a new InterestService
func NewInterestService(db *gorm.DB, policy *rbac.Policy, membership MembershipService) InterestService {
	return &interestService{db: db, policy: policy, membership: membership}
}

// RegisterInterest sets the caller's interest in a deal. Re-registration
// replaces the previous amount; registering zero withdraws the interest.
func (s *interestService) RegisterInterest(caller common.Address, dealUuid string, amount *models.Amount) error {
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
		if !deal.InterestDiscoveryActive {
			return ledger.ErrInterestDiscoveryNotActive
		}
		if !amount.IsZero() {
			if amount.Cmp(deal.MinAllocation) < 0 {
				return ledger.ErrMinimumNotMet
			}
			if amount.Cmp(deal.MaxAllocation) > 0 {
				return ledger.ErrMaximumNotMet
			}
		}

		wallet := caller.Hex()
		oldAmount := models.ZeroAmount()
		var record models.DealInterest
		err = tx.Where("deal_uuid = ? AND wallet = ?", dealUuid, wallet).First(&record).Error
		if err == nil {
			oldAmount = record.Amount
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to load interest: %w", err)
		}

		total, err := interestTotal(tx, dealUuid)
		if err != nil {
			return err
		}
		newTotal := total.Sub(oldAmount).Add(amount)
		if newTotal.Cmp(deal.TotalAllocation) > 0 {
			return ledger.ErrTotalAllocationReached
		}

		if record.ID == 0 {
			record = models.DealInterest{DealUuid: dealUuid, Wallet: wallet, Amount: amount}
			if err := tx.Create(&record).Error; err != nil {
				return err
			}
		} else if err := tx.Model(&record).Update("amount", amount).Error; err != nil {
			return err
		}

		return storeInterestTotal(tx, dealUuid, newTotal)
	})
}

// ImportOldDealInterests bulk-loads interest amounts migrated from a
// predecessor system. Unlike RegisterInterest it is additive and bypasses
// caps and membership checks.
func (s *interestService) ImportOldDealInterests(caller common.Address, dealUuid string, wallets []common.Address, amounts []*models.Amount) error {
	if err := s.policy.Require(rbac.RoleEditor, caller); err != nil {
		return err
	}
	if len(wallets) != len(amounts) {
		return fmt.Errorf("wallets and amounts length mismatch: %d != %d", len(wallets), len(amounts))
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadDeal(tx, dealUuid); err != nil {
			return err
		}

		total, err := interestTotal(tx, dealUuid)
		if err != nil {
			return err
		}

		for i, wallet := range wallets {
			amount := amounts[i]
			var record models.DealInterest
			err := tx.Where("deal_uuid = ? AND wallet = ?", dealUuid, wallet.Hex()).First(&record).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				record = models.DealInterest{DealUuid: dealUuid, Wallet: wallet.Hex(), Amount: amount}
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
			} else if err != nil {
				return fmt.Errorf("failed to load interest: %w", err)
			} else if err := tx.Model(&record).Update("amount", record.Amount.Add(amount)).Error; err != nil {
				return err
			}
			total = total.Add(amount)
		}

		return storeInterestTotal(tx, dealUuid, total)
	})
}

func (s *interestService) WalletInterest(dealUuid string, wallet common.Address) (*models.Amount, error) {
	var record models.DealInterest
	err := s.db.Where("deal_uuid = ? AND wallet = ?", dealUuid, wallet.Hex()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ZeroAmount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load interest: %w", err)
	}
	return record.Amount, nil
}

func (s *interestService) DealTotalInterest(dealUuid string) (*models.Amount, error) {
	return interestTotal(s.db, dealUuid)
}

// InterestedWallets lists every wallet that has ever registered interest
// in the deal, including those that later withdrew to zero.
func (s *interestService) InterestedWallets(dealUuid string) ([]string, error) {
	var wallets []string
	err := s.db.Model(&models.DealInterest{}).
		Where("deal_uuid = ?", dealUuid).
		Order("id ASC").
		Pluck("wallet", &wallets).Error
	return wallets, err
}

func (s *interestService) InterestedWalletsCount(dealUuid string) (int64, error) {
	var count int64
	err := s.db.Model(&models.DealInterest{}).
		Where("deal_uuid = ?", dealUuid).
		Count(&count).Error
	return count, err
}

// loadDeal reads a deal inside the caller's transaction.
func loadDeal(tx *gorm.DB, uuid string) (*models.Deal, error) {
	var deal models.Deal
	err := tx.Where("uuid = ?", uuid).First(&deal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledger.ErrUnknownDeal
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	return &deal, nil
}

func interestTotal(tx *gorm.DB, dealUuid string) (*models.Amount, error) {
	var row models.DealInterestTotal
	err := tx.Where("deal_uuid = ?", dealUuid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ZeroAmount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load interest total: %w", err)
	}
	return row.Total, nil
}

func storeInterestTotal(tx *gorm.DB, dealUuid string, total *models.Amount) error {
	var row models.DealInterestTotal
	err := tx.Where("deal_uuid = ?", dealUuid).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.DealInterestTotal{DealUuid: dealUuid, Total: total}
		return tx.Create(&row).Error
	}
	if err != nil {
		return fmt.Errorf("failed to load interest total: %w", err)
	}
	return tx.Model(&row).Update("total", total).Error
}
