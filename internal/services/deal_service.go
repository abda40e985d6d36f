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

// DealService stores and validates deal configuration records.
type DealService interface {
	StoreDeal(caller common.Address, deal *models.Deal) error
	GetDealByUuid(uuid string) (*models.Deal, error)
	GetDealById(index int) (*models.Deal, error)
	CountDeals() (int64, error)
	ExistDealByUuid(uuid string) (bool, error)
}

type dealService struct {
	db     *gorm.DB
	policy *rbac.Policy
}

// NewDealService creates a new DealService
func NewDealService(db *gorm.DB, policy *rbac.Policy) DealService {
	return &dealService{db: db, policy: policy}
}

// StoreDeal creates or updates a deal by uuid. Creation sets CreatedAt;
// every write refreshes UpdatedAt. Uuid and CreatedAt never change on
// update.
func (s *dealService) StoreDeal(caller common.Address, deal *models.Deal) error {
	if err := s.policy.Require(rbac.RoleEditor, caller); err != nil {
		return err
	}
	if err := validateDeal(deal); err != nil {
		return err
	}
	deal.CollectedToken = common.HexToAddress(deal.CollectedToken).Hex()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Deal
		err := tx.Where("uuid = ?", deal.Uuid).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(deal).Error
		}
		if err != nil {
			return fmt.Errorf("failed to load deal: %w", err)
		}

		return tx.Model(&existing).Updates(map[string]interface{}{
			"interest_discovery_active":         deal.InterestDiscoveryActive,
			"fundraising_active_for_registered": deal.FundraisingActiveForRegistered,
			"fundraising_active_for_everyone":   deal.FundraisingActiveForEveryone,
			"refund_allowed":                    deal.RefundAllowed,
			"min_allocation":                    deal.MinAllocation,
			"max_allocation":                    deal.MaxAllocation,
			"total_allocation":                  deal.TotalAllocation,
			"collected_token":                   deal.CollectedToken,
		}).Error
	})
}

// validateDeal runs the ordered field checks. Check order is contractual,
// callers key on the returned code.
func validateDeal(deal *models.Deal) error {
	if !common.IsHexAddress(deal.CollectedToken) ||
		common.HexToAddress(deal.CollectedToken) == (common.Address{}) {
		return ledger.InvalidData("deal", ledger.CodeDealToken)
	}
	if deal.MaxAllocation.Cmp(deal.TotalAllocation) > 0 {
		return ledger.InvalidData("deal", ledger.CodeDealMax)
	}
	if deal.MinAllocation.Cmp(deal.MaxAllocation) > 0 {
		return ledger.InvalidData("deal", ledger.CodeDealMin)
	}
	if deal.Uuid == "" {
		return ledger.InvalidData("deal", ledger.CodeDealUuid)
	}
	return nil
}

func (s *dealService) GetDealByUuid(uuid string) (*models.Deal, error) {
	var deal models.Deal
	err := s.db.Where("uuid = ?", uuid).First(&deal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledger.ErrUnknownDeal
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	return &deal, nil
}

// GetDealById returns the deal at the given insertion index.
func (s *dealService) GetDealById(index int) (*models.Deal, error) {
	count, err := s.CountDeals()
	if err != nil {
		return nil, err
	}
	if index < 0 || int64(index) >= count {
		return nil, ledger.ErrOutOfBounds
	}

	var deal models.Deal
	err = s.db.Order("id ASC").Offset(index).First(&deal).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load deal: %w", err)
	}
	return &deal, nil
}

func (s *dealService) CountDeals() (int64, error) {
	var count int64
	err := s.db.Model(&models.Deal{}).Count(&count).Error
	return count, err
}

func (s *dealService) ExistDealByUuid(uuid string) (bool, error) {
	var count int64
	err := s.db.Model(&models.Deal{}).Where("uuid = ?", uuid).Count(&count).Error
	return count > 0, err
}
