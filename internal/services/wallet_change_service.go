package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
	"github.com/daofund-lab/fundraising-ledger/internal/rbac"
	"github.com/daofund-lab/fundraising-ledger/internal/utils"
)

// WalletChangeService maintains the one-hop claim redirection table. A
// wallet may be the source of at most one active mapping and the target of
// at most one active mapping at a time.
type WalletChangeService interface {
	StoreWalletChange(caller common.Address, change *models.WalletChange) error
	RemoveWalletChange(caller common.Address, uuid string) error
	GetWalletChange(uuid string) (*models.WalletChange, error)
	TranslateAddressToSourceAddress(addr common.Address) (common.Address, error)
}

type walletChangeService struct {
	db     *gorm.DB
	policy *rbac.Policy
}

// NewWalletChangeService creates a new WalletChangeService
func NewWalletChangeService(db *gorm.DB, policy *rbac.Policy) WalletChangeService {
	return &walletChangeService{db: db, policy: policy}
}

// StoreWalletChange registers a redirection. When a signature is supplied
// it must recover the source wallet over the attached message.
func (s *walletChangeService) StoreWalletChange(caller common.Address, change *models.WalletChange) error {
	if err := s.policy.Require(rbac.RoleOwner, caller); err != nil {
		return err
	}

	if change.Uuid == "" {
		return ledger.InvalidData("wallet change", ledger.CodeChangeUuid)
	}
	if !common.IsHexAddress(change.WalletFrom) ||
		common.HexToAddress(change.WalletFrom) == (common.Address{}) {
		return ledger.InvalidData("wallet change", ledger.CodeChangeFrom)
	}
	if common.HexToAddress(change.WalletFrom) == common.HexToAddress(change.WalletTo) {
		return ledger.InvalidData("wallet change", ledger.CodeChangeFromTo)
	}
	if !common.IsHexAddress(change.WalletTo) ||
		common.HexToAddress(change.WalletTo) == (common.Address{}) {
		return ledger.InvalidData("wallet change", ledger.CodeChangeTo)
	}

	change.WalletFrom = common.HexToAddress(change.WalletFrom).Hex()
	change.WalletTo = common.HexToAddress(change.WalletTo).Hex()

	if change.Signature != "" {
		ok, err := utils.VerifyPersonalSignature(change.Signature, change.WalletFrom, change.Message)
		if err != nil || !ok {
			return ledger.ErrInvalidSignature
		}
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.WalletChange{}).
			Where("uuid = ?", change.Uuid).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ledger.DataAlreadyExistsError{Code: "UUID"}
		}

		if err := tx.Model(&models.WalletChange{}).
			Where("wallet_from = ? AND deleted_at = 0", change.WalletFrom).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ledger.DataAlreadyExistsError{Code: "DWF"}
		}

		if err := tx.Model(&models.WalletChange{}).
			Where("wallet_to = ? AND deleted_at = 0", change.WalletTo).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return &ledger.DataAlreadyExistsError{Code: "DWT"}
		}

		change.DeletedAt = 0
		return tx.Create(change).Error
	})
}

// RemoveWalletChange soft-deletes a mapping so the pair can be registered
// again later.
func (s *walletChangeService) RemoveWalletChange(caller common.Address, uuid string) error {
	if err := s.policy.Require(rbac.RoleOwner, caller); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		var change models.WalletChange
		err := tx.Where("uuid = ? AND deleted_at = 0", uuid).First(&change).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledger.ErrDataNotExists
		}
		if err != nil {
			return fmt.Errorf("failed to load wallet change: %w", err)
		}
		return tx.Model(&change).Update("deleted_at", time.Now().Unix()).Error
	})
}

func (s *walletChangeService) GetWalletChange(uuid string) (*models.WalletChange, error) {
	var change models.WalletChange
	err := s.db.Where("uuid = ?", uuid).First(&change).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledger.ErrDataNotExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet change: %w", err)
	}
	return &change, nil
}

// TranslateAddressToSourceAddress resolves the effective claim source for
// addr. Targets of an active mapping resolve to the mapping's source;
// superseded sources are locked out; everything else resolves to itself.
func (s *walletChangeService) TranslateAddressToSourceAddress(addr common.Address) (common.Address, error) {
	return translateAddress(s.db, addr)
}

func translateAddress(tx *gorm.DB, addr common.Address) (common.Address, error) {
	var change models.WalletChange
	err := tx.Where("wallet_to = ? AND deleted_at = 0", addr.Hex()).First(&change).Error
	if err == nil {
		return common.HexToAddress(change.WalletFrom), nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return common.Address{}, fmt.Errorf("failed to resolve wallet change: %w", err)
	}

	var count int64
	if err := tx.Model(&models.WalletChange{}).
		Where("wallet_from = ? AND deleted_at = 0", addr.Hex()).
		Count(&count).Error; err != nil {
		return common.Address{}, fmt.Errorf("failed to resolve wallet change: %w", err)
	}
	if count > 0 {
		return common.Address{}, ledger.ErrAddressAlreadyRedirected
	}
	return addr, nil
}
