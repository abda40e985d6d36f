package services

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
	"github.com/daofund-lab/fundraising-ledger/internal/merkle"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
	"github.com/daofund-lab/fundraising-ledger/internal/rbac"
)

// ClaimRequest is one entry of a batched claim.
type ClaimRequest struct {
	DistributionUuid string         `json:"distribution_uuid"`
	MaxAmount        *models.Amount `json:"max_amount"`
	Proof            []common.Hash  `json:"proof"`
}

// ImportedClaim seeds claim history migrated from a predecessor system.
type ImportedClaim struct {
	Wallet        common.Address `json:"wallet"`
	ClaimedAmount *models.Amount `json:"claimed_amount"`
}

// DistributionService pays out tokens according to Merkle-committed
// allocations with incremental release. The entitlement at any point is a
// pure function of the committed maximum, the release ratio and the amount
// already claimed, which makes repeated claims idempotent.
type DistributionService interface {
	StoreDistribution(caller common.Address, d *models.Distribution) error
	DepositTokensToDistribution(caller common.Address, uuid string, amount *models.Amount) error
	Claim(caller common.Address, uuid string, maxAmount *models.Amount, proof []common.Hash) (*models.Amount, error)
	ClaimMultiple(caller common.Address, claims []ClaimRequest) error
	EmergencyImportClaims(caller common.Address, uuid string, entries []ImportedClaim) error
	EmergencyDistributionsPause(caller common.Address, paused bool) error
	Paused() bool

	DistributionByUuid(uuid string) (*models.Distribution, error)
	DistributionByIndex(index int) (*models.Distribution, error)
	DistributionsCount() (int64, error)
	Deposited(uuid string) (*models.Amount, error)
	WalletClaimed(uuid string, wallet common.Address) (*models.Amount, error)
	DistributionsStateArray(since int64) ([]models.DistributionState, error)
	DistributionLastChangeAt(uuid string) (int64, error)
	LastChangeAt() (int64, error)
}

type distributionService struct {
	db            *gorm.DB
	policy        *rbac.Policy
	walletChanges WalletChangeService
	// account is the ledger address holding distribution deposits.
	account common.Address

	pauseMu sync.RWMutex
	paused  bool
}

// NewDistributionService creates a new DistributionService
func NewDistributionService(db *gorm.DB, policy *rbac.Policy, walletChanges WalletChangeService, account common.Address) DistributionService {
	return &distributionService{
		db:            db,
		policy:        policy,
		walletChanges: walletChanges,
		account:       account,
	}
}

// StoreDistribution creates or updates a distribution by uuid. On update
// the token is locked once anything was deposited and the Merkle root is
// locked once anyone has claimed; the distributable amount can never drop
// below what was already deposited.
func (s *distributionService) StoreDistribution(caller common.Address, d *models.Distribution) error {
	if err := s.policy.Require(rbac.RoleEditor, caller); err != nil {
		return err
	}

	if d.Uuid == "" {
		return ledger.InvalidData("distribution", ledger.CodeDistUuid)
	}
	if !common.IsHexAddress(d.Token) ||
		common.HexToAddress(d.Token) == (common.Address{}) {
		return ledger.InvalidData("distribution", ledger.CodeDistToken)
	}
	if d.TokensTotal.IsZero() {
		return ledger.InvalidData("distribution", ledger.CodeDistTokensTotal)
	}
	if d.TokensDistributable.Cmp(d.TokensTotal) > 0 {
		return ledger.InvalidData("distribution", ledger.CodeDistTotalBelow)
	}
	d.Token = common.HexToAddress(d.Token).Hex()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Distribution
		err := tx.Where("uuid = ?", d.Uuid).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			d.Deposited = models.ZeroAmount()
			d.PaidOut = models.ZeroAmount()
			return tx.Create(d).Error
		}
		if err != nil {
			return fmt.Errorf("failed to load distribution: %w", err)
		}

		if d.TokensDistributable.Cmp(existing.Deposited) < 0 {
			return ledger.InvalidData("distribution", ledger.CodeDistDeposited)
		}
		if d.Token != existing.Token && !existing.Deposited.IsZero() {
			return ledger.InvalidData("distribution", ledger.CodeDistTokenLocked)
		}
		if d.MerkleRoot != existing.MerkleRoot {
			var claims int64
			if err := tx.Model(&models.WalletClaim{}).
				Where("distribution_uuid = ?", d.Uuid).
				Count(&claims).Error; err != nil {
				return err
			}
			if claims > 0 {
				return ledger.InvalidData("distribution", ledger.CodeDistRootLocked)
			}
		}

		return tx.Model(&existing).Updates(map[string]interface{}{
			"token":                d.Token,
			"tokens_total":         d.TokensTotal,
			"tokens_distributable": d.TokensDistributable,
			"merkle_root":          d.MerkleRoot,
			"enabled":              d.Enabled,
		}).Error
	})
}

// DepositTokensToDistribution transfers amount of the distribution token
// from the caller into the ledger's custody.
func (s *distributionService) DepositTokensToDistribution(caller common.Address, uuid string, amount *models.Amount) error {
	if err := s.policy.Require(rbac.RoleDistributor, caller); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		dist, err := loadDistribution(tx, uuid)
		if err != nil {
			return err
		}

		newDeposited := dist.Deposited.Add(amount)
		if newDeposited.Cmp(dist.TokensDistributable) > 0 {
			return &ledger.InvalidParamsError{Code: "TB_TD"}
		}

		balance, err := tokenBalanceOf(tx, dist.Token, caller.Hex())
		if err != nil {
			return err
		}
		if balance.Cmp(amount) < 0 {
			return ledger.ErrNotEnoughTokens
		}

		if err := tokenTransfer(tx, dist.Token, caller.Hex(), s.account.Hex(), amount); err != nil {
			return err
		}
		return tx.Model(dist).Update("deposited", newDeposited).Error
	})
}

// Claim pays the caller the unlocked and unpaid share of its committed
// allocation. Repeated claims with an unchanged release ratio fail with
// ErrNothingToClaim.
func (s *distributionService) Claim(caller common.Address, uuid string, maxAmount *models.Amount, proof []common.Hash) (*models.Amount, error) {
	var paid *models.Amount
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		paid, err = s.claimInTx(tx, caller, uuid, maxAmount, proof)
		return err
	})
	if err != nil {
		return nil, err
	}
	return paid, nil
}

// ClaimMultiple applies every claim atomically: one failing entry aborts
// the whole batch.
func (s *distributionService) ClaimMultiple(caller common.Address, claims []ClaimRequest) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		for _, claim := range claims {
			if _, err := s.claimInTx(tx, caller, claim.DistributionUuid, claim.MaxAmount, claim.Proof); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *distributionService) claimInTx(tx *gorm.DB, caller common.Address, uuid string, maxAmount *models.Amount, proof []common.Hash) (*models.Amount, error) {
	// Claim rights follow the redirection table: proofs stay committed to
	// the original address while the payout goes to the caller.
	source, err := translateAddress(tx, caller)
	if err != nil {
		return nil, err
	}

	dist, err := loadDistribution(tx, uuid)
	if err != nil {
		return nil, err
	}
	if !dist.Enabled || s.Paused() {
		return nil, ledger.ErrDisabled
	}

	root := common.HexToHash(dist.MerkleRoot)
	if !merkle.VerifyEntry(root, source, maxAmount.BigInt(), proof) {
		return nil, ledger.ErrInvalidMerkleProof
	}

	claimed := models.ZeroAmount()
	var record models.WalletClaim
	err = tx.Where("distribution_uuid = ? AND wallet = ?", uuid, source.Hex()).First(&record).Error
	if err == nil {
		claimed = record.Amount
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}

	// entitled = floor(maxAmount * distributable / total); the payable part
	// is whatever the wallet has not already claimed.
	entitled := maxAmount.MulDiv(dist.TokensDistributable, dist.TokensTotal)
	payable, err := entitled.SubChecked(claimed)
	if err != nil || payable.IsZero() {
		return nil, ledger.ErrNothingToClaim
	}

	available, err := dist.Deposited.SubChecked(dist.PaidOut)
	if err != nil {
		return nil, fmt.Errorf("distribution payout accounting underflow: %w", err)
	}
	if payable.Cmp(available) > 0 {
		return nil, ledger.ErrNotEnoughTokens
	}

	if record.ID == 0 {
		record = models.WalletClaim{DistributionUuid: uuid, Wallet: source.Hex(), Amount: payable}
		if err := tx.Create(&record).Error; err != nil {
			return nil, err
		}
	} else if err := tx.Model(&record).Update("amount", claimed.Add(payable)).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(dist).Update("paid_out", dist.PaidOut.Add(payable)).Error; err != nil {
		return nil, err
	}

	if err := tokenTransfer(tx, dist.Token, s.account.Hex(), caller.Hex(), payable); err != nil {
		return nil, err
	}
	return payable, nil
}

// EmergencyImportClaims overwrites claim history for migrated wallets
// without moving tokens, so a later real claim pays only the un-imported
// remainder.
func (s *distributionService) EmergencyImportClaims(caller common.Address, uuid string, entries []ImportedClaim) error {
	if err := s.policy.Require(rbac.RoleOwner, caller); err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := loadDistribution(tx, uuid); err != nil {
			return err
		}

		for _, entry := range entries {
			wallet := entry.Wallet.Hex()
			var record models.WalletClaim
			err := tx.Where("distribution_uuid = ? AND wallet = ?", uuid, wallet).First(&record).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				record = models.WalletClaim{DistributionUuid: uuid, Wallet: wallet, Amount: entry.ClaimedAmount}
				if err := tx.Create(&record).Error; err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to load claim: %w", err)
			}
			if err := tx.Model(&record).Update("amount", entry.ClaimedAmount).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// EmergencyDistributionsPause toggles the global kill-switch overriding
// every distribution's own enabled flag.
func (s *distributionService) EmergencyDistributionsPause(caller common.Address, paused bool) error {
	if err := s.policy.Require(rbac.RoleOwner, caller); err != nil {
		return err
	}
	s.pauseMu.Lock()
	s.paused = paused
	s.pauseMu.Unlock()
	return nil
}

func (s *distributionService) Paused() bool {
	s.pauseMu.RLock()
	defer s.pauseMu.RUnlock()
	return s.paused
}

func (s *distributionService) DistributionByUuid(uuid string) (*models.Distribution, error) {
	return loadDistribution(s.db, uuid)
}

// DistributionByIndex returns the distribution at the given insertion
// index.
func (s *distributionService) DistributionByIndex(index int) (*models.Distribution, error) {
	count, err := s.DistributionsCount()
	if err != nil {
		return nil, err
	}
	if index < 0 || int64(index) >= count {
		return nil, ledger.ErrOutOfBounds
	}

	var dist models.Distribution
	err = s.db.Order("id ASC").Offset(index).First(&dist).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution: %w", err)
	}
	return &dist, nil
}

func (s *distributionService) DistributionsCount() (int64, error) {
	var count int64
	err := s.db.Model(&models.Distribution{}).Count(&count).Error
	return count, err
}

func (s *distributionService) Deposited(uuid string) (*models.Amount, error) {
	dist, err := loadDistribution(s.db, uuid)
	if err != nil {
		return nil, err
	}
	return dist.Deposited, nil
}

func (s *distributionService) WalletClaimed(uuid string, wallet common.Address) (*models.Amount, error) {
	var record models.WalletClaim
	err := s.db.Where("distribution_uuid = ? AND wallet = ?", uuid, wallet.Hex()).First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ZeroAmount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load claim: %w", err)
	}
	return record.Amount, nil
}

// DistributionsStateArray returns every distribution updated after since,
// for incremental off-chain synchronization.
func (s *distributionService) DistributionsStateArray(since int64) ([]models.DistributionState, error) {
	var dists []models.Distribution
	err := s.db.Where("updated_at > ?", since).Order("id ASC").Find(&dists).Error
	if err != nil {
		return nil, err
	}

	states := make([]models.DistributionState, 0, len(dists))
	for _, d := range dists {
		states = append(states, models.DistributionState{
			Distribution:  d,
			LastChangedAt: d.UpdatedAt,
		})
	}
	return states, nil
}

func (s *distributionService) DistributionLastChangeAt(uuid string) (int64, error) {
	dist, err := loadDistribution(s.db, uuid)
	if err != nil {
		return 0, err
	}
	return dist.UpdatedAt, nil
}

// LastChangeAt returns the newest UpdatedAt across all distributions, the
// global sync high-water mark.
func (s *distributionService) LastChangeAt() (int64, error) {
	var last int64
	err := s.db.Model(&models.Distribution{}).
		Select("COALESCE(MAX(updated_at), 0)").
		Scan(&last).Error
	return last, err
}

func loadDistribution(tx *gorm.DB, uuid string) (*models.Distribution, error) {
	var dist models.Distribution
	err := tx.Where("uuid = ?", uuid).First(&dist).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ledger.ErrDataNotExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution: %w", err)
	}
	return &dist, nil
}
