package services

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
)

// TokenService is the fungible-asset ledger the fundraising and
// distribution services move funds through. Transfers either fully succeed
// or fail; balances are precise integers with no hidden fees.
type TokenService interface {
	BalanceOf(token, holder common.Address) (*models.Amount, error)
	Mint(token, holder common.Address, amount *models.Amount) error
	Transfer(token, from, to common.Address, amount *models.Amount) error
}

type tokenService struct {
	db *gorm.DB
}

// NewTokenService creates a new TokenService
func NewTokenService(db *gorm.DB) TokenService {
	return &tokenService{db: db}
}

func (s *tokenService) BalanceOf(token, holder common.Address) (*models.Amount, error) {
	return tokenBalanceOf(s.db, token.Hex(), holder.Hex())
}

func (s *tokenService) Mint(token, holder common.Address, amount *models.Amount) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tokenCredit(tx, token.Hex(), holder.Hex(), amount)
	})
}

func (s *tokenService) Transfer(token, from, to common.Address, amount *models.Amount) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return tokenTransfer(tx, token.Hex(), from.Hex(), to.Hex(), amount)
	})
}

// tokenBalanceOf reads a holder's balance; absent rows read as zero.
func tokenBalanceOf(tx *gorm.DB, token, holder string) (*models.Amount, error) {
	var row models.TokenBalance
	err := tx.Where("token = ? AND holder = ?", token, holder).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.ZeroAmount(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token balance: %w", err)
	}
	return row.Balance, nil
}

func tokenCredit(tx *gorm.DB, token, holder string, amount *models.Amount) error {
	var row models.TokenBalance
	err := tx.Where("token = ? AND holder = ?", token, holder).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		row = models.TokenBalance{Token: token, Holder: holder, Balance: amount}
		return tx.Create(&row).Error
	}
	if err != nil {
		return fmt.Errorf("failed to read token balance: %w", err)
	}
	return tx.Model(&row).Update("balance", row.Balance.Add(amount)).Error
}

func tokenDebit(tx *gorm.DB, token, holder string, amount *models.Amount) error {
	balance, err := tokenBalanceOf(tx, token, holder)
	if err != nil {
		return err
	}
	remaining, err := balance.SubChecked(amount)
	if err != nil {
		return ledger.ErrNotEnoughTokens
	}
	return tx.Model(&models.TokenBalance{}).
		Where("token = ? AND holder = ?", token, holder).
		Update("balance", remaining).Error
}

// tokenTransfer moves amount between holders inside the caller's
// transaction. The debit side carries the balance check.
func tokenTransfer(tx *gorm.DB, token, from, to string, amount *models.Amount) error {
	if amount.IsZero() {
		return nil
	}
	if err := tokenDebit(tx, token, from, amount); err != nil {
		return err
	}
	return tokenCredit(tx, token, to, amount)
}
