package services

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"gorm.io/gorm"

	"github.com/daofund-lab/fundraising-ledger/internal/models"
)

// MembershipService is the community membership oracle consulted by the
// interest and fundraising ledgers. The ledgers only ever read the boolean.
type MembershipService interface {
	HasCommunityNft(wallet common.Address) (bool, error)
	Mint(wallet common.Address, communityUuid string) error
	Burn(wallet common.Address) error
}

type membershipService struct {
	db *gorm.DB
}

// NewMembershipService creates a new MembershipService
func NewMembershipService(db *gorm.DB) MembershipService {
	return &membershipService{db: db}
}

func (s *membershipService) HasCommunityNft(wallet common.Address) (bool, error) {
	var count int64
	err := s.db.Model(&models.CommunityMember{}).
		Where("wallet = ?", wallet.Hex()).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return count > 0, nil
}

func (s *membershipService) Mint(wallet common.Address, communityUuid string) error {
	var existing models.CommunityMember
	err := s.db.Where("wallet = ?", wallet.Hex()).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("failed to check membership: %w", err)
	}
	member := models.CommunityMember{Wallet: wallet.Hex(), CommunityUuid: communityUuid}
	return s.db.Create(&member).Error
}

func (s *membershipService) Burn(wallet common.Address) error {
	return s.db.Where("wallet = ?", wallet.Hex()).
		Delete(&models.CommunityMember{}).Error
}
