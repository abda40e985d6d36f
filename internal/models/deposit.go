package models

// DealDeposit is a wallet's cumulative binding deposit into a deal.
type DealDeposit struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	DealUuid  string  `gorm:"uniqueIndex:idx_deal_deposit_wallet;not null" json:"deal_uuid"`
	Wallet    string  `gorm:"uniqueIndex:idx_deal_deposit_wallet;not null" json:"wallet"`
	Amount    *Amount `gorm:"type:text" json:"amount"`
	CreatedAt int64   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64   `gorm:"autoUpdateTime" json:"updated_at"`
}

// DealFundraisingState keeps the per-deal aggregates the cap checks read:
// net deposits, cumulative operator withdrawals, and the count of distinct
// wallets that have ever deposited.
type DealFundraisingState struct {
	ID             uint    `gorm:"primaryKey" json:"-"`
	DealUuid       string  `gorm:"uniqueIndex;not null" json:"deal_uuid"`
	Deposited      *Amount `gorm:"type:text" json:"deposited"`
	Withdrawn      *Amount `gorm:"type:text" json:"withdrawn"`
	DepositorCount int64   `json:"depositor_count"`
}
