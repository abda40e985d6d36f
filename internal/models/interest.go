package models

// DealInterest holds a wallet's current non-binding interest in a deal.
// Re-registration replaces the amount, it is not additive.
type DealInterest struct {
	ID        uint    `gorm:"primaryKey" json:"-"`
	DealUuid  string  `gorm:"uniqueIndex:idx_deal_interest_wallet;not null" json:"deal_uuid"`
	Wallet    string  `gorm:"uniqueIndex:idx_deal_interest_wallet;not null" json:"wallet"`
	Amount    *Amount `gorm:"type:text" json:"amount"`
	CreatedAt int64   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64   `gorm:"autoUpdateTime" json:"updated_at"`
}

// DealInterestTotal is the running interest sum for a deal, adjusted by the
// old/new delta on every registration.
type DealInterestTotal struct {
	ID       uint    `gorm:"primaryKey" json:"-"`
	DealUuid string  `gorm:"uniqueIndex;not null" json:"deal_uuid"`
	Total    *Amount `gorm:"type:text" json:"total"`
}
