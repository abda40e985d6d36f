package models

// Distribution is a Merkle-committed, incrementally releasable payout pool.
// TokensDistributable ratchets up towards TokensTotal; claims unlock the
// proportional share of each wallet's committed maximum.
type Distribution struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	Uuid      string `gorm:"uniqueIndex;not null" json:"uuid"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`

	Token               string  `gorm:"not null" json:"token"`
	TokensTotal         *Amount `gorm:"type:text" json:"tokens_total"`
	TokensDistributable *Amount `gorm:"type:text" json:"tokens_distributable"`
	MerkleRoot          string  `json:"merkle_root"`
	Enabled             bool    `json:"enabled"`

	// Deposited is the cumulative amount of Token transferred in for this
	// distribution; PaidOut the cumulative amount transferred out through
	// real claims. Imported claim history moves neither.
	Deposited *Amount `gorm:"type:text" json:"deposited"`
	PaidOut   *Amount `gorm:"type:text" json:"paid_out"`
}

// DistributionState is the sync view returned to off-chain consumers.
type DistributionState struct {
	Distribution
	LastChangedAt int64 `json:"last_changed_at"`
}

// WalletClaim is a wallet's monotonically non-decreasing cumulative claim
// against a distribution, recorded against the resolved source address.
type WalletClaim struct {
	ID               uint    `gorm:"primaryKey" json:"-"`
	DistributionUuid string  `gorm:"uniqueIndex:idx_distribution_claim_wallet;not null" json:"distribution_uuid"`
	Wallet           string  `gorm:"uniqueIndex:idx_distribution_claim_wallet;not null" json:"wallet"`
	Amount           *Amount `gorm:"type:text" json:"amount"`
	CreatedAt        int64   `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        int64   `gorm:"autoUpdateTime" json:"updated_at"`
}
