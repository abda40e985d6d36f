package models

// TokenBalance is one holder's balance of one fungible token. The ledger
// services themselves appear as holders for the funds they custody.
type TokenBalance struct {
	ID      uint    `gorm:"primaryKey" json:"-"`
	Token   string  `gorm:"uniqueIndex:idx_token_holder;not null" json:"token"`
	Holder  string  `gorm:"uniqueIndex:idx_token_holder;not null" json:"holder"`
	Balance *Amount `gorm:"type:text" json:"balance"`
}

// CommunityMember records a wallet's membership capability for a community.
// The ledgers only ever consult the existence of a row.
type CommunityMember struct {
	ID            uint   `gorm:"primaryKey" json:"-"`
	Wallet        string `gorm:"uniqueIndex;not null" json:"wallet"`
	CommunityUuid string `gorm:"index;not null" json:"community_uuid"`
	CreatedAt     int64  `gorm:"autoCreateTime" json:"created_at"`
}
