package models

// WalletChange is a one-hop claim redirection from WalletFrom to WalletTo.
// Removal is a soft delete (DeletedAt set to a non-zero timestamp) so the
// same pair can be registered again later.
type WalletChange struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	Uuid      string `gorm:"uniqueIndex;not null" json:"uuid"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`

	WalletFrom string `gorm:"index;not null" json:"wallet_from"`
	WalletTo   string `gorm:"index;not null" json:"wallet_to"`

	// Signature and Message carry the owner's attestation that the source
	// wallet consented to the redirection.
	Signature string `json:"signature"`
	Message   string `json:"message"`

	DeletedAt int64 `gorm:"index;default:0" json:"deleted_at"`
}

// Active reports whether the mapping is in force.
func (w *WalletChange) Active() bool {
	return w.DeletedAt == 0
}
