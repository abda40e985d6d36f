package models

// Deal represents a fundraising campaign configuration. Records are
// append-only by Uuid: a second store with the same Uuid updates the
// existing row, it never creates a duplicate.
type Deal struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	Uuid      string `gorm:"uniqueIndex;not null" json:"uuid"`
	CreatedAt int64  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt int64  `gorm:"autoUpdateTime" json:"updated_at"`

	InterestDiscoveryActive        bool `json:"interest_discovery_active"`
	FundraisingActiveForRegistered bool `json:"fundraising_active_for_registered"`
	FundraisingActiveForEveryone   bool `json:"fundraising_active_for_everyone"`
	RefundAllowed                  bool `json:"refund_allowed"`

	MinAllocation   *Amount `gorm:"type:text" json:"min_allocation"`
	MaxAllocation   *Amount `gorm:"type:text" json:"max_allocation"`
	TotalAllocation *Amount `gorm:"type:text" json:"total_allocation"`

	// CollectedToken is the address of the fungible asset accepted for
	// deposits, stored in checksummed hex form.
	CollectedToken string `gorm:"not null" json:"collected_token"`
}
