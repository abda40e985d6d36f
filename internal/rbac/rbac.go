// Package rbac implements the role policy injected into the ledger
// services. Roles are plain grant sets, there is no role hierarchy: a
// wallet holds exactly the roles it was granted.
package rbac

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
)

// Role constants
const (
	// RoleOwner may withdraw fundraised tokens, import claim history,
	// pause distributions and manage wallet changes.
	RoleOwner = "owner"
	// RoleEditor may store deals and distributions and import legacy
	// interests.
	RoleEditor = "editor"
	// RoleDistributor may deposit tokens into distributions.
	RoleDistributor = "distributor"
)

// Policy is a set of role grants keyed by role name.
type Policy struct {
	mu     sync.RWMutex
	grants map[string]map[common.Address]struct{}
}

func NewPolicy() *Policy {
	return &Policy{grants: make(map[string]map[common.Address]struct{})}
}

// Grant gives wallet the role. Granting an already-held role is a no-op.
func (p *Policy) Grant(role string, wallet common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	holders, ok := p.grants[role]
	if !ok {
		holders = make(map[common.Address]struct{})
		p.grants[role] = holders
	}
	holders[wallet] = struct{}{}
}

// Revoke removes the role from wallet.
func (p *Policy) Revoke(role string, wallet common.Address) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if holders, ok := p.grants[role]; ok {
		delete(holders, wallet)
	}
}

// HasRole reports whether wallet holds the role.
func (p *Policy) HasRole(role string, wallet common.Address) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.grants[role][wallet]
	return ok
}

// Require returns an AccessDeniedError unless wallet holds the role.
func (p *Policy) Require(role string, wallet common.Address) error {
	if !p.HasRole(role, wallet) {
		return &ledger.AccessDeniedError{Role: role, Wallet: wallet.Hex()}
	}
	return nil
}
