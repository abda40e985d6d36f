package rbac

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
)

func TestPolicyGrantRevoke(t *testing.T) {
	policy := NewPolicy()
	wallet := common.HexToAddress("0x1111111111111111111111111111111111111111")

	assert.False(t, policy.HasRole(RoleEditor, wallet))

	policy.Grant(RoleEditor, wallet)
	assert.True(t, policy.HasRole(RoleEditor, wallet))
	assert.False(t, policy.HasRole(RoleOwner, wallet), "roles are independent")

	// double grant is a no-op
	policy.Grant(RoleEditor, wallet)
	assert.True(t, policy.HasRole(RoleEditor, wallet))

	policy.Revoke(RoleEditor, wallet)
	assert.False(t, policy.HasRole(RoleEditor, wallet))

	// revoking an unheld role is harmless
	policy.Revoke(RoleDistributor, wallet)
}

func TestPolicyRequire(t *testing.T) {
	policy := NewPolicy()
	wallet := common.HexToAddress("0x2222222222222222222222222222222222222222")

	err := policy.Require(RoleOwner, wallet)
	require.Error(t, err)

	var denied *ledger.AccessDeniedError
	require.True(t, errors.As(err, &denied))
	assert.Equal(t, RoleOwner, denied.Role)
	assert.Equal(t, wallet.Hex(), denied.Wallet)

	policy.Grant(RoleOwner, wallet)
	assert.NoError(t, policy.Require(RoleOwner, wallet))
}
