package services_test

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/daofund-lab/fundraising-ledger/internal/models"
	"github.com/daofund-lab/fundraising-ledger/internal/rbac"
	"github.com/daofund-lab/fundraising-ledger/internal/services"
)

var (
	ownerAddr       = common.HexToAddress("0x00000000000000000000000000000000000000A1")
	editorAddr      = common.HexToAddress("0x00000000000000000000000000000000000000A2")
	distributorAddr = common.HexToAddress("0x00000000000000000000000000000000000000A3")
	strangerAddr    = common.HexToAddress("0x00000000000000000000000000000000000000A4")

	wallet1 = common.HexToAddress("0x1111111111111111111111111111111111111111")
	wallet2 = common.HexToAddress("0x2222222222222222222222222222222222222222")
	wallet3 = common.HexToAddress("0x3333333333333333333333333333333333333333")
	wallet4 = common.HexToAddress("0x4444444444444444444444444444444444444444")

	usdtAddr = common.HexToAddress("0x00000000000000000000000000000000000000E1")

	fundraisingAccount  = common.HexToAddress("0x00000000000000000000000000000000000000F1")
	distributionAccount = common.HexToAddress("0x00000000000000000000000000000000000000F2")
)

// testEnv wires every service against a fresh in-memory database.
type testEnv struct {
	db            services.DBService
	policy        *rbac.Policy
	membership    services.MembershipService
	tokens        services.TokenService
	deals         services.DealService
	interests     services.InterestService
	fundraising   services.FundraisingService
	walletChanges services.WalletChangeService
	distributions services.DistributionService
}

func newTestEnv(require *require.Assertions) *testEnv {
	db, err := services.NewSqliteDBService(":memory:")
	require.NoError(err)

	policy := rbac.NewPolicy()
	policy.Grant(rbac.RoleOwner, ownerAddr)
	policy.Grant(rbac.RoleEditor, ownerAddr)
	policy.Grant(rbac.RoleDistributor, ownerAddr)
	policy.Grant(rbac.RoleEditor, editorAddr)
	policy.Grant(rbac.RoleDistributor, distributorAddr)

	membership := services.NewMembershipService(db.GetDB())
	tokens := services.NewTokenService(db.GetDB())
	deals := services.NewDealService(db.GetDB(), policy)
	interests := services.NewInterestService(db.GetDB(), policy, membership)
	fundraising := services.NewFundraisingService(db.GetDB(), policy, membership, interests, fundraisingAccount)
	walletChanges := services.NewWalletChangeService(db.GetDB(), policy)
	distributions := services.NewDistributionService(db.GetDB(), policy, walletChanges, distributionAccount)

	return &testEnv{
		db:            db,
		policy:        policy,
		membership:    membership,
		tokens:        tokens,
		deals:         deals,
		interests:     interests,
		fundraising:   fundraising,
		walletChanges: walletChanges,
		distributions: distributions,
	}
}

func (e *testEnv) close() {
	_ = e.db.Close()
}

// testDeal returns a deal with every phase closed; tests flip the flags
// they need and store it again.
func testDeal(uuid string) *models.Deal {
	return &models.Deal{
		Uuid:            uuid,
		MinAllocation:   models.NewAmount(100),
		MaxAllocation:   models.NewAmount(1000),
		TotalAllocation: models.NewAmount(5000),
		CollectedToken:  usdtAddr.Hex(),
	}
}
