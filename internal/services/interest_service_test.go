package services_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
)

type InterestServiceTestSuite struct {
	suite.Suite
	env *testEnv
}

func (suite *InterestServiceTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.Require())

	deal := testDeal("deal-1")
	deal.InterestDiscoveryActive = true
	suite.Require().NoError(suite.env.deals.StoreDeal(editorAddr, deal))
	suite.Require().NoError(suite.env.membership.Mint(wallet1, "community-1"))
	suite.Require().NoError(suite.env.membership.Mint(wallet2, "community-1"))
}

func (suite *InterestServiceTestSuite) TearDownTest() {
	suite.env.close()
}

func (suite *InterestServiceTestSuite) TestRegisterInterestChecks() {
	suite.Run("unknown deal", func() {
		err := suite.env.interests.RegisterInterest(wallet1, "missing", models.NewAmount(500))
		suite.ErrorIs(err, ledger.ErrUnknownDeal)
	})

	suite.Run("non member", func() {
		err := suite.env.interests.RegisterInterest(wallet3, "deal-1", models.NewAmount(500))
		suite.ErrorIs(err, ledger.ErrNotDaoMember)
	})

	suite.Run("discovery closed", func() {
		closed := testDeal("deal-closed")
		suite.Require().NoError(suite.env.deals.StoreDeal(editorAddr, closed))
		err := suite.env.interests.RegisterInterest(wallet1, "deal-closed", models.NewAmount(500))
		suite.ErrorIs(err, ledger.ErrInterestDiscoveryNotActive)
	})

	suite.Run("below minimum", func() {
		err := suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(50))
		suite.ErrorIs(err, ledger.ErrMinimumNotMet)
	})

	suite.Run("above maximum", func() {
		err := suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(1500))
		suite.ErrorIs(err, ledger.ErrMaximumNotMet)
	})
}

func (suite *InterestServiceTestSuite) TestRegisterInterestReplacesAmount() {
	suite.Require().NoError(suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(500)))

	amount, err := suite.env.interests.WalletInterest("deal-1", wallet1)
	suite.Require().NoError(err)
	suite.Equal(0, amount.Cmp(models.NewAmount(500)))

	// re-registration replaces, it does not accumulate
	suite.Require().NoError(suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(300)))

	amount, err = suite.env.interests.WalletInterest("deal-1", wallet1)
	suite.Require().NoError(err)
	suite.Equal(0, amount.Cmp(models.NewAmount(300)))

	total, err := suite.env.interests.DealTotalInterest("deal-1")
	suite.Require().NoError(err)
	suite.Equal(0, total.Cmp(models.NewAmount(300)))
}

func (suite *InterestServiceTestSuite) TestRegisterZeroWithdrawsInterest() {
	suite.Require().NoError(suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(500)))
	suite.Require().NoError(suite.env.interests.RegisterInterest(wallet2, "deal-1", models.NewAmount(200)))

	suite.Require().NoError(suite.env.interests.RegisterInterest(wallet1, "deal-1", models.ZeroAmount()))

	amount, err := suite.env.interests.WalletInterest("deal-1", wallet1)
	suite.Require().NoError(err)
	suite.True(amount.IsZero())

	total, err := suite.env.interests.DealTotalInterest("deal-1")
	suite.Require().NoError(err)
	suite.Equal(0, total.Cmp(models.NewAmount(200)))

	// withdrawn wallets stay enumerable
	wallets, err := suite.env.interests.InterestedWallets("deal-1")
	suite.Require().NoError(err)
	suite.Equal([]string{wallet1.Hex(), wallet2.Hex()}, wallets)

	count, err := suite.env.interests.InterestedWalletsCount("deal-1")
	suite.NoError(err)
	suite.Equal(int64(2), count)
}

func (suite *InterestServiceTestSuite) TestTotalAllocationCap() {
	// five wallets at the per-wallet maximum fill the 5000 budget exactly
	for i := 0; i < 5; i++ {
		wallet := common.HexToAddress(fmt.Sprintf("0x%040d", i+10))
		suite.Require().NoError(suite.env.membership.Mint(wallet, "community-1"))
		suite.Require().NoError(suite.env.interests.RegisterInterest(wallet, "deal-1", models.NewAmount(1000)))
	}

	err := suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(1000))
	suite.ErrorIs(err, ledger.ErrTotalAllocationReached)

	// replacing an existing registration frees its old amount first
	freed := common.HexToAddress(fmt.Sprintf("0x%040d", 10))
	suite.Require().NoError(suite.env.interests.RegisterInterest(freed, "deal-1", models.NewAmount(500)))

	suite.Require().NoError(suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(500)))

	total, err := suite.env.interests.DealTotalInterest("deal-1")
	suite.Require().NoError(err)
	suite.Equal(0, total.Cmp(models.NewAmount(5000)))
}

func (suite *InterestServiceTestSuite) TestImportOldDealInterests() {
	suite.Run("requires editor", func() {
		err := suite.env.interests.ImportOldDealInterests(strangerAddr, "deal-1",
			[]common.Address{wallet1}, []*models.Amount{models.NewAmount(100)})
		var denied *ledger.AccessDeniedError
		suite.True(errors.As(err, &denied))
	})

	suite.Run("length mismatch", func() {
		err := suite.env.interests.ImportOldDealInterests(editorAddr, "deal-1",
			[]common.Address{wallet1, wallet2}, []*models.Amount{models.NewAmount(100)})
		suite.Error(err)
	})

	suite.Run("unknown deal", func() {
		err := suite.env.interests.ImportOldDealInterests(editorAddr, "missing",
			[]common.Address{wallet1}, []*models.Amount{models.NewAmount(100)})
		suite.ErrorIs(err, ledger.ErrUnknownDeal)
	})

	suite.Run("additive across imports", func() {
		suite.Require().NoError(suite.env.interests.RegisterInterest(wallet1, "deal-1", models.NewAmount(500)))

		// imports add on top of registrations and bypass membership and caps
		suite.Require().NoError(suite.env.interests.ImportOldDealInterests(editorAddr, "deal-1",
			[]common.Address{wallet1, wallet3},
			[]*models.Amount{models.NewAmount(200), models.NewAmount(9000)}))

		amount, err := suite.env.interests.WalletInterest("deal-1", wallet1)
		suite.Require().NoError(err)
		suite.Equal(0, amount.Cmp(models.NewAmount(700)))

		amount, err = suite.env.interests.WalletInterest("deal-1", wallet3)
		suite.Require().NoError(err)
		suite.Equal(0, amount.Cmp(models.NewAmount(9000)))

		total, err := suite.env.interests.DealTotalInterest("deal-1")
		suite.Require().NoError(err)
		suite.Equal(0, total.Cmp(models.NewAmount(9700)))
	})
}

func TestInterestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InterestServiceTestSuite))
}
