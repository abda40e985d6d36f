package services_test

import (
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
	"github.com/daofund-lab/fundraising-ledger/internal/utils"
)

// Anvil account #0
const signerKey = "0xac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

type WalletChangeServiceTestSuite struct {
	suite.Suite
	env *testEnv
}

func (suite *WalletChangeServiceTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.Require())
}

func (suite *WalletChangeServiceTestSuite) TearDownTest() {
	suite.env.close()
}

func testChange(uuid string, from, to common.Address) *models.WalletChange {
	return &models.WalletChange{Uuid: uuid, WalletFrom: from.Hex(), WalletTo: to.Hex()}
}

func (suite *WalletChangeServiceTestSuite) TestStoreRequiresOwner() {
	err := suite.env.walletChanges.StoreWalletChange(editorAddr, testChange("change-1", wallet1, wallet2))
	var denied *ledger.AccessDeniedError
	suite.Require().True(errors.As(err, &denied))
	suite.Equal("owner", denied.Role)
}

func (suite *WalletChangeServiceTestSuite) TestStoreValidation() {
	assertCode := func(change *models.WalletChange, code string) {
		err := suite.env.walletChanges.StoreWalletChange(ownerAddr, change)
		var invalid *ledger.InvalidDataError
		suite.Require().True(errors.As(err, &invalid), "expected code %s, got %v", code, err)
		suite.Equal(code, invalid.Code)
	}

	suite.Run("empty uuid", func() {
		assertCode(testChange("", wallet1, wallet2), ledger.CodeChangeUuid)
	})

	suite.Run("invalid source", func() {
		assertCode(testChange("change-1", common.Address{}, wallet2), ledger.CodeChangeFrom)
	})

	suite.Run("source equals target", func() {
		assertCode(testChange("change-1", wallet1, wallet1), ledger.CodeChangeFromTo)
	})

	suite.Run("invalid target", func() {
		assertCode(testChange("change-1", wallet1, common.Address{}), ledger.CodeChangeTo)
	})
}

func (suite *WalletChangeServiceTestSuite) TestStoreSignatureVerification() {
	signer, err := utils.AddressForPrivateKey(signerKey)
	suite.Require().NoError(err)

	message := "redirect my claims to the new wallet"
	signature, err := utils.SignPersonalMessage(signerKey, message)
	suite.Require().NoError(err)

	suite.Run("valid signature from the source wallet", func() {
		change := testChange("change-signed", signer, wallet2)
		change.Signature = signature
		change.Message = message
		suite.NoError(suite.env.walletChanges.StoreWalletChange(ownerAddr, change))
	})

	suite.Run("signature from a different wallet", func() {
		change := testChange("change-forged", wallet3, wallet4)
		change.Signature = signature
		change.Message = message
		err := suite.env.walletChanges.StoreWalletChange(ownerAddr, change)
		suite.ErrorIs(err, ledger.ErrInvalidSignature)
	})

	suite.Run("garbage signature", func() {
		change := testChange("change-garbage", wallet3, wallet4)
		change.Signature = "0x1234"
		change.Message = message
		err := suite.env.walletChanges.StoreWalletChange(ownerAddr, change)
		suite.ErrorIs(err, ledger.ErrInvalidSignature)
	})
}

func (suite *WalletChangeServiceTestSuite) TestDuplicateChecks() {
	suite.Require().NoError(suite.env.walletChanges.StoreWalletChange(ownerAddr, testChange("change-1", wallet1, wallet2)))

	assertExists := func(change *models.WalletChange, code string) {
		err := suite.env.walletChanges.StoreWalletChange(ownerAddr, change)
		var exists *ledger.DataAlreadyExistsError
		suite.Require().True(errors.As(err, &exists), "expected code %s, got %v", code, err)
		suite.Equal(code, exists.Code)
	}

	suite.Run("duplicate uuid", func() {
		assertExists(testChange("change-1", wallet3, wallet4), "UUID")
	})

	suite.Run("source already mapped", func() {
		assertExists(testChange("change-2", wallet1, wallet4), "DWF")
	})

	suite.Run("target already mapped", func() {
		assertExists(testChange("change-2", wallet3, wallet2), "DWT")
	})
}

func (suite *WalletChangeServiceTestSuite) TestRemoveAndReRegister() {
	suite.Require().NoError(suite.env.walletChanges.StoreWalletChange(ownerAddr, testChange("change-1", wallet1, wallet2)))

	suite.Run("requires owner", func() {
		err := suite.env.walletChanges.RemoveWalletChange(editorAddr, "change-1")
		var denied *ledger.AccessDeniedError
		suite.True(errors.As(err, &denied))
	})

	suite.Run("unknown uuid", func() {
		err := suite.env.walletChanges.RemoveWalletChange(ownerAddr, "missing")
		suite.ErrorIs(err, ledger.ErrDataNotExists)
	})

	suite.Run("soft delete keeps history", func() {
		suite.Require().NoError(suite.env.walletChanges.RemoveWalletChange(ownerAddr, "change-1"))

		change, err := suite.env.walletChanges.GetWalletChange("change-1")
		suite.Require().NoError(err)
		suite.False(change.Active())

		// removing twice fails, the active row is gone
		err = suite.env.walletChanges.RemoveWalletChange(ownerAddr, "change-1")
		suite.ErrorIs(err, ledger.ErrDataNotExists)
	})

	suite.Run("pair can be mapped again", func() {
		suite.NoError(suite.env.walletChanges.StoreWalletChange(ownerAddr, testChange("change-2", wallet1, wallet2)))
	})
}

func (suite *WalletChangeServiceTestSuite) TestTranslateAddressToSourceAddress() {
	suite.Require().NoError(suite.env.walletChanges.StoreWalletChange(ownerAddr, testChange("change-1", wallet1, wallet2)))

	suite.Run("target resolves to source", func() {
		source, err := suite.env.walletChanges.TranslateAddressToSourceAddress(wallet2)
		suite.Require().NoError(err)
		suite.Equal(wallet1, source)
	})

	suite.Run("superseded source is locked out", func() {
		_, err := suite.env.walletChanges.TranslateAddressToSourceAddress(wallet1)
		suite.ErrorIs(err, ledger.ErrAddressAlreadyRedirected)
	})

	suite.Run("unrelated wallet resolves to itself", func() {
		source, err := suite.env.walletChanges.TranslateAddressToSourceAddress(wallet3)
		suite.Require().NoError(err)
		suite.Equal(wallet3, source)
	})

	suite.Run("removal restores identity", func() {
		suite.Require().NoError(suite.env.walletChanges.RemoveWalletChange(ownerAddr, "change-1"))

		source, err := suite.env.walletChanges.TranslateAddressToSourceAddress(wallet1)
		suite.Require().NoError(err)
		suite.Equal(wallet1, source)

		source, err = suite.env.walletChanges.TranslateAddressToSourceAddress(wallet2)
		suite.Require().NoError(err)
		suite.Equal(wallet2, source)
	})
}

func TestWalletChangeServiceTestSuite(t *testing.T) {
	suite.Run(t, new(WalletChangeServiceTestSuite))
}
