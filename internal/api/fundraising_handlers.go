package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/daofund-lab/fundraising-ledger/internal/api/middleware"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
)

type registerInterestRequest struct {
	Amount string `json:"amount"`
}

func (s *Server) handleRegisterInterest(c *fiber.Ctx) error {
	var req registerInterestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	amount, err := models.NewAmountFromString(req.Amount)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid amount"})
	}

	if err := s.interests.RegisterInterest(middleware.CallerWallet(c), c.Params("uuid"), amount); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

type importInterestsRequest struct {
	Wallets []string `json:"wallets" validate:"required,min=1"`
	Amounts []string `json:"amounts" validate:"required,min=1"`
}

func (s *Server) handleImportInterests(c *fiber.Ctx) error {
	var req importInterestsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}
	if len(req.Wallets) != len(req.Amounts) {
		return c.Status(400).JSON(map[string]string{"error": "wallets and amounts length mismatch"})
	}

	wallets := make([]common.Address, 0, len(req.Wallets))
	amounts := make([]*models.Amount, 0, len(req.Amounts))
	for i, raw := range req.Wallets {
		if !common.IsHexAddress(raw) {
			return c.Status(400).JSON(map[string]string{"error": "invalid wallet address"})
		}
		amount, err := models.NewAmountFromString(req.Amounts[i])
		if err != nil {
			return c.Status(400).JSON(map[string]string{"error": "invalid amount"})
		}
		wallets = append(wallets, common.HexToAddress(raw))
		amounts = append(amounts, amount)
	}

	if err := s.interests.ImportOldDealInterests(middleware.CallerWallet(c), c.Params("uuid"), wallets, amounts); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

func (s *Server) handleDealInterest(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	total, err := s.interests.DealTotalInterest(uuid)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	count, err := s.interests.InterestedWalletsCount(uuid)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]interface{}{
		"total":   total,
		"wallets": count,
	})
}

func (s *Server) handleWalletInterest(c *fiber.Ctx) error {
	wallet, ok := parseWalletParam(c, "wallet")
	if !ok {
		return c.Status(400).JSON(map[string]string{"error": "invalid wallet address"})
	}
	amount, err := s.interests.WalletInterest(c.Params("uuid"), wallet)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]*models.Amount{"amount": amount})
}

type purchaseRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func (s *Server) handlePurchase(c *fiber.Ctx) error {
	var req purchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}
	amount, err := models.NewAmountFromString(req.Amount)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid amount"})
	}

	if err := s.fundraising.Purchase(middleware.CallerWallet(c), c.Params("uuid"), amount); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

func (s *Server) handleRefund(c *fiber.Ctx) error {
	if err := s.fundraising.Refund(middleware.CallerWallet(c), c.Params("uuid")); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

type withdrawRequest struct {
	Target string `json:"target" validate:"required"`
}

func (s *Server) handleWithdraw(c *fiber.Ctx) error {
	var req withdrawRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}
	if !common.IsHexAddress(req.Target) {
		return c.Status(400).JSON(map[string]string{"error": "invalid target address"})
	}

	err := s.fundraising.WithdrawFundraisedTokens(middleware.CallerWallet(c), c.Params("uuid"), common.HexToAddress(req.Target))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

func (s *Server) handleDealFundraising(c *fiber.Ctx) error {
	uuid := c.Params("uuid")
	deposits, err := s.fundraising.DealDeposits(uuid)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	withdrawals, err := s.fundraising.DealWithdrawals(uuid)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	depositors, err := s.fundraising.DealDepositorCount(uuid)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]interface{}{
		"deposits":    deposits,
		"withdrawals": withdrawals,
		"depositors":  depositors,
	})
}

func (s *Server) handleWalletDeposit(c *fiber.Ctx) error {
	wallet, ok := parseWalletParam(c, "wallet")
	if !ok {
		return c.Status(400).JSON(map[string]string{"error": "invalid wallet address"})
	}
	amount, err := s.fundraising.WalletDeposit(c.Params("uuid"), wallet)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]*models.Amount{"amount": amount})
}
