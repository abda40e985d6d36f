package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/daofund-lab/fundraising-ledger/internal/api/middleware"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
)

func (s *Server) handleTokenBalance(c *fiber.Ctx) error {
	token, ok := parseWalletParam(c, "token")
	if !ok {
		return c.Status(400).JSON(map[string]string{"error": "invalid token address"})
	}
	wallet, ok := parseWalletParam(c, "wallet")
	if !ok {
		return c.Status(400).JSON(map[string]string{"error": "invalid wallet address"})
	}
	balance, err := s.tokens.BalanceOf(token, wallet)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]*models.Amount{"balance": balance})
}

type tokenTransferRequest struct {
	To     string `json:"to" validate:"required"`
	Amount string `json:"amount" validate:"required"`
}

func (s *Server) handleTokenTransfer(c *fiber.Ctx) error {
	token, ok := parseWalletParam(c, "token")
	if !ok {
		return c.Status(400).JSON(map[string]string{"error": "invalid token address"})
	}
	var req tokenTransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}
	if !common.IsHexAddress(req.To) {
		return c.Status(400).JSON(map[string]string{"error": "invalid recipient address"})
	}
	amount, err := models.NewAmountFromString(req.Amount)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid amount"})
	}

	if err := s.tokens.Transfer(token, middleware.CallerWallet(c), common.HexToAddress(req.To), amount); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}
