package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/daofund-lab/fundraising-ledger/internal/api/middleware"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
)

type storeWalletChangeRequest struct {
	Uuid       string `json:"uuid"`
	WalletFrom string `json:"wallet_from" validate:"required"`
	WalletTo   string `json:"wallet_to" validate:"required"`
	Signature  string `json:"signature"`
	Message    string `json:"message"`
}

func (s *Server) handleStoreWalletChange(c *fiber.Ctx) error {
	var req storeWalletChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}
	if req.Uuid == "" {
		req.Uuid = uuid.New().String()
	}

	change := &models.WalletChange{
		Uuid:       req.Uuid,
		WalletFrom: req.WalletFrom,
		WalletTo:   req.WalletTo,
		Signature:  req.Signature,
		Message:    req.Message,
	}

	if err := s.walletChanges.StoreWalletChange(middleware.CallerWallet(c), change); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(change)
}

func (s *Server) handleRemoveWalletChange(c *fiber.Ctx) error {
	if err := s.walletChanges.RemoveWalletChange(middleware.CallerWallet(c), c.Params("uuid")); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

func (s *Server) handleGetWalletChange(c *fiber.Ctx) error {
	change, err := s.walletChanges.GetWalletChange(c.Params("uuid"))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(change)
}

func (s *Server) handleTranslateAddress(c *fiber.Ctx) error {
	addr, ok := parseWalletParam(c, "address")
	if !ok {
		return c.Status(400).JSON(map[string]string{"error": "invalid wallet address"})
	}
	source, err := s.walletChanges.TranslateAddressToSourceAddress(addr)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"source": source.Hex()})
}
