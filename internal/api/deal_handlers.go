package api

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/daofund-lab/fundraising-ledger/internal/api/middleware"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
)

type storeDealRequest struct {
	Uuid                           string `json:"uuid" validate:"required"`
	InterestDiscoveryActive        bool   `json:"interest_discovery_active"`
	FundraisingActiveForRegistered bool   `json:"fundraising_active_for_registered"`
	FundraisingActiveForEveryone   bool   `json:"fundraising_active_for_everyone"`
	RefundAllowed                  bool   `json:"refund_allowed"`
	MinAllocation                  string `json:"min_allocation"`
	MaxAllocation                  string `json:"max_allocation"`
	TotalAllocation                string `json:"total_allocation"`
	CollectedToken                 string `json:"collected_token" validate:"required"`
}

func (s *Server) handleStoreDeal(c *fiber.Ctx) error {
	var req storeDealRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}

	minAlloc, err := models.NewAmountFromString(req.MinAllocation)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid min_allocation"})
	}
	maxAlloc, err := models.NewAmountFromString(req.MaxAllocation)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid max_allocation"})
	}
	totalAlloc, err := models.NewAmountFromString(req.TotalAllocation)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid total_allocation"})
	}

	deal := &models.Deal{
		Uuid:                           req.Uuid,
		InterestDiscoveryActive:        req.InterestDiscoveryActive,
		FundraisingActiveForRegistered: req.FundraisingActiveForRegistered,
		FundraisingActiveForEveryone:   req.FundraisingActiveForEveryone,
		RefundAllowed:                  req.RefundAllowed,
		MinAllocation:                  minAlloc,
		MaxAllocation:                  maxAlloc,
		TotalAllocation:                totalAlloc,
		CollectedToken:                 req.CollectedToken,
	}

	if err := s.deals.StoreDeal(middleware.CallerWallet(c), deal); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(deal)
}

func (s *Server) handleListDeals(c *fiber.Ctx) error {
	count, err := s.deals.CountDeals()
	if err != nil {
		return s.respondServiceError(c, err)
	}

	deals := make([]*models.Deal, 0, count)
	for i := 0; int64(i) < count; i++ {
		deal, err := s.deals.GetDealById(i)
		if err != nil {
			return s.respondServiceError(c, err)
		}
		deals = append(deals, deal)
	}
	return c.JSON(deals)
}

func (s *Server) handleCountDeals(c *fiber.Ctx) error {
	count, err := s.deals.CountDeals()
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]int64{"count": count})
}

func (s *Server) handleGetDeal(c *fiber.Ctx) error {
	deal, err := s.deals.GetDealByUuid(c.Params("uuid"))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(deal)
}

// parseWalletParam reads and validates an address path parameter.
func parseWalletParam(c *fiber.Ctx, name string) (common.Address, bool) {
	raw := c.Params(name)
	if !common.IsHexAddress(raw) {
		return common.Address{}, false
	}
	return common.HexToAddress(raw), true
}
