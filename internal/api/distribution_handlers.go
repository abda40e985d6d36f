package api

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gofiber/fiber/v2"

	"github.com/daofund-lab/fundraising-ledger/internal/api/middleware"
	"github.com/daofund-lab/fundraising-ledger/internal/models"
	"github.com/daofund-lab/fundraising-ledger/internal/services"
)

type storeDistributionRequest struct {
	Uuid                string `json:"uuid" validate:"required"`
	Token               string `json:"token" validate:"required"`
	TokensTotal         string `json:"tokens_total"`
	TokensDistributable string `json:"tokens_distributable"`
	MerkleRoot          string `json:"merkle_root"`
	Enabled             bool   `json:"enabled"`
}

func (s *Server) handleStoreDistribution(c *fiber.Ctx) error {
	var req storeDistributionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}

	total, err := models.NewAmountFromString(req.TokensTotal)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid tokens_total"})
	}
	distributable, err := models.NewAmountFromString(req.TokensDistributable)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid tokens_distributable"})
	}

	dist := &models.Distribution{
		Uuid:                req.Uuid,
		Token:               req.Token,
		TokensTotal:         total,
		TokensDistributable: distributable,
		MerkleRoot:          req.MerkleRoot,
		Enabled:             req.Enabled,
	}

	if err := s.distributions.StoreDistribution(middleware.CallerWallet(c), dist); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(dist)
}

func (s *Server) handleDistributionsState(c *fiber.Ctx) error {
	since, err := strconv.ParseInt(c.Query("since", "0"), 10, 64)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid since timestamp"})
	}
	states, err := s.distributions.DistributionsStateArray(since)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(states)
}

func (s *Server) handleCountDistributions(c *fiber.Ctx) error {
	count, err := s.distributions.DistributionsCount()
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]int64{"count": count})
}

func (s *Server) handleLastChange(c *fiber.Ctx) error {
	last, err := s.distributions.LastChangeAt()
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]int64{"last_change_at": last})
}

func (s *Server) handleGetDistribution(c *fiber.Ctx) error {
	dist, err := s.distributions.DistributionByUuid(c.Params("uuid"))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(dist)
}

func (s *Server) handleWalletClaim(c *fiber.Ctx) error {
	wallet, ok := parseWalletParam(c, "wallet")
	if !ok {
		return c.Status(400).JSON(map[string]string{"error": "invalid wallet address"})
	}
	amount, err := s.distributions.WalletClaimed(c.Params("uuid"), wallet)
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]*models.Amount{"amount": amount})
}

type depositRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func (s *Server) handleDeposit(c *fiber.Ctx) error {
	var req depositRequest
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

	if err := s.distributions.DepositTokensToDistribution(middleware.CallerWallet(c), c.Params("uuid"), amount); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

type claimRequest struct {
	MaxAmount string   `json:"max_amount" validate:"required"`
	Proof     []string `json:"proof"`
}

func (s *Server) handleClaim(c *fiber.Ctx) error {
	var req claimRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}
	maxAmount, err := models.NewAmountFromString(req.MaxAmount)
	if err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid max_amount"})
	}

	paid, err := s.distributions.Claim(middleware.CallerWallet(c), c.Params("uuid"), maxAmount, parseProof(req.Proof))
	if err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]*models.Amount{"paid": paid})
}

type claimMultipleRequest struct {
	Claims []struct {
		DistributionUuid string   `json:"distribution_uuid" validate:"required"`
		MaxAmount        string   `json:"max_amount" validate:"required"`
		Proof            []string `json:"proof"`
	} `json:"claims" validate:"required,min=1,dive"`
}

func (s *Server) handleClaimMultiple(c *fiber.Ctx) error {
	var req claimMultipleRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}

	claims := make([]services.ClaimRequest, 0, len(req.Claims))
	for _, entry := range req.Claims {
		maxAmount, err := models.NewAmountFromString(entry.MaxAmount)
		if err != nil {
			return c.Status(400).JSON(map[string]string{"error": "invalid max_amount"})
		}
		claims = append(claims, services.ClaimRequest{
			DistributionUuid: entry.DistributionUuid,
			MaxAmount:        maxAmount,
			Proof:            parseProof(entry.Proof),
		})
	}

	if err := s.distributions.ClaimMultiple(middleware.CallerWallet(c), claims); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

type importClaimsRequest struct {
	Entries []struct {
		Wallet        string `json:"wallet" validate:"required"`
		ClaimedAmount string `json:"claimed_amount" validate:"required"`
	} `json:"entries" validate:"required,min=1,dive"`
}

func (s *Server) handleImportClaims(c *fiber.Ctx) error {
	var req importClaimsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.validate.Struct(req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}

	entries := make([]services.ImportedClaim, 0, len(req.Entries))
	for _, entry := range req.Entries {
		if !common.IsHexAddress(entry.Wallet) {
			return c.Status(400).JSON(map[string]string{"error": "invalid wallet address"})
		}
		amount, err := models.NewAmountFromString(entry.ClaimedAmount)
		if err != nil {
			return c.Status(400).JSON(map[string]string{"error": "invalid claimed_amount"})
		}
		entries = append(entries, services.ImportedClaim{
			Wallet:        common.HexToAddress(entry.Wallet),
			ClaimedAmount: amount,
		})
	}

	if err := s.distributions.EmergencyImportClaims(middleware.CallerWallet(c), c.Params("uuid"), entries); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]string{"status": "ok"})
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

func (s *Server) handlePause(c *fiber.Ctx) error {
	var req pauseRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(map[string]string{"error": "invalid request body"})
	}
	if err := s.distributions.EmergencyDistributionsPause(middleware.CallerWallet(c), req.Paused); err != nil {
		return s.respondServiceError(c, err)
	}
	return c.JSON(map[string]bool{"paused": req.Paused})
}

func parseProof(raw []string) []common.Hash {
	proof := make([]common.Hash, 0, len(raw))
	for _, h := range raw {
		proof = append(proof, common.HexToHash(h))
	}
	return proof
}
