package api

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"go.uber.org/zap"

	"github.com/daofund-lab/fundraising-ledger/internal/api/middleware"
	"github.com/daofund-lab/fundraising-ledger/internal/ledger"
	"github.com/daofund-lab/fundraising-ledger/internal/services"
)

// Server exposes the ledger services over HTTP. Handlers are pure glue:
// every invariant lives in the services.
type Server struct {
	app      *fiber.App
	log      *zap.Logger
	validate *validator.Validate

	deals         services.DealService
	interests     services.InterestService
	fundraising   services.FundraisingService
	distributions services.DistributionService
	walletChanges services.WalletChangeService
	tokens        services.TokenService
}

// NewServer wires the fiber app, middleware and routes.
func NewServer(
	log *zap.Logger,
	jwtSecret string,
	deals services.DealService,
	interests services.InterestService,
	fundraising services.FundraisingService,
	distributions services.DistributionService,
	walletChanges services.WalletChangeService,
	tokens services.TokenService,
) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	s := &Server{
		app:           app,
		log:           log,
		validate:      validator.New(),
		deals:         deals,
		interests:     interests,
		fundraising:   fundraising,
		distributions: distributions,
		walletChanges: walletChanges,
		tokens:        tokens,
	}
	s.setupRoutes(jwtSecret)
	return s
}

func (s *Server) setupRoutes(jwtSecret string) {
	auth := middleware.RequireWallet(jwtSecret)

	// Deal registry
	s.app.Get("/api/deals", s.handleListDeals)
	s.app.Get("/api/deals/count", s.handleCountDeals)
	s.app.Get("/api/deals/:uuid", s.handleGetDeal)
	s.app.Post("/api/deals", auth, s.handleStoreDeal)

	// Interest ledger
	s.app.Get("/api/deals/:uuid/interest", s.handleDealInterest)
	s.app.Get("/api/deals/:uuid/interest/:wallet", s.handleWalletInterest)
	s.app.Post("/api/deals/:uuid/interest", auth, s.handleRegisterInterest)
	s.app.Post("/api/deals/:uuid/interest/import", auth, s.handleImportInterests)

	// Contribution ledger
	s.app.Get("/api/deals/:uuid/fundraising", s.handleDealFundraising)
	s.app.Get("/api/deals/:uuid/fundraising/:wallet", s.handleWalletDeposit)
	s.app.Post("/api/deals/:uuid/purchase", auth, s.handlePurchase)
	s.app.Post("/api/deals/:uuid/refund", auth, s.handleRefund)
	s.app.Post("/api/deals/:uuid/withdraw", auth, s.handleWithdraw)

	// Distribution engine
	s.app.Get("/api/distributions", s.handleDistributionsState)
	s.app.Get("/api/distributions/count", s.handleCountDistributions)
	s.app.Get("/api/distributions/last-change", s.handleLastChange)
	s.app.Get("/api/distributions/:uuid", s.handleGetDistribution)
	s.app.Get("/api/distributions/:uuid/claims/:wallet", s.handleWalletClaim)
	s.app.Post("/api/distributions", auth, s.handleStoreDistribution)
	s.app.Post("/api/distributions/pause", auth, s.handlePause)
	s.app.Post("/api/distributions/:uuid/deposit", auth, s.handleDeposit)
	s.app.Post("/api/distributions/:uuid/claim", auth, s.handleClaim)
	s.app.Post("/api/distributions/:uuid/import-claims", auth, s.handleImportClaims)
	s.app.Post("/api/claims", auth, s.handleClaimMultiple)

	// Wallet redirection
	s.app.Get("/api/wallet-changes/:uuid", s.handleGetWalletChange)
	s.app.Get("/api/wallet-changes/translate/:address", s.handleTranslateAddress)
	s.app.Post("/api/wallet-changes", auth, s.handleStoreWalletChange)
	s.app.Delete("/api/wallet-changes/:uuid", auth, s.handleRemoveWalletChange)

	// token balances
	s.app.Get("/api/tokens/:token/balance/:wallet", s.handleTokenBalance)
	s.app.Post("/api/tokens/:token/transfer", auth, s.handleTokenTransfer)
}

// App returns the fiber app, used by tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves HTTP on the given port until Shutdown.
func (s *Server) Listen(port string) error {
	return s.app.Listen(":" + port)
}

func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// respondServiceError maps typed ledger failures onto HTTP statuses.
func (s *Server) respondServiceError(c *fiber.Ctx, err error) error {
	var accessDenied *ledger.AccessDeniedError
	if errors.As(err, &accessDenied) {
		return c.Status(403).JSON(map[string]string{"error": err.Error()})
	}

	switch {
	case errors.Is(err, ledger.ErrUnknownDeal),
		errors.Is(err, ledger.ErrDataNotExists),
		errors.Is(err, ledger.ErrOutOfBounds):
		return c.Status(404).JSON(map[string]string{"error": err.Error()})
	}

	var invalidData *ledger.InvalidDataError
	var invalidParams *ledger.InvalidParamsError
	var alreadyExists *ledger.DataAlreadyExistsError
	switch {
	case errors.As(err, &invalidData):
		return c.Status(400).JSON(map[string]string{"error": err.Error(), "code": invalidData.Code})
	case errors.As(err, &invalidParams):
		return c.Status(400).JSON(map[string]string{"error": err.Error(), "code": invalidParams.Code})
	case errors.As(err, &alreadyExists):
		return c.Status(409).JSON(map[string]string{"error": err.Error(), "code": alreadyExists.Code})
	}

	if isLedgerError(err) {
		return c.Status(400).JSON(map[string]string{"error": err.Error()})
	}

	s.log.Error("internal error", zap.Error(err))
	return c.Status(500).JSON(map[string]string{"error": "internal error"})
}

func isLedgerError(err error) bool {
	for _, known := range []error{
		ledger.ErrNotDaoMember,
		ledger.ErrInterestDiscoveryNotActive,
		ledger.ErrFundraisingNotAllowed,
		ledger.ErrOnlyPreregisteredAmountAllowed,
		ledger.ErrMinimumNotMet,
		ledger.ErrMaximumNotMet,
		ledger.ErrTotalAllocationReached,
		ledger.ErrInvalidAmount,
		ledger.ErrNotEnoughTokens,
		ledger.ErrRefundNotAllowed,
		ledger.ErrNothingToRefund,
		ledger.ErrNothingToWithdraw,
		ledger.ErrZeroAddress,
		ledger.ErrDisabled,
		ledger.ErrInvalidMerkleProof,
		ledger.ErrNothingToClaim,
		ledger.ErrAddressAlreadyRedirected,
		ledger.ErrInvalidSignature,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}
