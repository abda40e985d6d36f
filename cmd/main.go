package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/daofund-lab/fundraising-ledger/internal/api"
	"github.com/daofund-lab/fundraising-ledger/internal/config"
	"github.com/daofund-lab/fundraising-ledger/internal/rbac"
	"github.com/daofund-lab/fundraising-ledger/internal/services"
)

// Build information (set via ldflags)
var (
	Version    = "dev"
	CommitHash = "unknown"
	BuildTime  = "unknown"
)

func main() {
	var showVersion = flag.Bool("version", false, "Show version information")
	var showHelp = flag.Bool("help", false, "Show help information")
	var devLog = flag.Bool("dev", false, "Use development (console) logging")
	flag.Parse()

	if *showVersion {
		fmt.Printf("Fundraising Ledger\n")
		fmt.Printf("Version: %s\n", Version)
		fmt.Printf("Commit: %s\n", CommitHash)
		fmt.Printf("Built: %s\n", BuildTime)
		return
	}

	if *showHelp {
		fmt.Printf("Fundraising Ledger\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		fmt.Printf("  --version    Show version information\n")
		fmt.Printf("  --help       Show this help message\n")
		fmt.Printf("  --dev        Use development (console) logging\n\n")
		fmt.Printf("Description:\n")
		fmt.Printf("  Fundraising and reward-distribution ledger: deal registry,\n")
		fmt.Printf("  interest discovery, fundraising rounds, merkle-proof claim\n")
		fmt.Printf("  distributions and wallet redirections.\n\n")
		fmt.Printf("Database: DATABASE_PATH (SQLite) or POSTGRES_URL\n")
		return
	}

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log, err := newLogger(*devLog)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("invalid configuration", zap.Error(err))
	}

	var db services.DBService
	if cfg.PostgresURL != "" {
		db, err = services.NewPostgresDBService(cfg.PostgresURL)
	} else {
		db, err = services.NewSqliteDBService(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatal("failed to initialize database", zap.Error(err))
	}
	defer db.Close()

	policy := rbac.NewPolicy()
	policy.Grant(rbac.RoleOwner, cfg.OwnerAddress)
	policy.Grant(rbac.RoleEditor, cfg.OwnerAddress)
	policy.Grant(rbac.RoleDistributor, cfg.OwnerAddress)
	for _, addr := range cfg.EditorAddresses {
		policy.Grant(rbac.RoleEditor, addr)
	}
	for _, addr := range cfg.DistributorAddresses {
		policy.Grant(rbac.RoleDistributor, addr)
	}

	membership := services.NewMembershipService(db.GetDB())
	tokens := services.NewTokenService(db.GetDB())
	deals := services.NewDealService(db.GetDB(), policy)
	interests := services.NewInterestService(db.GetDB(), policy, membership)
	fundraising := services.NewFundraisingService(db.GetDB(), policy, membership, interests, cfg.FundraisingAccount)
	walletChanges := services.NewWalletChangeService(db.GetDB(), policy)
	distributions := services.NewDistributionService(db.GetDB(), policy, walletChanges, cfg.DistributionAccount)

	server := api.NewServer(log, cfg.JWTSecret, deals, interests, fundraising, distributions, walletChanges, tokens)

	go func() {
		log.Info("server listening", zap.String("port", cfg.Port))
		if err := server.Listen(cfg.Port); err != nil {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	<-c

	log.Info("shutting down")
	if err := server.Shutdown(); err != nil {
		log.Error("error shutting down server", zap.Error(err))
	}
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
