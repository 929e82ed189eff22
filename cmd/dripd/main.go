package main

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"bridgeDrip/internal/api"
	"bridgeDrip/internal/audit"
	"bridgeDrip/internal/bridge"
	"bridgeDrip/internal/chain"
	"bridgeDrip/internal/config"
	"bridgeDrip/internal/dispatch"
	"bridgeDrip/internal/eligibility"
	"bridgeDrip/internal/pipeline"
	"bridgeDrip/internal/status"
	"bridgeDrip/internal/storage/postgres"
	"bridgeDrip/internal/watcher"
)

func main() {
	root := &cobra.Command{
		Use:          "dripd",
		Short:        "Bridge gas-drip service",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("config", "", "config file path")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Watch the bridge contract and fund recipients",
		RunE:  runDrip,
	}

	runCmd.Flags().String("query-rpc", "", "destination chain RPC URL (transaction lookups)")
	runCmd.Flags().String("funding-rpc", "", "funding chain RPC URL (balances and drips)")
	runCmd.Flags().String("ws", "", "websocket endpoint for event subscriptions")
	runCmd.Flags().String("contract", "", "bridge contract address")
	runCmd.Flags().String("operator", "", "operator account address")
	runCmd.Flags().String("operator-key", "", "operator private key (hex)")
	runCmd.Flags().String("min-balance", "", "skip drips above this native balance")
	runCmd.Flags().String("drip-amount", "", "fixed drip amount in native units")
	runCmd.Flags().String("gas-price", "2000000000000000", "gas price in wei")
	runCmd.Flags().Uint64("gas-limit", 3000000, "gas limit per drip")
	runCmd.Flags().Duration("rpc-timeout", 30*time.Second, "per-call RPC timeout")
	runCmd.Flags().Duration("receipt-timeout", 2*time.Minute, "confirmation wait timeout")
	runCmd.Flags().Int("workers", 4, "pipeline worker count")
	runCmd.Flags().Int("queue-size", 64, "event queue capacity")
	runCmd.Flags().String("status-file", "./data/status.json", "status record path")
	runCmd.Flags().String("audit-log", "./data/audit.log", "audit log path")
	runCmd.Flags().String("blacklist", "./blacklist.json", "blacklist JSON path")
	runCmd.Flags().String("pg-dsn", "", "optional Postgres DSN for disbursement history")
	runCmd.Flags().String("http-listen", ":3000", "status API listen address")
	runCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")

	root.AddCommand(runCmd)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDrip(cmd *cobra.Command, _ []string) error {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync()

	if !common.IsHexAddress(cfg.Contract) {
		return fmt.Errorf("invalid bridge contract address: %s", cfg.Contract)
	}
	contract := common.HexToAddress(cfg.Contract)

	if !common.IsHexAddress(cfg.Operator) {
		return fmt.Errorf("invalid operator address: %s", cfg.Operator)
	}
	operator := common.HexToAddress(cfg.Operator)

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(cfg.OperatorKey, "0x"))
	if err != nil {
		return fmt.Errorf("parse operator key: %w", err)
	}

	minBalance, err := decimal.NewFromString(cfg.MinBalance)
	if err != nil {
		return fmt.Errorf("parse min balance: %w", err)
	}
	dripAmount, err := decimal.NewFromString(cfg.DripAmount)
	if err != nil {
		return fmt.Errorf("parse drip amount: %w", err)
	}
	gasPrice, ok := new(big.Int).SetString(cfg.GasPriceWei, 10)
	if !ok {
		return fmt.Errorf("parse gas price: %s", cfg.GasPriceWei)
	}

	blacklist, err := eligibility.LoadBlacklist(cfg.Blacklist)
	if err != nil {
		return err
	}

	decoder, err := bridge.NewDecoder()
	if err != nil {
		return fmt.Errorf("parse bridge abi: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queryClient, err := chain.NewClient(ctx, cfg.QueryRPCURL, cfg.RPCTimeout)
	if err != nil {
		return fmt.Errorf("connect query rpc: %w", err)
	}
	defer queryClient.Close()

	fundingClient, err := chain.NewClient(ctx, cfg.FundingRPCURL, cfg.RPCTimeout)
	if err != nil {
		return fmt.Errorf("connect funding rpc: %w", err)
	}
	defer fundingClient.Close()

	wsClient, err := chain.NewClient(ctx, cfg.WSURL, 0)
	if err != nil {
		return fmt.Errorf("connect websocket: %w", err)
	}
	defer wsClient.Close()

	chainID, err := fundingClient.GetChainID(ctx)
	if err != nil {
		return fmt.Errorf("funding chain id: %w", err)
	}

	auditLog := audit.NewLog(cfg.AuditLog)
	statusStore := status.NewStore(cfg.StatusFile, operator, fundingClient, logger)

	var history dispatch.History
	if cfg.PGDSN != "" {
		pgStore, err := postgres.NewStore(ctx, cfg.PGDSN)
		if err != nil {
			return fmt.Errorf("connect postgres: %w", err)
		}
		defer pgStore.Close()
		history = pgStore
	}

	dispatcher, err := dispatch.NewDispatcher(dispatch.Config{
		Operator:       operator,
		PrivateKey:     privateKey,
		ChainID:        chainID,
		DripAmount:     dripAmount,
		GasPrice:       gasPrice,
		GasLimit:       cfg.GasLimit,
		ReceiptTimeout: cfg.ReceiptTimeout,
	}, fundingClient, statusStore, auditLog, history, logger)
	if err != nil {
		return err
	}

	filter := eligibility.NewFilter(queryClient, fundingClient, blacklist, minBalance, logger)

	pipe := pipeline.New(cfg.Workers, cfg.QueueSize, filter, dispatcher, auditLog, logger)
	// Workers keep draining the queue after a shutdown signal; every RPC
	// they make is bounded by the configured timeouts.
	pipe.Start(context.Background())

	handler := api.NewHandler(statusStore, auditLog, logger)
	server := &http.Server{
		Addr:    cfg.HTTPListen,
		Handler: api.SetupRouter(handler, logger),
	}
	go func() {
		logger.Info("status API listening", zap.String("addr", cfg.HTTPListen))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("status API failed", zap.Error(err))
		}
	}()

	logger.Info("drip service start",
		zap.String("contract", contract.Hex()),
		zap.String("operator", operator.Hex()),
		zap.String("chain_id", chainID.String()),
		zap.String("min_balance", minBalance.String()),
		zap.String("drip_amount", dripAmount.String()),
		zap.Int("blacklist_size", blacklist.Len()),
		zap.Int("workers", cfg.Workers),
	)

	runErr := watcher.New(watcher.Config{Contract: contract}, wsClient, decoder, pipe, logger).Run(ctx)
	if errors.Is(runErr, context.Canceled) {
		runErr = nil
	}

	pipe.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("status API shutdown", zap.Error(err))
	}

	return runErr
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
