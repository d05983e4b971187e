package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pointshub/config"
	"pointshub/core/events"
	"pointshub/core/state"
	"pointshub/native/points"
	"pointshub/native/points/creditcard"
	"pointshub/native/points/hub"
	"pointshub/native/points/merkleclaim"
	"pointshub/native/points/timeweighted"
	"pointshub/observability/logging"
	"pointshub/observability/metrics"
	"pointshub/storage"
)

const (
	moduleHolding   = "holding"
	moduleLiquidity = "liquidity"
	moduleStaking   = "staking"
	moduleActivity  = "activity"
)

// logSink bridges engine events onto the structured logger and the
// prometheus registry.
type logSink struct {
	logger interface {
		Info(msg string, args ...any)
	}
	metrics *metrics.PointsMetrics
}

func (s *logSink) AppendEvent(evt events.Event) {
	rendered := evt.Event()
	args := make([]any, 0, len(rendered.Attributes)*2)
	for k, v := range rendered.Attributes {
		args = append(args, k, v)
	}
	s.logger.Info(rendered.Type, args...)

	switch e := evt.(type) {
	case events.PoolCheckpoint:
		s.metrics.ObserveCheckpoint(e.Module, e.Credited)
	case events.StakeCheckpoint:
		s.metrics.ObserveCheckpoint(e.Module, e.Credited)
	case events.ClaimSettled:
		s.metrics.ObserveClaimSettled()
	case events.ClaimSkipped:
		s.metrics.ObserveClaimSkipped(e.Reason)
	case events.RootActivated:
		s.metrics.ObserveRootActivated()
	case events.Redeemed:
		s.metrics.ObserveRedemption()
	case events.ModuleFault:
		s.metrics.ObserveModuleFault(e.Name)
	}
}

func main() {
	configFile := flag.String("config", "./points.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("POINTS_ENV"))
	logger := logging.Setup("pointsd", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(filepath.Join(cfg.DataDir, "ledger"))
	if err != nil {
		logger.Error("failed to open ledger database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	sink := &logSink{logger: logger, metrics: metrics.Points()}
	manager := state.NewManager(db, sink)
	clock := points.SystemClock{BlockInterval: time.Duration(cfg.BlockIntervalSeconds) * time.Second}
	guard := points.FlashLoanGuard{MinHoldingBlocks: cfg.MinHoldingBlocks}

	holding := timeweighted.NewEngine(moduleHolding, manager, clock, guard)
	liquidity := timeweighted.NewEngine(moduleLiquidity, manager, clock, guard)
	staking, err := creditcard.NewEngine(moduleStaking, manager, clock, guard, creditcard.Config{
		RatePerSecond: cfg.StakingRate(),
		Schedule: creditcard.BoostSchedule{
			MinLockDays: cfg.MinLockDays,
			MaxLockDays: cfg.MaxLockDays,
			MaxExtraBps: cfg.MaxExtraBoostBps,
		},
		MaxPositions: cfg.MaxPositionsPerOwner,
		PenaltyBps:   cfg.EarlyExitPenaltyBps,
	})
	if err != nil {
		logger.Error("failed to wire staking engine", "error", err)
		os.Exit(1)
	}
	activity := merkleclaim.NewLedger(moduleActivity, manager, clock, merkleclaim.Config{
		RootDelay:       time.Duration(cfg.RootDelayHours) * time.Hour,
		HistoryCapacity: cfg.HistoryCapacity,
		MaxBatch:        cfg.MaxBatchSize,
	})

	if err := holding.SetRate(cfg.HoldingRate()); err != nil {
		logger.Error("failed to set holding rate", "error", err)
		os.Exit(1)
	}
	if err := liquidity.SetRate(cfg.LiquidityRate()); err != nil {
		logger.Error("failed to set liquidity rate", "error", err)
		os.Exit(1)
	}

	aggregator := hub.New(manager)
	for _, m := range []points.Module{holding, liquidity, staking, activity} {
		if err := aggregator.RegisterModule(m); err != nil {
			logger.Error("failed to register module", "module", m.ModuleName(), "error", err)
			os.Exit(1)
		}
	}
	aggregator.SetPenaltyModule(activity)
	if err := aggregator.SetExchangeRate(cfg.ExchangeRateAmount()); err != nil {
		logger.Error("failed to set exchange rate", "error", err)
		os.Exit(1)
	}
	aggregator.SetRedeemEnabled(cfg.RedeemEnabled)
	aggregator.SetMaxRedeemPerTx(cfg.MaxRedeemPerTxAmount())

	if cfg.MetricsAddress != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			logger.Info("metrics listener starting", "address", cfg.MetricsAddress)
			if err := http.ListenAndServe(cfg.MetricsAddress, mux); err != nil {
				logger.Error("metrics listener stopped", "error", err)
			}
		}()
	}

	// The keeper drives periodic root activation through the same open
	// entry points any caller could use; correctness never depends on it.
	ticker := time.NewTicker(time.Duration(cfg.KeeperIntervalSeconds) * time.Second)
	defer ticker.Stop()
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	logger.Info("pointsd started", "dataDir", cfg.DataDir)
	for {
		select {
		case <-ticker.C:
			switch err := activity.ActivateRoot(); err {
			case nil:
				logger.Info("keeper activated pending root")
			case merkleclaim.ErrNoPendingRoot, merkleclaim.ErrRootNotReady:
				// Nothing ready this tick.
			default:
				logger.Error("keeper root activation failed", "error", err)
			}
		case sig := <-stop:
			logger.Info("shutting down", "signal", fmt.Sprint(sig))
			return
		}
	}
}
