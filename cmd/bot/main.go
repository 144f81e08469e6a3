package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/alpaca"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"swingtrader/internal/broker"
	"swingtrader/internal/config"
	"swingtrader/internal/logger"
	"swingtrader/internal/market"
	"swingtrader/internal/monitoring"
	"swingtrader/internal/notifications"
	"swingtrader/internal/options"
	"swingtrader/internal/orchestrator"
	"swingtrader/internal/portfolio"
	"swingtrader/internal/report"
	"swingtrader/internal/risk"
	"swingtrader/internal/scanner"
	"swingtrader/internal/schedule"
	"swingtrader/internal/signal"
)

func main() {
	configPath := flag.String("config", "config/bot.yaml", "path to YAML config")
	flag.Parse()

	// Secrets load from .env when present; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Fall back to pure defaults when the default config file is absent.
		if *configPath == "config/bot.yaml" {
			if _, statErr := os.Stat(*configPath); os.IsNotExist(statErr) {
				cfg, err = config.Load("")
			}
		}
		if err != nil {
			log.Fatalf("config: %v", err)
		}
	}

	zlog, closeLog, err := logger.New(cfg.Logging)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer closeLog()

	zlog.Info("starting swing trading bot",
		zap.Bool("paper_mode", cfg.PaperMode),
		zap.String("state_path", cfg.StatePath))

	sched, err := schedule.New(cfg.Schedule)
	if err != nil {
		zlog.Fatal("schedule", zap.Error(err))
	}

	book, err := portfolio.NewManager(portfolio.NewStore(cfg.StatePath), sched.Location(), zlog.Named("portfolio"))
	if err != nil {
		zlog.Fatal("portfolio state", zap.Error(err))
	}

	provider := market.NewAlpacaProvider(
		cfg.Alpaca.APIKey, cfg.Alpaca.APISecret,
		cfg.Alpaca.DataURL, cfg.Alpaca.BaseURL,
		cfg.Retry,
	)

	var brk broker.Broker
	if cfg.PaperMode {
		brk = broker.NewPaper(cfg.PaperEquity)
		zlog.Info("paper broker active", zap.Float64("equity", cfg.PaperEquity))
	} else {
		brk = broker.NewAlpaca(
			cfg.Alpaca.APIKey, cfg.Alpaca.APISecret,
			cfg.Alpaca.BaseURL, cfg.Alpaca.DataURL,
			cfg.Retry, zlog.Named("alpaca"),
		)
	}

	var notifier notifications.Notifier = notifications.Noop{}
	if cfg.Telegram.Enabled {
		notifier = notifications.NewTelegramNotifier(cfg.Telegram.Token, cfg.Telegram.ChatID)
	}

	health := monitoring.NewHealthChecker()
	if cfg.Monitoring.Enabled {
		startMonitoringServers(cfg, health, zlog)
	}

	orch := orchestrator.New(orchestrator.Options{
		Schedule: sched,
		Scanner:  scanner.New(cfg.Scanner, provider, zlog.Named("scanner")),
		Provider: provider,
		Engine:   signal.NewEngine(cfg.Signal),
		Selector: options.NewSelector(cfg.Selector),
		Risk:     risk.NewManager(cfg.Risk),
		Book:     book,
		Broker:   brk,
		Recorder: report.NewRecorder(),
		Notifier: notifier,
		Health:   health,
		Log:      zlog.Named("orchestrator"),

		BrokerTimeout: time.Duration(cfg.BrokerTimeoutS) * time.Second,
		BarLookback:   cfg.BarLookback,
		ExcelDir:      cfg.Reporting.ExcelDir,
		ConsoleReport: cfg.Reporting.Console,

		IsTradingDay: tradingDayFn(cfg, sched),
	})

	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := notifier.SendAlert("info", "Swing bot started"); err != nil {
		zlog.Warn("startup notification failed", zap.Error(err))
	}

	if err := orch.Run(ctx); err != nil && err != context.Canceled {
		zlog.Error("orchestrator stopped", zap.Error(err))
	}
	zlog.Info("shutdown complete")
}

// tradingDayFn gates ticks on the exchange calendar in live mode. Paper
// mode trades every weekday.
func tradingDayFn(cfg *config.Config, sched *schedule.Schedule) func(ctx context.Context, day time.Time) (bool, error) {
	if cfg.PaperMode {
		return nil
	}
	client := alpaca.NewClient(alpaca.ClientOpts{
		APIKey:    cfg.Alpaca.APIKey,
		APISecret: cfg.Alpaca.APISecret,
		BaseURL:   cfg.Alpaca.BaseURL,
	})
	return func(ctx context.Context, day time.Time) (bool, error) {
		local := day.In(sched.Location())
		calendar, err := client.GetCalendar(alpaca.GetCalendarRequest{
			Start: local,
			End:   local,
		})
		if err != nil {
			return false, err
		}
		want := local.Format("2006-01-02")
		for _, d := range calendar {
			if d.Date == want {
				return true, nil
			}
		}
		return false, nil
	}
}

func startMonitoringServers(cfg *config.Config, health *monitoring.HealthChecker, zlog *zap.Logger) {
	healthMux := http.NewServeMux()
	healthMux.Handle("/health", health)

	go func() {
		zlog.Info("health server listening", zap.String("addr", cfg.Monitoring.HealthAddr))
		if err := http.ListenAndServe(cfg.Monitoring.HealthAddr, healthMux); err != nil {
			zlog.Error("health server", zap.Error(err))
		}
	}()

	go func() {
		zlog.Info("metrics server listening", zap.String("addr", cfg.Monitoring.MetricsAddr))
		if err := http.ListenAndServe(cfg.Monitoring.MetricsAddr, monitoring.NewMetricsHandler()); err != nil {
			zlog.Error("metrics server", zap.Error(err))
		}
	}()
}
