package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/hiyoco-of-piyo/sedori-auto/internal/entity"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/config"
	delivery "github.com/hiyoco-of-piyo/sedori-auto/internal/updater/delivery/http"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/fetcher"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/metrics"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/repository"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/service"
	"github.com/hiyoco-of-piyo/sedori-auto/internal/updater/strategy"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/logger"
	"github.com/hiyoco-of-piyo/sedori-auto/pkg/telegram"
)

var (
	configPath string
	maxItems   int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Executes one price-update run over the ledger",
	Run:   runRun,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Prints the last run checkpoint",
	Run:   runStatus,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the status API server",
	Run:   runServe,
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs the updater on the configured cron schedule",
	Run:   runSchedule,
}

var probeCmd = &cobra.Command{
	Use:   "probe <jan-code>",
	Short: "Looks up a single JAN code without touching the ledger",
	Args:  cobra.ExactArgs(1),
	Run:   runProbe,
}

// app holds the wired components shared by the subcommands.
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	metrics  *metrics.Metrics
	fetcher  *fetcher.Fetcher
	progress repository.ProgressRepository
}

func bootstrap() *app {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	m := metrics.New()

	f, err := fetcher.New(&cfg.Scraper, appLogger, m)
	if err != nil {
		appLogger.Fatal("Failed to initialize fetcher", logger.ErrorField(err))
	}

	progress, err := repository.NewFileProgressRepository(cfg.Progress.Dir, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize progress store", logger.ErrorField(err))
	}

	return &app{cfg: cfg, logger: appLogger, metrics: m, fetcher: f, progress: progress}
}

func (a *app) buildRunner() *service.BatchRunner {
	ledger, err := repository.NewLedger(context.Background(), &a.cfg.Ledger, a.logger)
	if err != nil {
		a.logger.Fatal("Failed to initialize ledger backend", logger.ErrorField(err))
	}

	var notifier telegram.Notifier
	if a.cfg.Telegram.BotToken != "" {
		notifier, err = telegram.NewClient(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID)
		if err != nil {
			a.logger.Fatal("Failed to initialize Telegram client", logger.ErrorField(err))
		}
	}

	extractor := strategy.NewExtractor(a.fetcher, a.logger)
	source := service.NewWorkItemSource(ledger, a.cfg.Runner.NumericOnly, a.logger)
	syncWriter := service.NewLedgerSyncWriter(ledger, a.cfg.Ledger.WriteCooldown, a.logger, a.metrics)

	return service.NewBatchRunner(a.fetcher, extractor, source, a.progress, syncWriter, notifier,
		&a.cfg.Runner, a.logger, a.metrics)
}

func runRun(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap()
	defer func() { _ = a.logger.Sync() }()

	a.logger.Info("Starting price update run", logger.Field("name", a.cfg.App.Name))
	if err := a.buildRunner().Run(ctx, maxItems); err != nil {
		a.logger.Fatal("Run failed", logger.ErrorField(err))
	}
}

func runStatus(cmd *cobra.Command, args []string) {
	a := bootstrap()
	defer func() { _ = a.logger.Sync() }()

	p, err := a.progress.Load(context.Background())
	if err != nil {
		if err == repository.ErrNoProgress {
			p = &entity.JobProgress{}
		} else {
			a.logger.Fatal("Failed to load progress", logger.ErrorField(err))
		}
	}

	out, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		a.logger.Fatal("Failed to encode progress", logger.ErrorField(err))
	}
	fmt.Println(string(out))
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap()
	defer func() { _ = a.logger.Sync() }()

	e := echo.New()
	e.HideBanner = true

	handler := delivery.NewStatusHandler(a.progress, a.metrics, a.logger)
	handler.RegisterRoutes(e)

	go func() {
		addr := fmt.Sprintf("%s:%d", a.cfg.API.Host, a.cfg.API.Port)
		a.logger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		a.logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
}

func runSchedule(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap()
	defer func() { _ = a.logger.Sync() }()

	runner := a.buildRunner()
	c := cron.New()
	_, err := c.AddFunc(a.cfg.Schedule.Cron, func() {
		if err := runner.Run(ctx, maxItems); err != nil {
			a.logger.Error("Scheduled run failed", logger.ErrorField(err))
		}
	})
	if err != nil {
		a.logger.Fatal("Invalid cron expression", logger.ErrorField(err))
	}

	a.logger.Info("Scheduler started", logger.StringField("cron", a.cfg.Schedule.Cron))
	c.Start()

	<-ctx.Done()
	a.logger.Info("Shutting down scheduler...")
	<-c.Stop().Done()
}

func runProbe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := bootstrap()
	defer func() { _ = a.logger.Sync() }()

	janCode := args[0]
	extractor := strategy.NewExtractor(a.fetcher, a.logger)

	searchURL := a.fetcher.SearchURL(janCode)
	outcome := a.fetcher.Fetch(ctx, searchURL)
	if !outcome.OK() {
		a.logger.Fatal("Fetch failed",
			logger.StringField("url", searchURL),
			logger.StringField("status", string(outcome.Status)),
			logger.IntField("code", outcome.Code))
	}

	res := extractor.Extract(ctx, janCode, outcome)
	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		a.logger.Fatal("Failed to encode result", logger.ErrorField(err))
	}
	fmt.Println(string(out))
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "sedori-auto",
		Short: "A CLI for the buyback price-update engine",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	runCmd.Flags().IntVar(&maxItems, "max-items", 0, "Cap the number of items processed (0 = all)")
	scheduleCmd.Flags().IntVar(&maxItems, "max-items", 0, "Cap the number of items processed per run (0 = all)")

	rootCmd.AddCommand(runCmd, statusCmd, serveCmd, scheduleCmd, probeCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing sedori-auto CLI: %s\n", err)
		os.Exit(1)
	}
}
