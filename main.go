package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/recall/internal/config"
	"github.com/example/recall/internal/database"
	"github.com/example/recall/internal/excel"
	"github.com/example/recall/internal/scheduler"
)

// logNotifier logs due-card digests. Actual delivery transports (bot, push,
// email) implement scheduler.Notifier outside this module.
type logNotifier struct {
	logger *zap.Logger
}

func (n *logNotifier) SendDigest(userID int64, dueCount int) error {
	n.logger.Info("cards due for review",
		zap.Int64("user_id", userID),
		zap.Int("due", dueCount))
	return nil
}

func main() {
	exportUser := flag.Int64("export-user", 0, "export this user's progress to a workbook and exit")
	exportFile := flag.String("export-file", "progress.xlsx", "path of the workbook to write")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	cfg := config.Load()

	if err := database.Connect(); err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// One-shot export mode
	if *exportUser != 0 {
		result, err := excel.ExportProgress(context.Background(), *exportUser, excel.DefaultExportConfig(*exportFile))
		if err != nil {
			logger.Fatal("export failed", zap.Error(err))
		}
		logger.Info("export finished",
			zap.Int64("user_id", *exportUser),
			zap.String("file", *exportFile),
			zap.Int("records", result.Records),
			zap.Int("due_now", result.DueNow))
		return
	}

	notifier := &logNotifier{logger: logger}
	digest := scheduler.New(notifier, logger)
	digest.StartHour = cfg.DigestStartHour
	digest.EndHour = cfg.DigestEndHour
	digest.Start()
	defer digest.Stop()

	logger.Info("review scheduler started", zap.String("db_type", cfg.DBType))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
