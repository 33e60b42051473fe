package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/academica-erp/academica/internal/app"
	"github.com/academica-erp/academica/internal/mail"
	"github.com/academica-erp/academica/internal/platform/db"
	"github.com/academica-erp/academica/internal/qr"
	"github.com/academica-erp/academica/internal/storage"
	"github.com/academica-erp/academica/jobs"
	"github.com/academica-erp/academica/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	var mailer mail.Mailer
	if cfg.SendGridKey != "" {
		mailer = mail.NewSendGridMailer(cfg.SendGridKey, "Academica", cfg.MailFrom)
	} else {
		mailer = mail.NewConsoleMailer(logger)
		logger.Warn("no sendgrid key configured, logging email to console")
	}

	var store storage.Store
	if cfg.S3Bucket != "" {
		s3Store, err := storage.NewS3Store(storage.S3Config{
			Bucket:   cfg.S3Bucket,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		})
		if err != nil {
			logger.Error("init object storage", slog.Any("error", err))
			os.Exit(1)
		}
		store = s3Store
	} else {
		store = storage.NewMemoryStore()
		logger.Warn("no bucket configured, using in-memory object storage")
	}

	qrClient := qr.NewClient(cfg.QRRenderURL)
	reportClient := report.NewClient(cfg.GotenbergURL)

	mailJob := jobs.NewMailJob(mailer, logger)
	idCardJob := jobs.NewIDCardJob(pool, qrClient, store, logger)
	voucherJob := jobs.NewVoucherPDFJob(pool, reportClient, store, mailer, logger)
	payslipJob := jobs.NewPayslipPDFJob(pool, reportClient, store, mailer, logger)

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskTypeStudentIDCard, Handler: idCardJob.Handle},
			{Type: jobs.TaskTypeVoucherPDF, Handler: voucherJob.Handle},
			{Type: jobs.TaskTypePayslipPDF, Handler: payslipJob.Handle},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker", slog.String("redis", cfg.RedisAddr))
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker stopped", slog.Any("error", err))
		os.Exit(1)
	}
}
