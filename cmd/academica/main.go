package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/academica-erp/academica/internal/app"
	"github.com/academica-erp/academica/internal/attendance"
	"github.com/academica-erp/academica/internal/auth"
	"github.com/academica-erp/academica/internal/branches"
	"github.com/academica-erp/academica/internal/exams"
	"github.com/academica-erp/academica/internal/fees"
	"github.com/academica-erp/academica/internal/notifications"
	"github.com/academica-erp/academica/internal/payroll"
	"github.com/academica-erp/academica/internal/platform/cache"
	"github.com/academica-erp/academica/internal/platform/db"
	"github.com/academica-erp/academica/internal/portal"
	"github.com/academica-erp/academica/internal/rbac"
	"github.com/academica-erp/academica/internal/storage"
	"github.com/academica-erp/academica/internal/students"
	"github.com/academica-erp/academica/internal/teachers"
	"github.com/academica-erp/academica/internal/timetable"
	"github.com/academica-erp/academica/internal/users"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	enqueuer := asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := enqueuer.Close(); err != nil {
			logger.Warn("asynq close", slog.Any("error", err))
		}
	}()

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

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.AccessTTL, cfg.RefreshTTL)
	refreshStore := auth.NewRefreshStore(redisClient)
	authRepo := auth.NewPGRepository(pool)
	authService := auth.NewService(authRepo, issuer, refreshStore)
	authenticator := auth.NewAuthenticator(issuer, authRepo, logger)
	authHandler := auth.NewHandler(logger, authService, authenticator)

	rbacMiddleware := rbac.Middleware{Logger: logger}

	branchesRepo := branches.NewPGRepository(pool)
	branchesHandler := branches.NewHandler(logger, branches.NewService(branchesRepo), rbacMiddleware)

	usersRepo := users.NewPGRepository(pool)
	usersHandler := users.NewHandler(logger, users.NewService(usersRepo), rbacMiddleware)

	studentsRepo := students.NewPGRepository(pool)
	studentsService := students.NewService(studentsRepo, store, enqueuer, logger)
	studentsHandler := students.NewHandler(logger, studentsService, rbacMiddleware)

	teachersRepo := teachers.NewPGRepository(pool)
	teachersService := teachers.NewService(teachersRepo)
	teachersHandler := teachers.NewHandler(logger, teachersService, rbacMiddleware)

	timetableRepo := timetable.NewPGRepository(pool)
	timetableService := timetable.NewService(timetableRepo)
	timetableHandler := timetable.NewHandler(logger, timetableService, rbacMiddleware)

	examsRepo := exams.NewPGRepository(pool)
	examsService := exams.NewService(examsRepo, timetableRepo, teachersRepo, studentsRepo)
	examsHandler := exams.NewHandler(logger, examsService, rbacMiddleware)

	attendanceRepo := attendance.NewPGRepository(pool)
	attendanceService := attendance.NewService(attendanceRepo, timetableRepo, teachersRepo, studentsRepo)
	attendanceHandler := attendance.NewHandler(logger, attendanceService, rbacMiddleware)

	feesRepo := fees.NewPGRepository(pool)
	feesService := fees.NewService(feesRepo, studentsRepo, enqueuer, logger)
	feesHandler := fees.NewHandler(logger, feesService, rbacMiddleware)

	payrollRepo := payroll.NewPGRepository(pool)
	payrollService := payroll.NewService(payrollRepo, teachersRepo, attendanceRepo, enqueuer, logger)
	payrollHandler := payroll.NewHandler(logger, payrollService, rbacMiddleware)

	notificationsRepo := notifications.NewPGRepository(pool)
	notificationsService := notifications.NewService(notificationsRepo, usersRepo, enqueuer, logger)
	notificationsHandler := notifications.NewHandler(logger, notificationsService, rbacMiddleware)

	teacherPortal := portal.NewTeacherHandler(logger, teachersRepo, timetableService, rbacMiddleware)
	studentPortal := portal.NewStudentHandler(logger, studentsService, feesService, examsService, attendanceService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:               logger,
		Config:               cfg,
		Authenticator:        authenticator,
		AuthHandler:          authHandler,
		BranchesHandler:      branchesHandler,
		UsersHandler:         usersHandler,
		StudentsHandler:      studentsHandler,
		TeachersHandler:      teachersHandler,
		TimetableHandler:     timetableHandler,
		ExamsHandler:         examsHandler,
		AttendanceHandler:    attendanceHandler,
		FeesHandler:          feesHandler,
		PayrollHandler:       payrollHandler,
		NotificationsHandler: notificationsHandler,
		TeacherPortal:        teacherPortal,
		StudentPortal:        studentPortal,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
