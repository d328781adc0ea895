package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/config"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	appHTTP "github.com/cmlabs-hris/hris-payroll-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cachebus"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/debounce"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/lock"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-payroll-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-payroll-go/internal/service/attendance"
	chargeService "github.com/cmlabs-hris/hris-payroll-go/internal/service/charge"
	loanService "github.com/cmlabs-hris/hris-payroll-go/internal/service/loan"
	payrollService "github.com/cmlabs-hris/hris-payroll-go/internal/service/payroll"
	policyService "github.com/cmlabs-hris/hris-payroll-go/internal/service/policy"
	reportService "github.com/cmlabs-hris/hris-payroll-go/internal/service/report"
	"github.com/go-chi/httplog/v3"
	"github.com/redis/go-redis/v9"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-payroll"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolConfig{
		MaxConns:       int32(cfg.Database.MaxConns),
		MinConns:       int32(cfg.Database.MinConns),
		ConnectTimeout: 10 * time.Second,
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	location := cfg.Location()

	var (
		debounceStore debounce.Store
		monthLocker   lock.Locker
		cacheBus      cachebus.Publisher = cachebus.Local{}
		redisBus      *cachebus.RedisBus
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		debounceStore = debounce.NewRedisStore(rdb, cfg.Redis.KeyPrefix)
		monthLocker = lock.NewRedisLocker(rdb, cfg.Redis.KeyPrefix)
		redisBus = cachebus.NewRedisBus(rdb, cfg.Redis.KeyPrefix)
		cacheBus = redisBus
		logger.Info("using redis for punch debounce, month locks and cache invalidation", "addr", cfg.Redis.Addr)
	} else {
		memoryStore := debounce.NewMemoryStore(time.Minute)
		defer memoryStore.Close()
		debounceStore = memoryStore
		monthLocker = lock.NewLocalLocker()
		logger.Info("redis not configured, punch debounce and month locks are in process")
	}

	employeeRepo := postgresql.NewEmployeeRepository(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	policyRepo := postgresql.NewPolicyRepository(db)
	chargeRepo := postgresql.NewChargeRateRepository(db)
	loanRepo := postgresql.NewLoanRepository(db)
	payrollRepo := postgresql.NewMonthlyPayrollRepository(db)
	summaryRepo := postgresql.NewMonthlySummaryRepository(db)

	hub := sse.NewHub()
	defer hub.Close()

	hoursCalculator := attendanceService.NewHoursCalculator()
	resolver := policyService.NewResolver(policyRepo, nil)

	// Charge rates feed the calculator behind the queue, so their trigger
	// resolves the queue lazily.
	var recalcQueue *payrollService.RecalcQueue
	charges := chargeService.NewChargeService(chargeRepo, payroll.TriggerFunc(func(monthKey string) bool {
		return recalcQueue.Enqueue(monthKey)
	}), cacheBus)
	calculator := payrollService.NewCalculator(attendanceRepo, holidayRepo, loanRepo, resolver, charges, hoursCalculator)
	cacheManager := payrollService.NewCacheManager(
		postgresql.NewTransactor(db),
		payrollRepo,
		employeeRepo,
		calculator,
		monthLocker,
		sse.NewPayrollNotifier(hub),
		payrollService.CacheConfig{
			Parallelism: cfg.Payroll.Parallelism,
			Timeout:     cfg.Payroll.RecalcTimeout,
		},
	)
	recalcQueue = payrollService.NewRecalcQueue(cacheManager, payrollService.QueueConfig{
		Workers:    cfg.Payroll.QueueWorkers,
		BufferSize: cfg.Payroll.QueueSize,
		RetryDelay: cfg.Payroll.RetryDelay,
	})
	queueCtx, stopQueue := context.WithCancel(context.Background())
	defer stopQueue()
	recalcQueue.Start(queueCtx)

	if redisBus != nil {
		go func() {
			err := redisBus.Listen(ctx, cachebus.Handlers{
				cachebus.TopicPolicy:      resolver.InvalidateKey,
				cachebus.TopicChargeRates: func(string) { charges.Invalidate() },
			})
			if err != nil {
				logger.Error("cache invalidation listener stopped", "error", err)
			}
		}()
	}

	attendanceSvc := attendanceService.NewAttendanceService(
		attendanceRepo,
		holidayRepo,
		employeeRepo,
		resolver,
		hoursCalculator,
		debounceStore,
		recalcQueue,
		attendanceService.Options{
			DebounceWindow: cfg.Payroll.DebounceWindow,
			Location:       location,
		},
	)
	policySvc := policyService.NewPolicyService(policyRepo, resolver, recalcQueue, cacheBus)
	loanSvc := loanService.NewLoanService(loanRepo, employeeRepo, recalcQueue)
	payrollSvc := payrollService.NewPayrollService(cacheManager, calculator, recalcQueue, employeeRepo)
	reportBuilder := reportService.NewBuilder(employeeRepo, attendanceRepo, holidayRepo, summaryRepo, resolver, hoursCalculator)
	reportSvc := reportService.NewReportService(reportBuilder, summaryRepo)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret)

	router := appHTTP.NewRouter(JWTService, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc),
		Policy:     appHTTP.NewPolicyHandler(policySvc),
		Charge:     appHTTP.NewChargeHandler(charges),
		Loan:       appHTTP.NewLoanHandler(loanSvc),
		Report:     appHTTP.NewReportHandler(reportSvc),
		Events:     appHTTP.NewEventsHandler(hub, JWTService),
	}, appHTTP.RouterOptions{
		Logger:      logger,
		LogLevel:    cfg.SlogLevel(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	scheduler := cron.NewScheduler()
	payrollJobs := cron.NewPayrollJobs(recalcQueue, location)
	scheduler.AddJob(cron.Job{
		Name:     "refresh-open-months",
		Interval: cfg.Payroll.CronInterval,
		Timeout:  time.Minute,
		Fn:       payrollJobs.RefreshOpenMonths,
	})
	scheduler.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", server.Addr, "timezone", location.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Open SSE streams would hold Shutdown until the timeout.
	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown", "error", err)
	}
	scheduler.Stop()
	stopQueue()
	recalcQueue.Wait()

	logger.Info("server stopped")
	return nil
}
