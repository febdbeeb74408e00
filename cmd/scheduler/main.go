package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/aniladanir/mailing-campaign-service/internal/cache"
	"github.com/aniladanir/mailing-campaign-service/internal/cache/memory"
	redisCache "github.com/aniladanir/mailing-campaign-service/internal/cache/redis"
	"github.com/aniladanir/mailing-campaign-service/internal/domain"
	httpHandler "github.com/aniladanir/mailing-campaign-service/internal/handler/http"
	"github.com/aniladanir/mailing-campaign-service/internal/logging"
	"github.com/aniladanir/mailing-campaign-service/internal/notify"
	"github.com/aniladanir/mailing-campaign-service/internal/persistant/postgresql"
	campaignRepo "github.com/aniladanir/mailing-campaign-service/internal/repository/campaign"
	messageRepo "github.com/aniladanir/mailing-campaign-service/internal/repository/message"
	"github.com/aniladanir/mailing-campaign-service/internal/service"
	"github.com/aniladanir/mailing-campaign-service/internal/transport"
	"gorm.io/gorm"
)

var (
	configFile = flag.String("config", "config.json", "config file path")
	envFile    = flag.String("env", ".env", "optional dotenv file with secret overrides")
	seed       = flag.Bool("seed", false, "populate an empty database with demo data")
)

func main() {
	// create root context
	appCtx, appCtxCancel := context.WithCancel(context.Background())
	defer appCtxCancel()

	// listen for terminate signal
	notifyCtx, stop := signal.NotifyContext(appCtx, syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	// parse flags
	flag.Parse()

	// parse config
	config, err := ReadConfigJson(*configFile, *envFile)
	if err != nil {
		log.Fatalf("failed to read config file: %v", err)
	}

	// setup logger
	logger, logCloser, err := logging.New(logging.Config(config.Log))
	if err != nil {
		log.Fatalf("failed to setup logger: %v", err)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	localTZ, err := time.LoadLocation(config.LocalTimezone)
	if err != nil {
		log.Fatalf("failed to load local timezone: %v", err)
	}

	// initialize external dependencies
	db, store, err := initExternalDependencies(notifyCtx, config, logger)
	if err != nil {
		log.Fatalf("failed to initialize external dependencies: %v", err)
	}

	// populate database with dummy data
	if *seed {
		if err := populateDatabase(db); err != nil {
			log.Fatalf("failed to populate db: %v", err)
		}
	}

	clock := service.SystemClock

	// init repositories
	msgRepo := messageRepo.NewMessageRepository(db, store)
	cmpRepo := campaignRepo.NewCampaignRepository(db, clock.Now)

	// init gateway transport
	gateway, err := transport.NewGateway(transport.GatewayConfig{
		BaseURL:      config.Gateway.BaseURL,
		Token:        config.Gateway.Token,
		Timeout:      config.Gateway.Timeout,
		MaxRetry:     config.Gateway.MaxRetry,
		RetryBackoff: config.Gateway.RetryBackoff,
	}, logger.With(slog.String("component", "gateway")))
	if err != nil {
		log.Fatalf("failed to initiate gateway transport: %v", err)
	}

	// init engine
	processor := service.NewMessageProcessor(msgRepo, gateway, clock, service.NewZoneResolver(), localTZ,
		logger.With(slog.String("component", "messageProcessor")))
	router := service.NewRouter(msgRepo, processor, store, config.Scheduler.Workers, config.Scheduler.LockTTL,
		logger.With(slog.String("component", "router")))
	campaigns := service.NewCampaignManager(cmpRepo, clock,
		logger.With(slog.String("component", "campaignManager")))
	reporter := service.NewReporter(cmpRepo, notify.NewSMTPSink(notify.SMTPConfig{
		Host:     config.Report.SMTPHost,
		Port:     config.Report.SMTPPort,
		User:     config.Report.SMTPUser,
		Password: config.Report.SMTPPassword,
		From:     config.Report.From,
	}), config.Report.Recipients, clock, localTZ, logger.With(slog.String("component", "reporter")))

	scheduler, err := service.NewScheduler(logger.With(slog.String("component", "scheduler")),
		service.Job{Name: "start_scheduled_campaigns", Interval: config.Scheduler.StartInterval, Run: campaigns.StartScheduled},
		service.Job{Name: "end_expired_campaigns", Interval: config.Scheduler.EndInterval, Run: campaigns.EndExpired},
		service.Job{Name: "route_pending_messages", Interval: config.Scheduler.RouteInterval, Run: router.RoutePending},
		service.Job{Name: "send_campaign_report", Interval: config.Scheduler.ReportInterval, Run: reporter.SendReport},
	)
	if err != nil {
		log.Fatalf("failed to initiate scheduler: %v", err)
	}

	// init http handler
	httpHandler := httpHandler.NewHttpHandler(
		fmt.Sprintf(":%d", config.HttpPort),
		scheduler,
		msgRepo,
		reporter,
	)

	// Start Scheduler automatically on deployment
	scheduler.Start()

	wg := sync.WaitGroup{}
	// run http handler
	wg.Go(func() {
		if err := httpHandler.Run(); err != nil {
			logger.Error("http server encountered with an error and closed", "error", err.Error())
		}
		// cancel app context if http handler fails
		appCtxCancel()
	})

	// graceful shutdown
	wg.Go(func() {
		<-notifyCtx.Done()
		logger.Info("application shutting down...")

		shutDownCtx, cancel := context.WithTimeout(context.Background(), time.Second*5)
		defer cancel()

		// waits for in-flight send attempts
		scheduler.Stop()
		httpHandler.Shutdown(shutDownCtx)
		if closer, ok := store.(interface{ Close() error }); ok {
			closer.Close()
		}
		postgresql.Close(db)
	})

	wg.Wait()
	os.Exit(0)
}

func initExternalDependencies(ctx context.Context, config *Config, logger *slog.Logger) (db *gorm.DB, store cache.Store, err error) {
	// initialize database
	db, err = postgresql.Initialize(config.DbConnString, domain.Models(), postgresql.Options{
		MaxOpenConns: config.Scheduler.Workers + 4,
	})
	if err != nil {
		return
	}

	// initialize cache, falling back to process local locks without redis
	if config.RedisAddr == "" {
		logger.Warn("redis address is empty, message locks are process local")
		store = memory.New()
		return
	}
	store, err = redisCache.NewRedisCache(ctx, config.RedisAddr)

	return
}

func populateDatabase(db *gorm.DB) error {
	var campaignCount int64
	if err := db.Model(&domain.Campaign{}).Count(&campaignCount).Error; err != nil {
		return err
	}
	if campaignCount > 0 {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		timezones := []domain.Timezone{{Name: "Europe/Moscow"}, {Name: "Asia/Yekaterinburg"}, {Name: "Asia/Vladivostok"}}
		operators := []domain.MobileOperator{{Name: "Beeline", Prefix: 903}, {Name: "MTS", Prefix: 911}}
		tags := []domain.Tag{{Name: "vip"}, {Name: "newcomer"}}
		for _, batch := range []any{&timezones, &operators, &tags} {
			if err := tx.Create(batch).Error; err != nil {
				return err
			}
		}

		clients := []domain.Client{
			{Phone: "79031112233", OperatorID: operators[0].ID, TagID: &tags[0].ID, TimezoneID: timezones[0].ID},
			{Phone: "79032223344", OperatorID: operators[0].ID, TagID: &tags[0].ID, TimezoneID: timezones[1].ID},
			{Phone: "79113334455", OperatorID: operators[1].ID, TagID: &tags[0].ID, TimezoneID: timezones[2].ID},
			{Phone: "79114445566", OperatorID: operators[1].ID, TagID: &tags[1].ID, TimezoneID: timezones[0].ID},
		}
		if err := tx.Create(&clients).Error; err != nil {
			return err
		}

		now := time.Now()
		from, to := domain.NewTimeOfDay(9, 0, 0), domain.NewTimeOfDay(21, 0, 0)
		campaigns := []domain.Campaign{
			{
				Status:    domain.CampaignScheduled,
				Text:      "Hello World",
				StartAt:   now,
				EndAt:     now.Add(24 * time.Hour),
				Operators: operators,
				Tags:      tags[:1],
			},
			{
				Status:          domain.CampaignScheduled,
				Text:            "Daytime offer",
				StartAt:         now,
				EndAt:           now.Add(72 * time.Hour),
				AllowedFromTime: &from,
				AllowedToTime:   &to,
				Operators:       operators[1:],
				Tags:            tags,
			},
		}
		return tx.Create(&campaigns).Error
	})
}
