package app

import (
	"context"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"inquiryfiles/internal/app/attachment"
	"inquiryfiles/internal/app/health"
	"inquiryfiles/internal/app/inquiry"
	"inquiryfiles/internal/app/upload"
	"inquiryfiles/internal/config"
	"inquiryfiles/internal/db"
	"inquiryfiles/internal/db/seeder"
	"inquiryfiles/internal/providers/fileaccess"
	"inquiryfiles/internal/providers/minio"
	"inquiryfiles/internal/providers/redis"
	"inquiryfiles/internal/router"
	"inquiryfiles/internal/utils"
)

type Application struct {
	Router *router.Router
	DB     *gorm.DB
}

func Bootstrap(cfg *config.Config, logger *zap.Logger) (*Application, error) {
	dbConn, err := db.Connect(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, logger); err != nil {
		return nil, err
	}

	seed := seeder.NewSeeder(dbConn, logger)
	if err := seed.Seed(); err != nil {
		logger.Warn("Failed to run seeders", zap.Error(err))
	}

	redisProvider := redis.NewRedisProvider(cfg.RedisURL, logger, cfg.CheckoutCacheTTL)

	archiveProvider, err := minio.NewArchiveProvider(cfg, logger)
	if err != nil {
		logger.Warn("Failed to initialize archive store, archival disabled", zap.Error(err))
		archiveProvider = nil
	}

	fileClient, err := fileaccess.NewClient(fileaccess.Config{
		BaseURL: cfg.FileAccessURL,
		Timeout: cfg.FileAccessTimeout,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	inquiryRepo := inquiry.NewRepository(dbConn)
	attachmentRepo := attachment.NewRepository(dbConn)

	resolver := attachment.NewResolver(attachmentRepo, fileClient, logger)

	inquiryService := inquiry.NewService(inquiryRepo)

	// ArchiveStore is an interface; a typed nil pointer inside it would dodge
	// the service's nil check.
	var archiveStore attachment.ArchiveStore
	if archiveProvider != nil {
		archiveStore = archiveProvider
	}

	attachmentService := attachment.NewService(
		attachmentRepo,
		dbConn,
		fileClient,
		resolver,
		redisProvider,
		archiveStore,
		cfg.CheckoutCacheTTL,
		logger,
	)

	limits := attachment.IngestLimits{
		MaxFileSize: cfg.MaxFileSize,
		MaxFiles:    cfg.MaxFilesPerUpload,
	}

	go func() {
		ticker := time.NewTicker(15 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			if _, err := attachmentService.PurgeExpiredTemporaries(ctx, cfg.TempMaxAge); err != nil {
				logger.Warn("Failed to purge expired temporary files", zap.Error(err))
			}
			cancel()
		}
	}()

	checker := &utils.HealthChecker{
		DB:    dbConn,
		Redis: redisProvider.Client,
	}
	if archiveProvider != nil {
		checker.Minio = archiveProvider.GetClient()
		checker.ArchiveBucket = archiveProvider.GetBucket()
	}
	healthHandler := health.NewHandler(checker)

	inquiryHandler := inquiry.NewHandler(inquiryService)
	attachmentHandler := attachment.NewHandler(attachmentService, limits, logger)
	uploadHandler := upload.NewHandler(attachmentService, limits, logger)

	r := router.NewRouter(logger)

	r.RegisterHealthRoutes(healthHandler)
	r.RegisterInquiryRoutes(inquiryHandler)
	r.RegisterAttachmentRoutes(attachmentHandler)
	r.RegisterUploadRoutes(uploadHandler)
	r.RegisterSwaggerRoutes()

	return &Application{
		Router: r,
		DB:     dbConn,
	}, nil
}
