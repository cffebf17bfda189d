package main

import (
	"os"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/classlab/classlab/pkg/classlab/auth"
	"github.com/classlab/classlab/pkg/classlab/challenges"
	"github.com/classlab/classlab/pkg/classlab/colors"
	"github.com/classlab/classlab/pkg/classlab/config"
	"github.com/classlab/classlab/pkg/classlab/database"
	"github.com/classlab/classlab/pkg/classlab/facebook"
	"github.com/classlab/classlab/pkg/classlab/flickr"
	"github.com/classlab/classlab/pkg/classlab/guides"
	"github.com/classlab/classlab/pkg/classlab/meta"
	"github.com/classlab/classlab/pkg/classlab/models"
	"github.com/classlab/classlab/pkg/classlab/passwordreset"
	"github.com/classlab/classlab/pkg/classlab/photos"
	"github.com/classlab/classlab/pkg/classlab/sendgrid"
	"github.com/classlab/classlab/pkg/classlab/sessions"
	"github.com/classlab/classlab/pkg/classlab/tags"
	"github.com/classlab/classlab/pkg/classlab/users"
	"github.com/classlab/classlab/pkg/classlab/watson"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.LogLevel)
	auth.SetSecret(cfg.JWTSecret)

	if err := database.Connect(cfg.DBPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	db := database.GetDB()

	if err := models.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database migrations completed")

	if err := ensureAdminExists(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure admin user exists")
	}

	// External integrations stay nil when unconfigured; the services
	// degrade to their local behavior.
	var extractor tags.KeywordExtractor
	if cfg.WatsonURL != "" && cfg.WatsonKey != "" {
		extractor = watson.New(cfg.WatsonURL, cfg.WatsonKey)
	} else {
		log.Warn().Msg("Keyword extraction disabled (WATSON_URL / WATSON_KEY not set)")
	}

	var searcher photos.Searcher
	if cfg.FlickrKey != "" {
		searcher = flickr.New(cfg.FlickrKey)
	} else {
		log.Warn().Msg("Photo search disabled (FLICKR_KEY not set)")
	}

	var mailer passwordreset.Mailer
	if cfg.SendgridKey != "" {
		mailer = sendgrid.New(cfg.SendgridKey, cfg.DefaultMailFrom)
	} else {
		log.Warn().Msg("Mail delivery disabled (SENDGRID_KEY not set)")
	}

	registry := tags.NewRegistry(db, extractor)
	photoSvc := photos.NewService(db, searcher, colors.NewSampler())
	guideSvc := guides.NewService(db, registry, meta.NewScraper())
	challengeSvc := challenges.NewService(db, registry, photoSvc)
	userSvc := users.NewService(db, facebook.New())

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		usersHandler := users.NewHandler(db, userSvc)
		sessionsHandler := sessions.NewHandler(db, userSvc)
		resetHandler := passwordreset.NewHandler(db, mailer, cfg.BaseURL)

		// Public routes: signup, login, password reset
		usersHandler.RegisterPublicRoutes(api)
		sessionsHandler.RegisterPublicRoutes(api)
		resetHandler.RegisterPublicRoutes(api)

		// Everything else requires a live session
		authed := api.Group("", auth.SessionMiddleware(db))
		usersHandler.RegisterRoutes(authed)
		sessionsHandler.RegisterRoutes(authed)
		challenges.NewHandler(db, challengeSvc).RegisterRoutes(authed)
		guides.NewHandler(db, guideSvc).RegisterRoutes(authed)
		tags.NewHandler(db, registry).RegisterRoutes(authed)
		photos.NewHandler(db, photoSvc).RegisterRoutes(authed)
		meta.NewHandler(meta.NewScraper()).RegisterRoutes(authed)
	}

	log.Info().Str("port", cfg.Port).Msg("Starting classlab server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}
}

func setupLogger(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// ensureAdminExists creates a default admin account on first boot so
// the API is administrable before any real user signs up.
func ensureAdminExists() error {
	db := database.GetDB()

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	admin := models.User{
		Email:        "admin@classlab.local",
		Name:         "Admin",
		PasswordHash: hashedPassword,
		Role:         models.RoleAdmin,
	}
	admin.Normalize()

	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	log.Info().Str("email", admin.Email).Msg("Created default admin user (password: changeme)")
	return nil
}
