package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"devchallenge-api/handlers"
	"devchallenge-api/metrics"
	"devchallenge-api/middleware"
	"devchallenge-api/models"
	"devchallenge-api/services"
	"devchallenge-api/utils"
	"devchallenge-api/workers"
	"devchallenge-api/ws"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 512 * 1024 * 1024, // video/audio submission artifacts
	})

	metrics.Register()
	hub := ws.NewHub()

	// Registered before the gateway guard: Prometheus scrapes and browser
	// WebSocket clients cannot attach the service token.
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Use("/ws", ws.UpgradeRequired)
	app.Get("/ws", ws.Handler(hub))

	// Everything below must come through the auth gateway.
	middleware.InitGateway()
	app.Use(middleware.GatewayOnly())

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		log.Println("⚠️  ALLOWED_ORIGINS not set, using default: http://localhost:3000")
		allowedOrigins = "http://localhost:3000"
	}
	origins := strings.Split(allowedOrigins, ",")
	for i := range origins {
		origins[i] = strings.TrimSpace(origins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(origins, ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS,PATCH,HEAD",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Requested-With, X-Request-ID, X-User-ID, X-Gateway-Token",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Challenge{},
		&models.Submission{},
		&models.Vote{},
		&models.Comment{},
		&models.Team{},
		&models.TeamMember{},
		&models.Guild{},
		&models.Sponsor{},
		&models.SponsoredChallenge{},
		&models.MatchHistory{},
		&models.RankSnapshot{},
		&models.BadgeType{},
		&models.UserBadge{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.InitArtifactStore(); err != nil {
		log.Fatal("failed to initialize artifact store:", err)
	}

	badgeService := services.NewBadgeService(db)
	if err := badgeService.Seed(); err != nil {
		log.Fatal("failed to seed badge catalogue:", err)
	}
	ratingService := services.NewRatingService(db, badgeService)
	voteService := services.NewVoteService(db)
	matchService := services.NewMatchService(db)
	challengeService := services.NewChallengeService(db, ratingService)
	submissionService := services.NewSubmissionService(db, hub, badgeService)
	commentService := services.NewCommentService(db)
	teamService := services.NewTeamService(db)
	guildService := services.NewGuildService(db)
	leaderboardService := services.NewLeaderboardService(db)
	userService := services.NewUserService(db, badgeService)
	sponsorService := services.NewSponsorService(db, ratingService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gatewayURL := os.Getenv("GATEWAY_BASE_URL")
	if gatewayURL == "" {
		log.Fatal("GATEWAY_BASE_URL environment variable not set")
	}
	syncWorker := workers.NewAccountSyncWorker(userService, gatewayURL, os.Getenv("GATEWAY_SERVICE_TOKEN"))
	syncWorker.Start(ctx)

	go hub.Run(ctx)

	scheduler := &workers.Scheduler{
		Votes:       voteService,
		Guilds:      guildService,
		Challenges:  challengeService,
		Leaderboard: leaderboardService,
		Hub:         hub,
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal("failed to start scheduler:", err)
	}
	defer scheduler.Stop()

	handlers.SetupChallengeRoutes(app, challengeService, submissionService, matchService)
	handlers.SetupVotingRoutes(app, voteService, matchService, commentService)
	handlers.SetupCommunityRoutes(app, userService, submissionService, ratingService, guildService, teamService, leaderboardService)
	handlers.SetupSponsorRoutes(app, sponsorService)

	port := os.Getenv("PORT")
	if port == "" {
		port = "5300"
	}
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Account sync worker running")
	log.Println("✅ Gateway auth enforced on all API routes")

	<-ctx.Done()
	log.Println("Shutting down server...")
	_ = app.Shutdown()
}
