package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"

	"hide-seek-bot/config"
	"hide-seek-bot/handlers"
	"hide-seek-bot/middleware"
	"hide-seek-bot/platform/discord"
	"hide-seek-bot/services"
	"hide-seek-bot/store"
	"hide-seek-bot/utils"
	"hide-seek-bot/workers"
)

// ledger is everything the scored game and its reports need from storage.
type ledger interface {
	services.FindLedger
	services.AdminLedger
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}
	if cfg.Discord.Token == "" {
		log.Fatal("❌ HIDESEEK_DISCORD_TOKEN is not set")
	}
	if cfg.Discord.GuildID == "" || cfg.Discord.ModerationChannel == "" {
		log.Fatal("❌ HIDESEEK_DISCORD_GUILD_ID and HIDESEEK_DISCORD_MODERATION_CHANNEL are required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ids, err := services.NewIDValidator(cfg.Game.IDPattern)
	if err != nil {
		log.Fatalf("❌ %v", err)
	}

	// 🗄️ Storage
	var db *gorm.DB
	var gameLedger ledger
	if cfg.Storage.Driver == config.DriverMemory {
		log.Println("⚠️  Using in-memory ledger, scores are lost on restart")
		gameLedger = store.NewMemoryLedger()
	} else {
		db, err = store.Open(cfg.Storage)
		if err != nil {
			log.Fatalf("❌ Failed to open database: %v", err)
		}
		defer func() {
			if err := store.Close(db); err != nil {
				log.Printf("Database close error: %v", err)
			}
		}()
		gameLedger = store.NewGormLedger(db)
	}

	session, err := discordgo.New("Bot " + cfg.Discord.Token)
	if err != nil {
		log.Fatalf("❌ Failed to create Discord session: %v", err)
	}
	gateway := discord.NewGateway(session, cfg.Discord.GuildID)

	scheduler, err := services.NewCronScheduler()
	if err != nil {
		log.Fatalf("❌ %v", err)
	}
	defer scheduler.Shutdown()

	submissions := services.NewSubmissionService(gateway, scheduler, services.SubmissionConfig{
		ModerationSurface: cfg.Discord.ModerationChannel,
		CloseDelay:        cfg.Game.CloseDelay,
		MaxLength:         cfg.Game.MaxSubmissionLength,
	})
	audit := services.NewAuditLog(gateway, cfg.Discord.LogChannel)

	var archiver services.Archiver
	if cfg.Archive.Enabled() {
		r2, err := utils.NewR2Archiver(ctx, utils.R2Options{
			AccountID:       cfg.Archive.AccountID,
			AccessKeyID:     cfg.Archive.AccessKeyID,
			AccessKeySecret: cfg.Archive.AccessKeySecret,
			Bucket:          cfg.Archive.Bucket,
			CDNBaseURL:      cfg.Archive.CDNBaseURL,
		})
		if err != nil {
			log.Fatalf("❌ Failed to initialize R2: %v", err)
		}
		archiver = r2
	}

	dispatcher := workers.NewDispatcher(256)

	var admin *services.AdminService
	var single *services.SingleClaimService
	switch cfg.Game.Mode {
	case config.ModeScored:
		admin = services.NewAdminService(gameLedger, ids, audit, archiver, cfg.Game.LeaderboardPageSize)
		finds := services.NewFindService(gameLedger, submissions, audit)
		dispatcher.Subscribe(services.KindClaimAttempted, func(ctx context.Context, ev workers.Event) error {
			return finds.HandleClaimAttempt(ctx, ev.(services.ClaimAttempted))
		})
	case config.ModeSingle:
		set, err := openHiddenSet(ctx, cfg.Storage, db)
		if err != nil {
			log.Fatalf("❌ Failed to open hidden set: %v", err)
		}
		announcer := services.NewAuditLog(gateway, cfg.Discord.ModerationChannel)
		single = services.NewSingleClaimService(set, submissions, announcer, ids)
		dispatcher.Subscribe(services.KindClaimAttempted, func(ctx context.Context, ev workers.Event) error {
			return single.HandleClaimAttempt(ctx, ev.(services.ClaimAttempted))
		})
	}

	dispatcher.Subscribe(services.KindActionActivated, func(ctx context.Context, ev workers.Event) error {
		a := ev.(services.ActionActivated)
		if err := submissions.Activate(ctx, a); err != nil {
			discord.NotifyFailure(ctx, a.Interaction, err)
			return err
		}
		return nil
	})
	dispatcher.Subscribe(services.KindFormSubmitted, func(ctx context.Context, ev workers.Event) error {
		f := ev.(services.FormSubmitted)
		if err := submissions.Submit(ctx, f); err != nil {
			discord.NotifyFailure(ctx, f.Interaction, err)
			return err
		}
		return nil
	})

	if err := scheduler.Every(10*time.Minute, func() {
		if n := submissions.AwaitingInput(); n > 0 {
			log.Printf("⏳ [SUBMISSION] %d session(s) still awaiting input", n)
		}
	}); err != nil {
		log.Printf("⚠️ %v", err)
	}

	commands := discord.NewCommands(cfg.Discord.CommandPrefix, cfg.Discord.IsAdmin, admin, single)
	discord.NewBridge(session, dispatcher, commands, cfg.Discord.ClaimEmoji).Register()

	dispatcher.Start(ctx)
	if err := session.Open(); err != nil {
		log.Fatalf("❌ Failed to connect to Discord: %v", err)
	}

	// 🌐 Optional HTTP admin API
	var app *fiber.App
	if cfg.HTTP.ListenAddr != "" {
		app = fiber.New(fiber.Config{AppName: cfg.App.Name, DisableStartupMessage: true})
		app.Use(recover.New())
		app.Use(cors.New(cors.Config{
			AllowOrigins: allowedOrigins(cfg.HTTP.AllowedOrigins),
			AllowMethods: "GET,POST,DELETE,OPTIONS",
			AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		}))

		var adminGroup fiber.Router
		if admin != nil {
			handlers.SetupScoreRoutes(app, admin)
			adminGroup = handlers.SetupAdminRoutes(app, admin, cfg.HTTP.AdminToken)
		} else {
			adminGroup = app.Group("/admin", middleware.AdminAuthMiddleware(cfg.HTTP.AdminToken))
		}
		if single != nil {
			handlers.SetupHiddenRoutes(adminGroup, single)
		}

		go func() {
			if err := app.Listen(cfg.HTTP.ListenAddr); err != nil {
				log.Printf("Server error: %v", err)
			}
		}()
		log.Printf("✅ Admin API listening on %s", cfg.HTTP.ListenAddr)
	}

	log.Printf("✅ %s running in %s mode", cfg.App.Name, cfg.Game.Mode)

	<-ctx.Done()
	log.Println("Shutting down...")

	if err := session.Close(); err != nil {
		log.Printf("Discord close error: %v", err)
	}
	dispatcher.Wait()
	submissions.Shutdown(context.Background())
	if app != nil {
		if err := app.Shutdown(); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}
}

func openHiddenSet(ctx context.Context, cfg config.StorageConfig, db *gorm.DB) (services.HiddenSet, error) {
	if cfg.HiddenSet == config.HiddenSetDB {
		return store.NewGormHiddenSet(db), nil
	}

	set, err := store.OpenFileHiddenSet(cfg.HiddenSetFile)
	if err != nil {
		return nil, err
	}
	go func() {
		if err := set.Watch(ctx); err != nil {
			log.Printf("⚠️ Hidden set watcher stopped: %v", err)
		}
	}()
	return set, nil
}

func allowedOrigins(raw string) string {
	origins := strings.Split(raw, ",")
	for i, origin := range origins {
		origins[i] = strings.TrimSpace(origin)
	}
	return strings.Join(origins, ",")
}
