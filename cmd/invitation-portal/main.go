package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jonboulle/clockwork"

	"wedding-invitation/internal/api"
	"wedding-invitation/internal/archive"
	"wedding-invitation/internal/config"
	"wedding-invitation/internal/countdown"
	"wedding-invitation/internal/greeting"
	"wedding-invitation/internal/handler"
	"wedding-invitation/internal/logging"
	"wedding-invitation/internal/models"
	"wedding-invitation/internal/navigation"
	"wedding-invitation/internal/portal"
	"wedding-invitation/internal/rsvp"
	"wedding-invitation/internal/storage"
	"wedding-invitation/internal/whatsapp"
)

const shutdownTimeout = 10 * time.Second

func main() {
	fmt.Println("💌 Invitation Portal")
	fmt.Println("====================")

	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Printf("Error in configuration: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(logging.Config{Format: cfg.LogFormat, Level: cfg.LogLevel})
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.DataDir).Msg("Failed to create data directory")
	}

	// Initialize storage
	store, err := storage.Open(cfg.StorageBackend, cfg.DataDir, logging.Component(log, "storage"))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open storage")
	}
	defer store.Close()

	clock := clockwork.NewRealClock()
	engine := countdown.NewEngine(clock, loc, "")
	engine.Start(ctx)
	defer engine.Stop()

	arch := archive.New(store, clock, logging.Component(log, "archive"))
	rsvps := rsvp.NewService(store, clock, logging.Component(log, "rsvp"))

	workspace := portal.NewWorkspace(portal.WorkspaceOptions{
		Initial:   initialInvitation(ctx, arch),
		Location:  loc,
		ZoneLabel: cfg.EventZoneLabel,
		BaseURL:   cfg.PublicBaseURL,
		Clock:     clock,
		Archive:   arch,
		Engine:    engine,
		Logger:    logging.Component(log, "workspace"),
	})

	generator := greeting.NewClient(greeting.Options{
		APIKey:     cfg.OpenAIAPIKey,
		BaseURL:    cfg.OpenAIBaseURL,
		Model:      cfg.OpenAIModel,
		PortalName: cfg.PortalName,
		Timeout:    cfg.GreetingTimeout,
		RPS:        cfg.GreetingRPS,
		Logger:     logging.Component(log, "greeting"),
	})
	greetings := greeting.NewCache(ctx, generator, func(role greeting.Role) string {
		return greeting.NoCredentials(cfg.PortalName, role)
	})

	services := api.Services{
		Workspace: workspace,
		Engine:    engine,
		RSVPs:     rsvps,
		Archive:   arch,
		Greeting:  greetings,
	}

	// Initialize WhatsApp service
	var whatsappService *whatsapp.Service
	if cfg.WhatsAppEnabled {
		whatsappService, err = whatsapp.NewService(ctx, &whatsapp.Config{
			DataDir:     cfg.DataDir,
			CountryCode: cfg.WhatsAppCountryCode,
			Terminal:    os.Stdout,
		}, logging.Component(log, "whatsapp"))
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize WhatsApp service")
		}

		rsvpHandler := handler.NewRSVPHandler(whatsappService, rsvps, engine, logging.Component(log, "rsvp-handler"))
		whatsappService.SetMessageHandler(rsvpHandler.HandleReply)

		fmt.Println("Connecting to WhatsApp...")
		if err := whatsappService.Connect(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to WhatsApp")
		}
		defer whatsappService.Disconnect()

		fmt.Println("✅ Connected to WhatsApp!")
		services.Sharer = whatsappService
	}

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewServer(services, api.Options{
			PortalName:  cfg.PortalName,
			CORSOrigins: cfg.CORSOrigins,
			Location:    loc,
			Clock:       clock,
		}, logging.Component(log, "http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("HTTP server stopped")
			stop()
		}
	}()

	// Start interactive CLI
	if cfg.ConsoleEnabled {
		location, err := navigation.Parse(cfg.PublicBaseURL)
		if err != nil {
			log.Fatal().Err(err).Msg("Invalid PUBLIC_BASE_URL")
		}
		session := portal.NewSession(location, generator, cfg.PortalName, logging.Component(log, "console"))
		defer session.Close()

		c := &console{
			workspace: workspace,
			engine:    engine,
			rsvps:     rsvps,
			session:   session,
			in:        os.Stdin,
			out:       os.Stdout,
		}
		if whatsappService != nil {
			c.sharer = whatsappService
		}
		go c.run(ctx, stop)
	}

	<-ctx.Done()

	fmt.Println("\n\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	fmt.Println("Goodbye! 👋")
}

// initialInvitation resumes from the most recently published invitation.
func initialInvitation(ctx context.Context, arch *archive.Archive) models.InvitationConfig {
	list, err := arch.List(ctx)
	if err != nil || len(list) == 0 {
		return models.DefaultInvitation()
	}
	latest := list[0]
	for _, p := range list[1:] {
		if p.PublishedAt.After(latest.PublishedAt) {
			latest = p
		}
	}
	return latest.Config
}
