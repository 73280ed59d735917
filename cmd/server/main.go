package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/walkin/intake/internal/config"
	"github.com/walkin/intake/internal/estimation"
	"github.com/walkin/intake/internal/handlers"
	"github.com/walkin/intake/internal/intake"
	"github.com/walkin/intake/internal/services"
	"github.com/walkin/intake/internal/storage"
)

func main() {
	cfg := config.Load()

	rates, err := config.LoadCatalog(cfg.RatesFile)
	if err != nil {
		log.Fatalf("Failed to load rates: %v", err)
	}
	estimator := estimation.NewEstimator(rates)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Category lookup: Mongo when configured, else the remote catalog API.
	var lookup services.CategoryLookup
	var creator intake.DonationCreator
	if cfg.MongoURI != "" {
		catalogSvc, err := services.NewMongoCatalogService(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Printf("Warning: Mongo catalog unavailable, intake will run degraded: %v", err)
		} else {
			lookup = catalogSvc
			defer catalogSvc.Close(context.Background())
		}

		donationSvc, err := services.NewMongoDonationService(ctx, cfg.MongoURI, cfg.MongoDB, cfg.WalkInEmailDomain)
		if err != nil {
			log.Printf("Warning: Mongo donations unavailable: %v", err)
		} else {
			creator = donationSvc
			defer donationSvc.Close(context.Background())
		}
	}
	if lookup == nil && cfg.CatalogURL != "" {
		lookup = services.NewHTTPCategoryClient(cfg.CatalogURL)
	}
	if creator == nil && cfg.DonationURL != "" {
		creator = services.NewHTTPDonationClient(cfg.DonationURL, cfg.DonationAPIKey)
	}
	if creator == nil {
		log.Printf("Warning: no donation service configured; submissions will be refused")
	}

	snapshot, err := storage.NewJSONStore(cfg.DataDir, "catalog_snapshot.json")
	if err != nil {
		log.Printf("Warning: catalog snapshot disabled: %v", err)
		snapshot = nil
	} else {
		log.Printf("Catalog snapshot at %s", snapshot.Path())
	}

	catalog := services.NewCatalogService(lookup, snapshot)
	if res := catalog.Categories(ctx); res.Degraded {
		log.Printf("Warning: catalog degraded, serving %s list", res.Source)
	}

	sessions := services.NewSessionService(estimator, creator)
	go sweepSessions(sessions, cfg.SessionTTL)

	intakeHandler := handlers.NewIntakeHandler(sessions, catalog, cfg.SubmitTimeout)
	if cfg.SendGridAPIKey != "" && cfg.ReceiptFromEmail != "" {
		intakeHandler.WithReceipts(services.NewSendGridMailer(cfg.SendGridAPIKey, cfg.ReceiptFromEmail))
		log.Printf("Receipt emails enabled from %s", cfg.ReceiptFromEmail)
	}
	catalogHandler := handlers.NewCatalogHandler(catalog, estimator)
	r := handlers.NewRouter(intakeHandler, catalogHandler, cfg.AllowedOrigins)

	log.Printf("Walk-in intake API starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}

// sweepSessions drops abandoned drafts so memory does not grow without bound.
func sweepSessions(sessions *services.SessionService, ttl time.Duration) {
	interval := ttl / 4
	if interval < time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		if n := sessions.Sweep(ttl); n > 0 {
			log.Printf("[sessions] swept %d abandoned drafts, %d open", n, sessions.Count())
		}
	}
}
