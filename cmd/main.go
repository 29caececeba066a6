/**
 * @description
 * This is the main entry point for the billing service. It is responsible for
 * initializing all components: configuration, the package catalog, the pending
 * purchase ledger, the external API clients, the core application service, the
 * expiry sweeper, and the HTTP server. It wires everything together and starts
 * the service with graceful shutdown.
 *
 * @dependencies
 * - github.com/go-chi/chi/v5: For HTTP routing (via internal/api).
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - internal/api, internal/app, internal/config, internal/store: Internal packages.
 * - pkg/payheroclient, pkg/mikrotikclient: Clients for the payment and router APIs.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mmkash-web/wifibill/internal/api"
	"github.com/mmkash-web/wifibill/internal/app"
	"github.com/mmkash-web/wifibill/internal/config"
	"github.com/mmkash-web/wifibill/internal/domain"
	"github.com/mmkash-web/wifibill/internal/store"
	"github.com/mmkash-web/wifibill/pkg/mikrotikclient"
	"github.com/mmkash-web/wifibill/pkg/payheroclient"
)

func main() {
	// Load .env file for local development.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config invalid\" err=%v", err)
	}

	log.Printf("level=info component=bootstrap msg=\"starting billing service\" port=%s", cfg.ServerPort)

	catalog := domain.DefaultCatalog()
	ledger := store.NewMemoryLedger()

	payhero := payheroclient.NewClient(
		cfg.PayHeroBaseURL,
		cfg.PayHeroAPIUsername,
		cfg.PayHeroAPIPassword,
		cfg.PayHeroChannelID,
		cfg.PayHeroProvider,
		cfg.CallbackBaseURL+"/payment-confirmations",
	)
	mikrotik := mikrotikclient.NewClient(cfg.MikroTikBaseURL, cfg.MikroTikUsername, cfg.MikroTikPassword)

	billingService := app.NewService(catalog, ledger, payhero, mikrotik, cfg.CredentialSecretSource)

	// Background sweep reclaiming abandoned pending purchases.
	sweeper := app.NewSweeper(
		ledger,
		time.Duration(cfg.PendingPurchaseTTLMinutes)*time.Minute,
		cfg.LedgerSweepSchedule,
		slog.Default(),
	)
	if err := sweeper.Start(); err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"sweeper start failed\" err=%v", err)
	}
	defer sweeper.Stop()

	handlers := api.NewPortalHandlers(billingService, catalog)
	router := api.NewRouter(handlers)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
