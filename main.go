package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookeosync/internal/bookeo"
	"bookeosync/internal/config"
	intdb "bookeosync/internal/db"
	api "bookeosync/internal/http"
	h "bookeosync/internal/http/handlers"
	"bookeosync/internal/http/middleware"
	"bookeosync/internal/repositories"
	"bookeosync/internal/services"
	"bookeosync/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	mode := flag.String("mode", "incremental", "sync mode: full or incremental")
	months := flag.Int("months", 0, "limit full sync to N months from the historical start")
	dryRun := flag.Bool("dry-run", false, "fetch and count only; do not write")
	out := flag.String("out", "", "write bookings to this .xlsx file instead of the database")
	serve := flag.Bool("serve", false, "run the webhook receiver and sync worker")
	registerWebhook := flag.String("register-webhook", "", "register provider webhooks for this HTTPS callback URL and exit")
	listWebhooks := flag.Bool("list-webhooks", false, "list registered provider webhooks and exit")
	mintToken := flag.Bool("mint-token", false, "print a bearer token for POST /api/sync/run and exit")
	flag.Parse()

	env, err := config.LoadEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	switch {
	case *mintToken:
		os.Exit(runMintToken(env))
	case *listWebhooks:
		os.Exit(runListWebhooks(env))
	case *registerWebhook != "":
		os.Exit(runRegisterWebhook(env, *registerWebhook))
	case *serve:
		os.Exit(runServe(env))
	default:
		os.Exit(runSync(env, *mode, *months, *dryRun, *out))
	}
}

func runMintToken(env config.Env) int {
	if env.SyncTokenSecret == "" {
		log.Println("SYNC_TOKEN_SECRET must be set")
		return 1
	}
	token, err := middleware.CreateSyncToken(env.SyncTokenSecret, "operator", 24*time.Hour)
	if err != nil {
		log.Printf("mint token: %v", err)
		return 1
	}
	fmt.Println(token)
	return 0
}

func runListWebhooks(env config.Env) int {
	if err := env.RequireBookeoCredentials(); err != nil {
		log.Println(err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	webhooks, err := bookeo.NewClient(env).ListWebhooks(ctx)
	if err != nil {
		log.Printf("list webhooks: %v", err)
		return 1
	}
	fmt.Printf("Registered webhooks (%d):\n", len(webhooks))
	for _, w := range webhooks {
		fmt.Printf("  - %s/%s: %s\n", w.Domain, w.Type, w.URL)
	}
	return 0
}

func runRegisterWebhook(env config.Env, callbackURL string) int {
	if err := env.RequireBookeoCredentials(); err != nil {
		log.Println(err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := bookeo.NewClient(env).RegisterBookingWebhooks(ctx, callbackURL); err != nil {
		log.Printf("register webhooks: %v", err)
		return 1
	}
	log.Printf("registered bookings/created and bookings/updated for %s", callbackURL)
	log.Println("set BOOKEO_WEBHOOK_URL to this exact URL in the app settings")
	return 0
}

func runSync(env config.Env, mode string, months int, dryRun bool, out string) int {
	if err := env.RequireBookeoCredentials(); err != nil {
		log.Println(err)
		return 1
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	svc := services.SyncService{
		Client: bookeo.NewClient(env),
		Env:    env,
	}

	if out != "" {
		svc.Exporter = services.ExcelExporter{}
		rep, err := svc.RunExcel(ctx, months, out)
		if err != nil {
			log.Printf("excel sync failed: %v", err)
			return 1
		}
		log.Printf("done: fetched=%d written=%d output=%s", rep.Fetched, rep.Written, out)
		return 0
	}

	// A full dry run needs no destination; everything else does.
	needDB := !(dryRun && mode == "full")
	if needDB {
		db, err := config.ConnectDB(env)
		if err != nil {
			log.Printf("database: %v", err)
			return 1
		}
		defer config.CloseDB()

		dialect := intdb.DialectFor(env.DBDriver)
		bookings := repositories.BookingRepository{DB: db, Dialect: dialect}
		state := repositories.SyncStateRepository{DB: db, Dialect: dialect}
		if err := bookings.EnsureSchema(ctx); err != nil {
			log.Printf("database: %v", err)
			return 1
		}
		if err := state.EnsureSchema(ctx); err != nil {
			log.Printf("database: %v", err)
			return 1
		}
		svc.Bookings = bookings
		svc.State = state
	}

	var rep services.RunReport
	var err error
	switch mode {
	case "full":
		rep, err = svc.RunFull(ctx, months, dryRun)
	case "incremental":
		rep, err = svc.RunIncremental(ctx, dryRun)
	default:
		log.Printf("unknown mode %q (want full or incremental)", mode)
		return 2
	}
	if err != nil {
		log.Printf("sync failed: %v", err)
		return 1
	}
	log.Printf("done: mode=%s fetched=%d written=%d skipped=%d dry_run=%t",
		rep.Mode, rep.Fetched, rep.Written, rep.Skipped, rep.DryRun)
	return 0
}

func runServe(env config.Env) int {
	if err := env.RequireBookeoCredentials(); err != nil {
		log.Println(err)
		return 1
	}

	db, err := config.ConnectDB(env)
	if err != nil {
		log.Printf("database: %v", err)
		return 1
	}
	defer config.CloseDB()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialect := intdb.DialectFor(env.DBDriver)
	bookings := repositories.BookingRepository{DB: db, Dialect: dialect}
	state := repositories.SyncStateRepository{DB: db, Dialect: dialect}
	if err := bookings.EnsureSchema(ctx); err != nil {
		log.Printf("database: %v", err)
		return 1
	}
	if err := state.EnsureSchema(ctx); err != nil {
		log.Printf("database: %v", err)
		return 1
	}

	svc := services.SyncService{
		Client:   bookeo.NewClient(env),
		Bookings: bookings,
		State:    state,
		Env:      env,
	}

	trigger := services.NewSyncTrigger()
	go trigger.Run(ctx, func(ctx context.Context, reason string) {
		runCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cancel()
		if _, err := svc.RunIncremental(runCtx, false); err != nil {
			utils.LogEvent("", "worker", "sync_failed", err.Error())
		}
	})

	r := api.NewRouter(env,
		h.SystemHandler{Bookings: bookings},
		h.WebhookHandler{Env: env, Bookings: bookings, Trigger: trigger},
		h.SyncHandler{Trigger: trigger},
	)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("webhook receiver listening on %s", env.AppAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		log.Printf("server error: %v", err)
		return 1
	case <-ctx.Done():
	}

	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown failed: %v", err)
		return 1
	}
	log.Println("server stopped cleanly")
	return 0
}
