package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"idbridge.org/internal/config"
	"idbridge.org/internal/graph"
	"idbridge.org/internal/httpapi"
	"idbridge.org/internal/identity"
	"idbridge.org/internal/oauth"
	"idbridge.org/internal/obs"
	"idbridge.org/internal/session"
	"idbridge.org/internal/store/pg"
)

var version = "0.3.1"

func main() {
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("IDBRIDGE_COMMIT"))

	cfg := config.Load()

	// Durable store (optional): without a DSN logins still work, they just
	// leave no durable record behind.
	var (
		store   *pg.Store
		records httpapi.Records
		repo    identity.Repository
		probe   httpapi.ReadyProbe
	)
	if cfg.PGDSN != "" {
		var err error
		store, err = pg.Open(cfg.PGDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		records = store
		repo = store
		probe = httpapi.ReadyProbe{DB: store.DB()}
	}

	// Session cache: Redis when configured, in-process otherwise.
	var cache session.Cache
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		cache = session.NewRedisCache(client, cfg.SessionTTL)
	} else {
		cache = session.NewMemoryCache(cfg.SessionTTL)
		obs.Log("warn", "redis not configured, using in-process session cache", nil)
	}

	fetcher := graph.NewClient(cfg.GraphBaseURL)
	materializer := identity.NewMaterializer(cache, repo)
	authenticator := identity.NewAuthenticator(fetcher, materializer, cfg.GroupAttribute, cfg.ExtraFields)

	// Without provider credentials the callback route answers 503 and
	// bearer tokens remain the only way in.
	var handshake identity.Handshake
	oauthCfg := oauth.Config{
		TokenURL:     cfg.OAuthTokenURL,
		ClientID:     cfg.OAuthClientID,
		ClientSecret: cfg.OAuthClientSecret,
		RedirectURI:  cfg.OAuthRedirectURI,
	}
	if oauthCfg.Configured() {
		handshake = oauth.NewProvider(oauthCfg)
	} else {
		obs.Log("warn", "oauth provider not configured, login callback disabled", nil)
	}

	api := httpapi.New(httpapi.Options{
		Cache:         cache,
		Records:       records,
		Authenticator: authenticator,
		Handshake:     handshake,
		ReadyProbe:    probe,
		Version:       version,
		SessionTTL:    cfg.SessionTTL,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting idbridge-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if store != nil {
		_ = store.Close()
	}
	log.Println("Stopped")
}
