package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"hfrat.org/internal/auth"
	"hfrat.org/internal/httpapi"
	"hfrat.org/internal/obs"
	"hfrat.org/internal/registry"
	"hfrat.org/internal/store/pg"
	"hfrat.org/internal/stream"
)

var (
	version = "1.2.0"
	commit  = "dev"
)

func main() {
	obs.Init()
	obs.InitBuildInfo(version, commit)

	secret := os.Getenv("HFRAT_AUTH_SECRET")
	if secret == "" {
		log.Fatal("HFRAT_AUTH_SECRET is required")
	}

	var (
		users      auth.UserStore
		revocation auth.RevocationStore
		reg        registry.Service
		probe      httpapi.ReadyProbe
		pgStore    *pg.Store
	)
	if dsn := os.Getenv("HFRAT_PG_DSN"); dsn != "" {
		var err error
		pgStore, err = pg.Open(dsn)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		users = pgStore
		revocation = pgStore
		reg = pgStore
		probe = httpapi.ReadyProbe{DB: pgStore.DB()}
		log.Print("storage: postgres")
	} else {
		users = auth.NewMemoryUserStore()
		revocation = auth.NewMemoryRevocationStore()
		reg = registry.NewInMemory()
		log.Print("storage: in-memory")
	}

	var tokenOpts []auth.ServiceOption
	if raw := os.Getenv("HFRAT_TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			log.Fatalf("invalid HFRAT_TOKEN_TTL: %v", err)
		}
		tokenOpts = append(tokenOpts, auth.WithTokenTTL(ttl))
	}
	tokens, err := auth.NewService([]byte(secret), revocation, tokenOpts...)
	if err != nil {
		log.Fatalf("token service: %v", err)
	}

	if err := bootstrapAdmin(users); err != nil {
		log.Fatalf("bootstrap admin: %v", err)
	}

	api := httpapi.New(httpapi.Config{
		Version:            version,
		ReadyProbe:         probe,
		Tokens:             tokens,
		Users:              users,
		Registry:           reg,
		Stream:             stream.New(),
		CORSOrigins:        splitList(os.Getenv("HFRAT_CORS_ORIGINS")),
		RateLimitPerSecond: envInt("HFRAT_RATE_LIMIT_RPS", 20),
		RateLimitBurst:     envInt("HFRAT_RATE_LIMIT_BURST", 40),
	})

	addr := os.Getenv("HFRAT_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Expired blocklist entries are swept periodically; revoked tokens past
	// their own expiry are rejected by the expiry check anyway.
	purgeCtx, purgeCancel := context.WithCancel(context.Background())
	defer purgeCancel()
	go purgeLoop(purgeCtx, revocation)

	log.Printf("Starting hfrat-api %s on %s", version, srv.Addr)

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
	purgeCancel()
	if pgStore != nil {
		_ = pgStore.Close()
	}
	log.Println("Stopped")
}

// bootstrapAdmin creates the initial admin account when credentials are
// provided and the email is not yet registered.
func bootstrapAdmin(users auth.UserStore) error {
	email := strings.TrimSpace(os.Getenv("HFRAT_ADMIN_EMAIL"))
	password := os.Getenv("HFRAT_ADMIN_PASSWORD")
	if email == "" || password == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := users.FindUserByEmail(ctx, email); err == nil {
		return nil
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	admin := &auth.User{Email: email, PasswordHash: hash, Role: auth.RoleAdmin}
	if err := users.CreateUser(ctx, admin); err != nil {
		return err
	}
	log.Printf("bootstrapped admin user %s", admin.Email)
	return nil
}

func purgeLoop(ctx context.Context, store auth.RevocationStore) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			purgeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
			n, err := store.PurgeExpired(purgeCtx, time.Now().UTC())
			cancel()
			if err != nil {
				log.Printf("purge revoked tokens: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("purged %d expired revocation entries", n)
			}
		}
	}
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		log.Fatalf("invalid %s: %q", name, raw)
	}
	return n
}
