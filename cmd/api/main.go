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

	"github.com/joho/godotenv"

	"github.com/ovaphlow/pitchfork/service-blog-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/comment"
	commentrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/comment/repo"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/migrations"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/post"
	postrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/post/repo"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/router"
	"github.com/ovaphlow/pitchfork/service-blog-go/internal/user"
	userrepo "github.com/ovaphlow/pitchfork/service-blog-go/internal/user/repo"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-blog-go/pkg/utilities"
)

func main() {
	// load .env file if present so os.Getenv picks values from it
	// this is best-effort: if no .env exists, continue (use defaults or real env)
	_ = godotenv.Load()

	lg, err := utilities.Init(utilities.ConfigFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Sync()

	sugar := lg.Sugar()
	sugar.Info("starting service-blog-go")

	authCfg, err := auth.ConfigFromEnv()
	if err != nil {
		sugar.Fatalf("auth config: %v", err)
	}
	tokens, err := auth.NewTokenService(authCfg.Secret, authCfg.TokenTTL)
	if err != nil {
		sugar.Fatalf("token service: %v", err)
	}
	if authCfg.TokenTTL == 0 {
		sugar.Warn("JWT_TTL not set; issued tokens do not expire")
	}

	nodeID, err := utilities.SnowflakeNodeFromEnv()
	if err != nil {
		sugar.Fatalf("snowflake: %v", err)
	}
	if err := utilities.InitSnowflake(nodeID); err != nil {
		sugar.Fatalf("snowflake: %v", err)
	}

	dbCfg := database.ConfigFromEnv()
	db, err := database.Connect(dbCfg)
	if err != nil {
		sugar.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	sugar.Infow("database connected", "driver", dbCfg.Driver)

	// graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dbCfg.Migrate {
		if err := database.Migrate(ctx, db.DB, migrations.FS); err != nil {
			sugar.Fatalf("migrate: %v", err)
		}
		sugar.Info("migrations applied")
	}

	deps := router.Deps{
		Users:    user.NewUserService(userrepo.NewUserRepo(db), auth.NewHasher(authCfg.Hasher), tokens, sugar),
		Posts:    post.NewService(postrepo.NewPostRepo(db), sugar),
		Comments: comment.NewService(commentrepo.NewCommentRepo(db), sugar),
		Tokens:   tokens,
	}
	srv := &http.Server{
		Addr:              envOr("APP_ADDR", "0.0.0.0:5000"),
		Handler:           router.RegisterRoutes(sugar, deps, router.ConfigFromEnv()),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		sugar.Infow("http server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sugar.Fatalf("http server failed: %v", err)
		}
	}()

	<-ctx.Done()
	sugar.Info("shutting down")

	doneCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout())
	defer cancel()

	if err := srv.Shutdown(doneCtx); err != nil {
		sugar.Warnf("http server shutdown failed: %v", err)
	}
	sugar.Info("goodbye")
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func shutdownTimeout() time.Duration {
	if d, err := time.ParseDuration(os.Getenv("SHUTDOWN_TIMEOUT")); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}
