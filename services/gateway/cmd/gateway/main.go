package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"shelfhub/internal/ratelimit"
	"shelfhub/internal/util"
	"shelfhub/pkg/rpc"
	"shelfhub/services/gateway/internal/app"
	"shelfhub/services/gateway/internal/config"
	"shelfhub/services/gateway/internal/graph"
	"shelfhub/services/gateway/internal/server"
)

func main() {
	os.Exit(run())
}

// run owns every resource the gateway opens so deferred cleanup happens
// before the process exits.
func run() int {
	cfg, err := config.Load(config.ConfigPath)
	if err != nil {
		log.Printf("failed to load config: %v", err)
		return 1
	}
	rpcTimeout, err := config.ParseRPCTimeout(cfg.RPCTimeout)
	if err != nil {
		log.Printf("failed to parse rpc timeout: %v", err)
		return 1
	}

	logger := util.InitLogger("gateway", cfg.LogLevel)

	core, err := app.New(app.Config{
		DatabaseURL:        cfg.DatabaseURL,
		RESTBackend:        cfg.RESTBackend,
		LibraryServiceAddr: cfg.LibraryServiceAddr,
		BookServiceAddr:    cfg.BookServiceAddr,
		UserServiceAddr:    cfg.UserServiceAddr,
		RPCTimeout:         rpcTimeout,
	})
	if err != nil {
		logger.Error("failed to init app", "err", err)
		return 1
	}
	defer core.Close()

	schema, err := graph.NewSchema(core.Direct.Libraries, core.Direct.Books, core.Direct.Users)
	if err != nil {
		logger.Error("failed to build graphql schema", "err", err)
		return 1
	}

	proxies, err := util.NewTrustedProxies(cfg.TrustedProxyCIDRs)
	if err != nil {
		logger.Error("failed to parse trusted proxies", "err", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var limiter ratelimit.Limiter
	if cfg.WriteRateLimitPerMinute > 0 {
		l, err := ratelimit.NewFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, "shelfhub:gateway:writes", cfg.WriteRateLimitPerMinute, time.Minute)
		if err != nil {
			logger.Error("failed to init rate limiter", "err", err)
			return 1
		}
		defer l.Close()
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err = l.Ping(pingCtx)
		cancel()
		if err != nil {
			logger.Error("rate limiter redis unreachable", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		limiter = l
	}

	httpServer, err := server.New(server.Config{
		Libraries:      core.REST.Libraries,
		Books:          core.REST.Books,
		Users:          core.REST.Users,
		GraphQL:        graph.NewHandler(schema),
		Limiter:        limiter,
		TrustedProxies: proxies,
	})
	if err != nil {
		logger.Error("failed to init server", "err", err)
		return 1
	}

	g, gctx := errgroup.WithContext(ctx)

	if cfg.ServeRPC {
		libSrv, bookSrv, userSrv := rpc.NewServer(), rpc.NewServer(), rpc.NewServer()
		core.RegisterRPC(libSrv, bookSrv, userSrv)
		for _, svc := range []struct {
			port string
			srv  *grpc.Server
		}{
			{cfg.LibraryRPCPort, libSrv},
			{cfg.BookRPCPort, bookSrv},
			{cfg.UserRPCPort, userSrv},
		} {
			svc := svc
			g.Go(func() error {
				return rpc.Serve(gctx, svc.srv, ":"+svc.port)
			})
		}
	}

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	g.Go(func() error {
		slog.Info("server listening", "addr", addr, "rest_backend", cfg.RESTBackend, "serve_rpc", cfg.ServeRPC)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("server error", "err", err)
		return 1
	}
	slog.Info("server stopped")
	return 0
}
