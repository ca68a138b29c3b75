package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/assessment-recommender/internal/api"
	"github.com/spigell/assessment-recommender/internal/catalog"
	"github.com/spigell/assessment-recommender/internal/embedding"
	"github.com/spigell/assessment-recommender/internal/logger"
	"github.com/spigell/assessment-recommender/internal/recommend"
	"github.com/spigell/assessment-recommender/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation API over HTTP",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("address", "a", "", "listen address (default :8000)")
	serveCmd.Flags().String("embedding-provider", "", "embedding backend: gemini or hashing")

	viper.BindPFlag("server.address", serveCmd.Flags().Lookup("address"))
	viper.BindPFlag("embedding.provider", serveCmd.Flags().Lookup("embedding-provider"))
}

// serve runs the API until SIGINT or SIGTERM.
func serve(parent context.Context) {
	if parent == nil {
		parent = context.Background()
	}

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig(viper.GetViper())
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the assessment-recommender", zap.String("version", version))

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, config, logger); err != nil {
		logger.Fatal("serving failed", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "shutdown completed"))
}

// setupTracing is swapped in tests.
var setupTracing = telemetry.Setup

func run(ctx context.Context, config *Config, log *zap.Logger) error {
	shutdownTracing, err := setupTracing(ctx, config.Telemetry.TracesEndpoint, version, log)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			log.Warn("flushing traces", zap.Error(err))
		}
	}()

	embedder, err := embedding.New(ctx, config.Embedding, log)
	if err != nil {
		return fmt.Errorf("creating the embedder: %w", err)
	}
	defer embedder.Close()

	source, err := catalog.New(config.Catalog, log)
	if err != nil {
		return fmt.Errorf("creating the catalog: %w", err)
	}

	service, err := recommend.New(config.Recommend, source, embedder, log)
	if err != nil {
		return fmt.Errorf("creating the recommender: %w", err)
	}

	for _, status := range service.Describe() {
		log.Info("filter configured",
			zap.String("name", status.Name),
			zap.Bool("enabled", status.Enabled),
			zap.Any("details", status.Details),
		)
	}
	logger.WithEmbedder(log, embedder.Provider(), embedder.Model()).Info("embedder ready")

	server := &http.Server{
		Addr:         config.Server.Address,
		Handler:      api.NewRouter(service, config.Server.CORSOrigins, log),
		ReadTimeout:  config.Server.ReadTimeout,
		WriteTimeout: config.Server.WriteTimeout,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		log.Info("listening", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		log.Info("shutting down", zap.Duration("timeout", config.Server.ShutdownTimeout))

		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.Server.ShutdownTimeout)
		defer cancel()

		return server.Shutdown(shutdownCtx)
	})

	return group.Wait()
}
