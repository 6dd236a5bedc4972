package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/offer-predictor/internal/predictor"
	"github.com/spigell/offer-predictor/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the offer acceptance form and JSON API over HTTP",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("addr", "a", "", "listen address (default is :8501)")

	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
}

func serve() {
	logger, config := setup()

	logger.Info("starting the offer-predictor", zap.String("version", version))

	// Artifacts are build-time dependencies: no point serving without them.
	a, err := loadArtifacts(config, logger)
	if err != nil {
		logger.Fatal("loading artifacts", zap.Error(err))
	}

	opts := server.Options{
		ModelKind: a.model.Kind,
	}
	if config.Server != nil {
		opts.Addr = config.Server.Addr
		opts.ReadTimeout = config.Server.ReadTimeout
		opts.WriteTimeout = config.Server.WriteTimeout
	}
	if a.cache != nil {
		opts.CacheStats = a.cache.Stats
	}

	srv := server.New(opts, predictor.New(a.classifier, a.metrics, logger), logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-quit
		logger.Info("got signal", zap.String("signal", sig.String()))
		if err := srv.Shutdown(); err != nil {
			logger.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	if err := srv.Listen(); err != nil {
		logger.Fatal("serving http", zap.Error(err))
	}

	logger.Info("exiting", zap.String("reason", "server stopped"))
}
