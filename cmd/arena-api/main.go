package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arenalabs/debate-arena/internal/arena"
	"github.com/arenalabs/debate-arena/internal/auth"
	"github.com/arenalabs/debate-arena/internal/config"
	"github.com/arenalabs/debate-arena/internal/ledger/localledger"
	"github.com/arenalabs/debate-arena/internal/logging"
	"github.com/arenalabs/debate-arena/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "arena-api",
		Short: "Micro-debate arena backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("actor-address", defaults.GetString("actor.address"), "Acting wallet address")
	cmd.PersistentFlags().String("ledger-path", defaults.GetString("ledger.path"), "Local ledger SQLite path")
	cmd.PersistentFlags().Duration("poll-interval", defaults.GetDuration("poll.interval"), "Reconciliation poll interval")
	cmd.PersistentFlags().Int("created-limit", defaults.GetInt("poll.created_limit"), "Creation event query limit")
	cmd.PersistentFlags().Int("joined-limit", defaults.GetInt("poll.joined_limit"), "Join event query limit")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "actor.address", "actor-address")
	bindFlag(cmd, "ledger.path", "ledger-path")
	bindFlag(cmd, "poll.interval", "poll-interval")
	bindFlag(cmd, "poll.created_limit", "created-limit")
	bindFlag(cmd, "poll.joined_limit", "joined-limit")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "session.signing_secret", "signing-secret")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	localLedger, err := localledger.Open(appConfig.LedgerPath, logger)
	if err != nil {
		return err
	}

	arenaService, err := arena.NewService(arena.ServiceConfig{
		Query:             localLedger,
		Submitter:         localLedger,
		Actor:             appConfig.ActorAddress,
		PollInterval:      appConfig.PollInterval,
		CreatedEventLimit: appConfig.CreatedEventLimit,
		JoinedEventLimit:  appConfig.JoinedEventLimit,
		StatusDisplayFor:  appConfig.StatusDisplayFor,
		Logger:            logger,
	})
	if err != nil {
		return err
	}

	sessions := auth.NewSessionIssuer(auth.SessionIssuerConfig{
		SigningSecret: []byte(appConfig.SessionSigningSecret),
		Issuer:        "arena-auth",
		Audience:      "arena-api",
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Sessions: sessions,
		Arena:    arenaService,
		Actor:    appConfig.ActorAddress,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	arenaService.Start(signalCtx)
	defer arenaService.Stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("actor", appConfig.ActorAddress),
			zap.Duration("poll_interval", appConfig.PollInterval))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
