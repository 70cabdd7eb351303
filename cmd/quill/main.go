package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/quillchat/quill/internal/profile"
	"github.com/quillchat/quill/server"
	"github.com/quillchat/quill/store"
	"github.com/quillchat/quill/store/db"
)

const version = "0.1.0"

var rootCmd = &cobra.Command{
	Use:   "quill",
	Short: "A grounded chat service with session persistence",
	RunE: func(_ *cobra.Command, _ []string) error {
		instanceProfile := &profile.Profile{
			Mode:         viper.GetString("mode"),
			Addr:         viper.GetString("addr"),
			Port:         viper.GetInt("port"),
			Data:         viper.GetString("data"),
			Driver:       viper.GetString("driver"),
			DSN:          viper.GetString("dsn"),
			ContextLimit: viper.GetInt("context-limit"),
			Streaming:    viper.GetBool("streaming"),
			Version:      version,
		}
		instanceProfile.FromEnv()
		if err := instanceProfile.Validate(); err != nil {
			// Missing configuration is the one fatal startup error.
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		dbDriver, err := db.NewDBDriver(instanceProfile)
		if err != nil {
			slog.Error("failed to create db driver", slog.String("error", err.Error()))
			return err
		}

		storeInstance := store.New(dbDriver, instanceProfile)
		if err := storeInstance.Migrate(ctx); err != nil {
			slog.Error("failed to migrate database", slog.String("error", err.Error()))
			return err
		}

		s, err := server.NewServer(ctx, instanceProfile, storeInstance)
		if err != nil {
			slog.Error("failed to create server", slog.String("error", err.Error()))
			return err
		}

		errChan := make(chan error, 1)
		go func() {
			errChan <- s.Start(ctx)
		}()

		select {
		case <-ctx.Done():
		case err := <-errChan:
			slog.Error("server stopped unexpectedly", slog.String("error", err.Error()))
		}

		s.Shutdown(context.Background())
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("mode", "dev", `mode of the server, can be "prod" or "dev"`)
	rootCmd.PersistentFlags().String("addr", "", "binding address of the server")
	rootCmd.PersistentFlags().Int("port", 8230, "binding port of the server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", `database driver, can be "sqlite" or "postgres"`)
	rootCmd.PersistentFlags().String("dsn", "", "database source name (file path for sqlite)")
	rootCmd.PersistentFlags().Int("context-limit", profile.DefaultContextLimit, "max context characters per assembled prompt")
	rootCmd.PersistentFlags().Bool("streaming", true, "stream assistant replies chunk by chunk")

	for _, key := range []string{"mode", "addr", "port", "data", "driver", "dsn", "context-limit", "streaming"} {
		if err := viper.BindPFlag(key, rootCmd.PersistentFlags().Lookup(key)); err != nil {
			panic(err)
		}
	}
	viper.SetEnvPrefix("quill")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
