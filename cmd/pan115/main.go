package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cpan115/pan115/internal/api"
	"github.com/cpan115/pan115/internal/config"
	"github.com/cpan115/pan115/internal/version"
)

var (
	home, _        = os.UserHomeDir()
	configFileName = "config"
)

var (
	red   = color.New(color.FgHiRed, color.Bold).SprintFunc()
	green = color.New(color.FgHiGreen).SprintFunc()
	cyan  = color.New(color.FgHiCyan).SprintFunc()
)

var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:           "pan115",
	Short:         "115 cloud storage client",
	Version:       version.Detailed(),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			logLevel.Set(slog.LevelDebug)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultConfigPath, "config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")
}

func main() {
	logLevel.Set(slog.LevelInfo)
	handler := tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	})
	slog.SetDefault(slog.New(handler))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %s\n", red("ERROR"), err)
		os.Exit(1)
	}
}

// loadConfig resolves the config file through viper: explicit flag first,
// then the usual dot directories, with PAN115_* env overrides on top.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if cmd.Flag("config").Changed {
		configFilePath, _ := cmd.Flags().GetString("config")
		viper.SetConfigFile(configFilePath)
	} else {
		viper.AddConfigPath(filepath.Join(home, ".pan115"))
		viper.AddConfigPath(filepath.Join(home, ".config/pan115"))
		viper.SetConfigName(configFileName)
		viper.SetConfigType("json")
	}

	if err := viper.ReadInConfig(); err != nil {
		enoent := errors.Is(err, os.ErrNotExist)
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !enoent && !notFound {
			return nil, fmt.Errorf("config read '%s': %w", viper.ConfigFileUsed(), err)
		}
	}

	viper.SetEnvPrefix("PAN115")
	viper.AutomaticEnv()

	cfg := &config.Config{
		Path:            viper.ConfigFileUsed(),
		APIBase:         viper.GetString("api_base"),
		AuthBase:        viper.GetString("auth_base"),
		AccessToken:     viper.GetString("access_token"),
		RefreshToken:    viper.GetString("refresh_token"),
		ExpiresAt:       viper.GetTime("expires_at"),
		DownloadDir:     viper.GetString("download_dir"),
		UploadWorkers:   viper.GetInt("upload_workers"),
		DownloadWorkers: viper.GetInt("download_workers"),
	}
	if cfg.Path == "" {
		cfg.Path, _ = cmd.Flags().GetString("config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newClient builds the API client from a loaded config. Refreshed tokens are
// written back so the next invocation doesn't have to refresh again.
func newClient(cfg *config.Config) *api.Client {
	return api.New(cfg.APIBase, cfg.Token(),
		api.WithAuthBase(cfg.AuthBase),
		api.WithTokenRefreshHook(func(tok api.Token) {
			cfg.SetToken(tok)
			if err := cfg.Save(); err != nil {
				slog.Warn("persist refreshed token", "error", err)
			}
		}),
	)
}

// requireClient loads config and returns an authenticated client, or an
// error telling the user to login.
func requireClient(cmd *cobra.Command) (*api.Client, *config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.LoggedIn() && cfg.AccessToken == "" {
		return nil, nil, fmt.Errorf("not logged in, run 'pan115 login' first")
	}
	return newClient(cfg), cfg, nil
}
