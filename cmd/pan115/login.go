package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/cpan115/pan115/internal/api"
)

func init() {
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newInfoCmd())
}

func newLoginCmd() *cobra.Command {
	var accessToken string
	var refreshToken string
	var expiresIn int64

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an open-platform token pair and verify it",
		Long: "Stores the access/refresh token pair issued on the 115 open platform\n" +
			"developer page, verifies it against the account endpoint, and writes\n" +
			"the config file.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if accessToken == "" && refreshToken == "" {
				return fmt.Errorf("provide --access-token and/or --refresh-token")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			cfg.SetToken(api.Token{
				AccessToken:  accessToken,
				RefreshToken: refreshToken,
				ExpiresAt:    time.Now().Add(time.Duration(expiresIn) * time.Second),
			})

			client := newClient(cfg)
			defer client.Close()

			user, err := client.User.Info(cmd.Context())
			if err != nil {
				return fmt.Errorf("token verification failed: %w", err)
			}

			// the verification round trip may already have rotated the pair
			cfg.SetToken(client.Token())
			if err := cfg.Save(); err != nil {
				return err
			}

			fmt.Printf("%s logged in as %s (uid %d)\n", green("OK"), cyan(user.UserName), user.UserID.Int64())
			fmt.Printf("config written to %s\n", cfg.Path)
			return nil
		},
	}

	cmd.Flags().StringVar(&accessToken, "access-token", "", "open platform access token")
	cmd.Flags().StringVar(&refreshToken, "refresh-token", "", "open platform refresh token")
	cmd.Flags().Int64Var(&expiresIn, "expires-in", 7200, "access token lifetime in seconds")
	return cmd
}

func newInfoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show account and storage usage",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := requireClient(cmd)
			if err != nil {
				return err
			}
			defer client.Close()

			user, err := client.User.Info(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Printf("User:  %s (uid %d)\n", cyan(user.UserName), user.UserID.Int64())
			if user.VIPInfo.LevelName != "" {
				fmt.Printf("Plan:  %s\n", user.VIPInfo.LevelName)
			}
			fmt.Printf("Space: %s used of %s (%s free)\n",
				humanize.IBytes(uint64(user.SpaceInfo.Used.Size.Int64())),
				humanize.IBytes(uint64(user.SpaceInfo.Total.Size.Int64())),
				humanize.IBytes(uint64(user.SpaceInfo.Remain.Size.Int64())),
			)
			return nil
		},
	}
}
