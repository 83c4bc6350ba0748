package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"healthbot/internal/pkg/jwt"
)

var (
	tokenUser string
	tokenPaid bool
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an access token for a user (development helper)",
	RunE:  runToken,
}

func init() {
	rootCmd.AddCommand(tokenCmd)

	tokenCmd.Flags().StringVarP(&tokenUser, "user", "u", "", "user id")
	tokenCmd.Flags().BoolVar(&tokenPaid, "paid", false, "mark the user as paid")
	_ = tokenCmd.MarkFlagRequired("user")
}

func runToken(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	if cfg.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}

	token, err := jwt.NewJWT(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenExpiry).GenerateToken(tokenUser, tokenPaid)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
