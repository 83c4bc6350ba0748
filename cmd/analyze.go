package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"healthbot/internal/server"
)

var analyzeUser string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <conversation-id>",
	Short: "Analyze a conversation now and store its scores",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeUser, "user", "u", "", "owner user id")
	_ = analyzeCmd.MarkFlagRequired("user")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	infra, err := server.NewInfra(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer infra.Close(context.Background())

	res, err := infra.DialogueService(cfg.Dialogue).AnalyzeNow(ctx, analyzeUser, args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}
	if !res.Success {
		return fmt.Errorf("analysis did not succeed: %s", res.Reason)
	}
	return nil
}
