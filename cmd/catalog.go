package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"healthbot/internal/model"
	"healthbot/internal/server"
)

var catalogFile string

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the mood dimension catalog",
}

var catalogSeedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert mood dimensions from a YAML file and drop the cached catalog",
	RunE:  runCatalogSeed,
}

var catalogInvalidateCmd = &cobra.Command{
	Use:   "invalidate",
	Short: "Drop the cached mood catalog",
	RunE:  runCatalogInvalidate,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogSeedCmd, catalogInvalidateCmd)

	catalogSeedCmd.Flags().StringVarP(&catalogFile, "file", "f", "configs/mood_dimensions.yaml", "catalog YAML file")
}

// catalogFileContent 目录文件格式
type catalogFileContent struct {
	Dimensions []model.MoodDimension `yaml:"dimensions"`
}

func loadCatalogFile(path string) ([]model.MoodDimension, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var content catalogFileContent
	if err := yaml.Unmarshal(data, &content); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, d := range content.Dimensions {
		if d.Name == "" {
			return nil, fmt.Errorf("dimension #%d has no name", i+1)
		}
		if d.Min >= d.Max {
			return nil, fmt.Errorf("dimension %q: min must be below max", d.Name)
		}
		if d.Order == 0 {
			content.Dimensions[i].Order = i + 1
		}
	}
	return content.Dimensions, nil
}

func runCatalogSeed(cmd *cobra.Command, args []string) error {
	dims, err := loadCatalogFile(catalogFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cfg := GetConfig()
	infra, err := server.NewInfra(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer infra.Close(context.Background())

	if infra.Mongo == nil {
		return fmt.Errorf("MongoDB is not available, nothing to seed")
	}

	for _, d := range dims {
		if err := infra.Store.MoodDims.Upsert(ctx, d); err != nil {
			return fmt.Errorf("failed to upsert dimension %q: %w", d.Name, err)
		}
	}

	if err := infra.DialogueService(cfg.Dialogue).Catalog().Invalidate(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate cached catalog")
	}

	log.Info().Int("dimensions", len(dims)).Str("file", catalogFile).Msg("mood catalog seeded")
	return nil
}

func runCatalogInvalidate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	cfg := GetConfig()
	infra, err := server.NewInfra(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	defer infra.Close(context.Background())

	if infra.Redis == nil {
		log.Info().Msg("Redis not configured, catalog is not cached")
		return nil
	}

	if err := infra.DialogueService(cfg.Dialogue).Catalog().Invalidate(ctx); err != nil {
		return fmt.Errorf("failed to invalidate catalog: %w", err)
	}
	log.Info().Msg("mood catalog cache dropped")
	return nil
}
