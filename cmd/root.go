package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"healthbot/internal/config"
	"healthbot/internal/pkg/logger"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "healthbot",
	Short: "Healthbot - supportive conversation service",
	Long: `Healthbot is a supportive conversation service built with Eino framework.
Every reply carries a mood snapshot, and conversations are periodically
summarized into an emotional trajectory.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./configs/config.yaml)")

	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// .env 不存在时忽略
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Failed to load .env: %v\n", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.healthbot")
	}

	// 环境变量设置
	viper.SetEnvPrefix("HEALTHBOT")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			fmt.Fprintln(os.Stderr, "No config file found, using defaults and environment variables")
		} else {
			fmt.Fprintf(os.Stderr, "Failed to read config: %v\n", err)
			os.Exit(1)
		}
	}

	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to unmarshal config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to init logger: %v\n", err)
		os.Exit(1)
	}

	log.Debug().Str("config_file", viper.ConfigFileUsed()).Msg("configuration loaded")
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", "30s")
	viper.SetDefault("server.write_timeout", "60s")

	// AI
	viper.SetDefault("ai.provider", "openai")
	viper.SetDefault("ai.model", "gpt-4o-mini")
	viper.SetDefault("ai.completion_timeout", "30s")
	viper.SetDefault("ai.options.top_p", 1.0)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "console")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.time_format", "RFC3339")

	// MongoDB
	viper.SetDefault("mongo.uri", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "healthbot")
	viper.SetDefault("mongo.max_pool_size", 100)
	viper.SetDefault("mongo.min_pool_size", 10)

	// Redis
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.db", 0)

	// Auth
	viper.SetDefault("auth.access_token_expiry", "24h")

	// Dialogue
	d := config.DefaultDialogueConfig()
	viper.SetDefault("dialogue.rate_limit.free", d.RateLimit.Free)
	viper.SetDefault("dialogue.rate_limit.paid", d.RateLimit.Paid)
	viper.SetDefault("dialogue.rate_window", d.RateWindow)
	viper.SetDefault("dialogue.history_limit.free", d.HistoryLimit.Free)
	viper.SetDefault("dialogue.history_limit.paid", d.HistoryLimit.Paid)
	viper.SetDefault("dialogue.prompt_turns", d.PromptTurns)
	viper.SetDefault("dialogue.analysis_every", d.AnalysisEvery)
	viper.SetDefault("dialogue.analysis_window", d.AnalysisWindow)
	viper.SetDefault("dialogue.catalog_ttl", d.CatalogTTL)
	viper.SetDefault("dialogue.response_model.temperature", d.ResponseModel.Temperature)
	viper.SetDefault("dialogue.response_model.max_tokens", d.ResponseModel.MaxTokens)
	viper.SetDefault("dialogue.analysis_model.temperature", d.AnalysisModel.Temperature)
	viper.SetDefault("dialogue.analysis_model.max_tokens", d.AnalysisModel.MaxTokens)
	viper.SetDefault("dialogue.queue.size", d.Queue.Size)
	viper.SetDefault("dialogue.queue.workers", d.Queue.Workers)
}

// GetConfig returns the global configuration
func GetConfig() *config.Config {
	return cfg
}
