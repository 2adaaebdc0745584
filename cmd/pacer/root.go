package main

import (
	"github.com/hyperengineering/pacer"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	cfgDBPath      string
	cfgLearner     string
	cfgReasonerURL string
	cfgAPIKey      string
	cfgModel       string
	cfgNoAdaptive  bool
	outputJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "pacer",
	Short: "Pacer - adaptive spaced-repetition scheduling CLI",
	Long: `Pacer schedules what a learner should review and when.

It combines a deterministic SM-2 baseline with an AI-informed adaptive
predictor, prioritizes cards by urgency, and maintains a learner profile
from recorded study events.`,
}

func init() {
	// A .env alongside the binary is convenient for reasoner credentials.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVar(&cfgDBPath, "db-path", "", "Path to local database (default: ~/.pacer/learners/<learner>/pacer.db)")
	rootCmd.PersistentFlags().StringVar(&cfgLearner, "learner", "", "Learner ID (default: PACER_LEARNER or 'default')")
	rootCmd.PersistentFlags().StringVar(&cfgReasonerURL, "reasoner-url", "", "Base URL of an OpenAI-compatible reasoning endpoint")
	rootCmd.PersistentFlags().StringVar(&cfgAPIKey, "api-key", "", "API key for the reasoning endpoint")
	rootCmd.PersistentFlags().StringVar(&cfgModel, "model", "", "Model name for the reasoning endpoint")
	rootCmd.PersistentFlags().BoolVar(&cfgNoAdaptive, "no-adaptive", false, "Disable adaptive prediction, baseline scheduling only")
	rootCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
}

func loadConfig() pacer.Config {
	cfg := pacer.ConfigFromEnv()

	// Flags override environment
	if cfgDBPath != "" {
		cfg.LocalPath = cfgDBPath
	}
	if cfgLearner != "" {
		cfg.Learner = cfgLearner
	}
	if cfgReasonerURL != "" {
		cfg.ReasonerURL = cfgReasonerURL
	}
	if cfgAPIKey != "" {
		cfg.ReasonerAPIKey = cfgAPIKey
	}
	if cfgModel != "" {
		cfg.ReasonerModel = cfgModel
	}
	if cfgNoAdaptive {
		cfg.EnableAIPrediction = false
	}

	return cfg
}

func loadAndValidateConfig() (pacer.Config, error) {
	cfg := loadConfig().WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func newClient() (*pacer.Client, error) {
	cfg, err := loadAndValidateConfig()
	if err != nil {
		return nil, err
	}
	return pacer.New(cfg)
}
