package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/user/convo/internal/config"
	"gopkg.in/yaml.v3"
)

var configForce bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and scaffold configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file to ~/.convo.yaml",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration after all layers are merged",
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	home, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("locating home directory: %w", err)
	}
	path := filepath.Join(home, ".convo.yaml")

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("%s already exists; use --force to overwrite", path)
	}

	cfg := starterConfig()
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	cfg, err := config.NewLoader().Load(nil)
	if err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	os.Stdout.Write(data)
	return nil
}

func starterConfig() *config.GlobalConfig {
	assistant := config.DefaultCharacter()
	assistant.SystemPrompt = "You are a helpful assistant."
	return &config.GlobalConfig{
		DefaultCharacter: "assistant",
		Characters: map[string]config.Character{
			"assistant": assistant,
		},
		Session: config.SessionConfig{
			MaxRounds:        5,
			MaxParallelTools: 4,
			EnableTools:      true,
			StreamTimeout:    300,
		},
		Retry: config.RetryConfig{
			MaxAttempts:       5,
			Multiplier:        1,
			MaxWaitPerAttempt: 60,
			MaxTotalWait:      300,
		},
		Logging: config.LoggingConfig{
			FileLevel:    "info",
			ConsoleLevel: "warn",
		},
	}
}
