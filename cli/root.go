package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/compozy/helpdesk/cli/cmd/ask"
	"github.com/compozy/helpdesk/cli/cmd/escalate"
	"github.com/compozy/helpdesk/cli/cmd/ingest"
	"github.com/compozy/helpdesk/cli/cmd/serve"
	"github.com/compozy/helpdesk/cli/helpers"
	"github.com/compozy/helpdesk/pkg/config"
	"github.com/compozy/helpdesk/pkg/logger"
	"github.com/compozy/helpdesk/pkg/version"
)

const (
	defaultConfigFile = "helpdesk.yaml"
	defaultEnvFile    = ".env"
)

func RootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:               "helpdesk",
		Short:             "Question answering and escalation drafting for the student helpdesk",
		Version:           version.Get().String(),
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: setupCommand,
	}
	root.PersistentFlags().String("config", defaultConfigFile, "Path to the YAML config file")
	root.PersistentFlags().String("env-file", defaultEnvFile, "Path to the environment variables file")
	root.PersistentFlags().String("collection", "", "Vector store collection name")
	root.PersistentFlags().String("llm-provider", "", "Generation provider (openai, mock)")
	root.PersistentFlags().String("vector-store", "", "Vector store provider (qdrant, memory)")
	root.PersistentFlags().Bool("json", false, "Print errors as JSON")
	logger.AddFlags(root)
	root.AddCommand(
		serve.NewCommand(),
		ask.NewCommand(),
		escalate.NewCommand(),
		ingest.NewCommand(),
	)
	return root
}

// Execute runs the root command and reports failures on stderr.
func Execute() error {
	root := RootCmd()
	cmd, err := root.ExecuteC()
	if err != nil {
		helpers.OutputError(os.Stderr, err, helpers.DetectMode(cmd))
	}
	return err
}

// setupCommand loads the env file, the logger and the layered configuration,
// then attaches them to the command context.
func setupCommand(cmd *cobra.Command, _ []string) error {
	if _, err := loadEnvFile(cmd); err != nil {
		return err
	}
	logLevel, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
	if err != nil {
		return err
	}
	logger.SetupLogger(logLevel, logJSON, logSource)
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	ctx := cmd.Context()
	cfg, err := config.NewService().Load(ctx,
		config.NewCLIProvider(flagOverrides(cmd)),
		config.NewYAMLProvider(configFile),
	)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !cmd.Flags().Changed("log-level") && cfg.Runtime.LogLevel != "" {
		logger.SetupLogger(cfg.Runtime.LogLevel, logJSON, logSource)
	}
	log := logger.GetDefault()
	ctx = logger.ContextWithLogger(ctx, log)
	ctx = config.ContextWithConfig(ctx, cfg)
	cmd.SetContext(ctx)
	log.Debug("Configuration loaded", "config_file", configFile, "environment", cfg.Runtime.Environment)
	return nil
}
