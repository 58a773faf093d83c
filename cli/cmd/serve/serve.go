package serve

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/compozy/helpdesk/cli/helpers"
	"github.com/compozy/helpdesk/engine/infra/server"
	"github.com/compozy/helpdesk/pkg/config"
	"github.com/compozy/helpdesk/pkg/logger"
)

const productionEnvironment = "production"

// NewCommand creates the serve command for the HTTP API
func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Aliases: []string{"start", "server"},
		Short:   "Start the helpdesk HTTP API",
		RunE:    run,
	}
	cmd.Flags().String("host", "", "Host to bind (overrides server.host)")
	cmd.Flags().Int("port", 0, "Port to bind (overrides server.port)")
	return cmd
}

func run(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	cfg := config.FromContext(ctx)
	if err := applyFlags(cmd, cfg); err != nil {
		return err
	}
	if cfg.Runtime.Environment == productionEnvironment {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := helpers.EnsurePortAvailable(ctx, cfg.Server.Host, cfg.Server.Port); err != nil {
		return helpers.NewCliError("PORT_UNAVAILABLE", "cannot start server", err.Error())
	}
	logger.FromContext(ctx).Info("Starting helpdesk server",
		"address", cfg.Server.FullAddress(),
		"environment", cfg.Runtime.Environment)
	srv, err := server.NewServer(config.ContextWithConfig(ctx, cfg))
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run()
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	if cmd.Flags().Changed("host") {
		host, err := cmd.Flags().GetString("host")
		if err != nil {
			return err
		}
		cfg.Server.Host = host
	}
	if cmd.Flags().Changed("port") {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return err
		}
		if port < 1 || port > 65535 {
			return helpers.NewCliError("INVALID_FLAG", fmt.Sprintf("port %d is out of range", port))
		}
		cfg.Server.Port = port
	}
	return nil
}
