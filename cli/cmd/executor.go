package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/compozy/helpdesk/cli/helpers"
	"github.com/compozy/helpdesk/engine/helpdesk"
	"github.com/compozy/helpdesk/pkg/config"
	"github.com/compozy/helpdesk/pkg/logger"
)

const closeTimeout = 5 * time.Second

// HandlerFunc runs a command against the wired helpdesk dependencies.
type HandlerFunc func(ctx context.Context, cmd *cobra.Command, deps *helpdesk.Dependencies) error

// ExecuteWithDependencies builds the helpdesk from the context configuration,
// runs handler with an interrupt-aware context and releases everything after.
func ExecuteWithDependencies(cmd *cobra.Command, handler HandlerFunc) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	cfg := config.FromContext(ctx)
	deps, err := helpdesk.Build(ctx, cfg, nil)
	if err != nil {
		return HandleCommonErrors(err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
		defer cancel()
		if err := deps.Close(closeCtx); err != nil {
			logger.FromContext(ctx).Warn("Failed to release helpdesk dependencies", "error", err)
		}
	}()
	return HandleCommonErrors(handler(ctx, cmd, deps))
}

// ValidateRequiredFlags checks that all required flags are present and non-empty.
func ValidateRequiredFlags(cmd *cobra.Command, required []string) error {
	for _, flag := range required {
		if !cmd.Flags().Changed(flag) {
			return helpers.NewCliError("MISSING_FLAG", fmt.Sprintf("required flag '%s' not specified", flag))
		}
		if value, err := cmd.Flags().GetString(flag); err == nil && value == "" {
			return helpers.NewCliError("EMPTY_FLAG", fmt.Sprintf("required flag '%s' cannot be empty", flag))
		}
	}
	return nil
}

// HandleCommonErrors converts well known failures into structured CLI errors.
func HandleCommonErrors(err error) error {
	if err == nil {
		return nil
	}
	var cliErr *helpers.CliError
	switch {
	case errors.As(err, &cliErr):
		return cliErr
	case errors.Is(err, context.Canceled):
		return helpers.NewCliError("OPERATION_CANCELED", "Operation was canceled by user")
	case errors.Is(err, context.DeadlineExceeded):
		return helpers.NewCliError("OPERATION_TIMEOUT", "Operation timed out")
	case helpdesk.IsClientError(err):
		return helpers.NewCliError("INVALID_INPUT", "Invalid input", err.Error())
	case helpers.IsNetworkError(err):
		return helpers.NewCliError("NETWORK_ERROR", "Network connection failed", err.Error())
	default:
		return err
	}
}
