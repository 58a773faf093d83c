package ask

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/compozy/helpdesk/cli/cmd"
	"github.com/compozy/helpdesk/cli/helpers"
	"github.com/compozy/helpdesk/engine/helpdesk"
	helpdeskrouter "github.com/compozy/helpdesk/engine/helpdesk/router"
)

// NewCommand creates the ask command
func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "ask [question]",
		Short: "Answer a question from the indexed documents",
		Example: `  helpdesk ask "How do I apply for the exchange program?"
  helpdesk ask --query "When does the office open?"`,
		RunE: func(c *cobra.Command, args []string) error {
			return cmd.ExecuteWithDependencies(c, func(ctx context.Context, _ *cobra.Command, deps *helpdesk.Dependencies) error {
				return run(ctx, c, deps.Service, args)
			})
		},
	}
	command.Flags().String("query", "", "Question to answer (alternative to the positional argument)")
	return command
}

func run(ctx context.Context, c *cobra.Command, svc *helpdesk.Service, args []string) error {
	query, err := c.Flags().GetString("query")
	if err != nil {
		return err
	}
	if query == "" {
		query = strings.Join(args, " ")
	}
	answer, err := svc.Ask(ctx, query)
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), helpdeskrouter.AnswerResponse{Answer: answer})
}
