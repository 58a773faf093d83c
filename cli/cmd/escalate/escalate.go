package escalate

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/compozy/helpdesk/cli/cmd"
	"github.com/compozy/helpdesk/cli/helpers"
	"github.com/compozy/helpdesk/engine/escalation"
	"github.com/compozy/helpdesk/engine/helpdesk"
)

// NewCommand creates the escalate command
func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "escalate",
		Short: "Draft an escalation email to the helpdesk without sending it",
		Example: `  helpdesk escalate --query "Can I defer my exam?" --name Mario --surname Rossi \
    --student-id 123456 --email mario.rossi@studenti.example.edu`,
		RunE: func(c *cobra.Command, _ []string) error {
			if err := cmd.ValidateRequiredFlags(c, []string{"query"}); err != nil {
				return err
			}
			return cmd.ExecuteWithDependencies(c, func(ctx context.Context, _ *cobra.Command, deps *helpdesk.Dependencies) error {
				return run(ctx, c, deps.Service)
			})
		},
	}
	command.Flags().String("query", "", "Original question the chatbot could not settle")
	command.Flags().String("name", "", "Student first name")
	command.Flags().String("surname", "", "Student last name")
	command.Flags().String("student-id", "", "Student ID")
	command.Flags().String("email", "", "Student email, copied on the draft")
	command.Flags().String("rag-answer", "", "Answer the chatbot already gave")
	return command
}

func run(ctx context.Context, c *cobra.Command, svc *helpdesk.Service) error {
	req, err := requestFromFlags(c)
	if err != nil {
		return err
	}
	draft, err := svc.Escalate(ctx, req)
	if err != nil {
		return err
	}
	return helpers.WriteJSON(c.OutOrStdout(), draft)
}

func requestFromFlags(c *cobra.Command) (helpdesk.EscalationRequest, error) {
	values := make(map[string]string, 6)
	for _, name := range []string{"query", "name", "surname", "student-id", "email", "rag-answer"} {
		v, err := c.Flags().GetString(name)
		if err != nil {
			return helpdesk.EscalationRequest{}, err
		}
		values[name] = v
	}
	return helpdesk.EscalationRequest{
		Query:     values["query"],
		RAGAnswer: values["rag-answer"],
		Identity: escalation.Identity{
			FirstName: values["name"],
			LastName:  values["surname"],
			StudentID: values["student-id"],
			Email:     values["email"],
		},
	}, nil
}
