package ingest

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/compozy/helpdesk/cli/cmd"
	"github.com/compozy/helpdesk/cli/helpers"
	"github.com/compozy/helpdesk/engine/helpdesk"
	kingest "github.com/compozy/helpdesk/engine/knowledge/ingest"
	"github.com/compozy/helpdesk/pkg/config"
)

// Summary is the printed outcome of an ingestion run.
type Summary struct {
	Collection string            `json:"collection"`
	Documents  int               `json:"documents"`
	Chunks     int               `json:"chunks"`
	Persisted  int               `json:"persisted"`
	Skipped    []string          `json:"skipped,omitempty"`
	Failed     map[string]string `json:"failed,omitempty"`
	Duration   string            `json:"duration"`
}

// NewCommand creates the ingest command
func NewCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "ingest",
		Short: "Load, chunk, embed and index documents into the vector store",
		Example: `  helpdesk ingest --dir ./data
  helpdesk ingest --dir ./handbook --replace --json`,
		RunE: func(c *cobra.Command, _ []string) error {
			return cmd.ExecuteWithDependencies(c, func(ctx context.Context, _ *cobra.Command, deps *helpdesk.Dependencies) error {
				return run(ctx, c, deps)
			})
		},
	}
	command.Flags().String("dir", "", "Directory to ingest (defaults to ingest.dir)")
	command.Flags().Bool("replace", false, "Delete the collection's records before writing")
	return command
}

func run(ctx context.Context, c *cobra.Command, deps *helpdesk.Dependencies) error {
	dir, err := c.Flags().GetString("dir")
	if err != nil {
		return err
	}
	replace, err := c.Flags().GetBool("replace")
	if err != nil {
		return err
	}
	strategy := kingest.StrategyUpsert
	if replace {
		strategy = kingest.StrategyReplace
	}
	cfg := config.FromContext(ctx)
	pipeline, err := helpdesk.NewIngestPipeline(cfg, deps.Embedder, deps.Store, dir, strategy)
	if err != nil {
		return err
	}
	start := time.Now()
	result, err := pipeline.Run(ctx)
	if err != nil {
		return fmt.Errorf("ingestion failed: %w", err)
	}
	summary := Summary{
		Collection: result.Collection,
		Documents:  result.Documents,
		Chunks:     result.Chunks,
		Persisted:  result.Persisted,
		Skipped:    result.Skipped,
		Failed:     result.Failed,
		Duration:   helpers.FormatDuration(time.Since(start)),
	}
	if helpers.DetectMode(c) == helpers.ModeJSON {
		return helpers.WriteJSON(c.OutOrStdout(), summary)
	}
	renderSummary(c.OutOrStdout(), summary)
	return nil
}

func renderSummary(w io.Writer, s Summary) {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5FD7AF"))
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Width(12)
	warn := lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	lines := []string{
		title.Render(fmt.Sprintf("Ingested %d %s into %q",
			s.Documents, helpers.Pluralize(s.Documents, "document", "documents"), s.Collection)),
		label.Render("Chunks") + fmt.Sprintf("%d", s.Chunks),
		label.Render("Persisted") + fmt.Sprintf("%d", s.Persisted),
		label.Render("Duration") + s.Duration,
	}
	if len(s.Skipped) > 0 {
		lines = append(lines, label.Render("Skipped")+strings.Join(s.Skipped, ", "))
	}
	failed := make([]string, 0, len(s.Failed))
	for path := range s.Failed {
		failed = append(failed, path)
	}
	sort.Strings(failed)
	for _, path := range failed {
		lines = append(lines, warn.Render(fmt.Sprintf("failed %s: %s", path, s.Failed[path])))
	}
	fmt.Fprintln(w, strings.Join(lines, "\n"))
}
