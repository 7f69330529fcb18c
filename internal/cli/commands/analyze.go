package commands

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/veetance/artifice/internal/cli/output"
	"github.com/veetance/artifice/internal/cortex"
	"github.com/veetance/artifice/internal/host"
	"github.com/veetance/artifice/pkg/core"
)

// AnalyzeOptions holds options for the analyze command.
type AnalyzeOptions struct {
	ShowCode   bool
	NoValidate bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <file|url>",
		Short: "Show the descriptor Cortex derives from a sketch",
		Long: `Analyze a sketch file or URL and print the extracted parameters.

Structured documents keep their declared parameters. Raw sketch code is
scanned for top-level numeric declarations, which are rewritten to read
from the injected parameter bag.`,
		Example: `  # Inspect a bank sketch
  artifice analyze ARTIFICE-BANK/terrain.js

  # Print the rewritten code as well
  artifice analyze terrain.js --code

  # Machine-readable output
  artifice analyze https://example.com/sketch.js -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args[0], opts)
		},
	}

	cmd.Flags().BoolVar(&opts.ShowCode, "code", false, "Print the rewritten code")
	cmd.Flags().BoolVar(&opts.NoValidate, "no-validate", false, "Skip the syntax check of rewritten code")

	return cmd
}

func runAnalyze(cmd *cobra.Command, ref string, opts *AnalyzeOptions) error {
	cc := NewCommandContextWithoutStore(cmd)
	r := cc.Renderer

	content, err := readSketch(cmd, cc, ref)
	if err != nil {
		return err
	}

	analyzer := cortex.New(
		cortex.WithPalette(cc.Cfg.Brand),
		cortex.WithValidation(!opts.NoValidate),
		cortex.WithLogger(cc.Logger),
	)
	desc := analyzer.Analyze(content)

	return r.Render(desc, func() error {
		renderDescriptor(r, ref, desc, opts.ShowCode)
		return nil
	})
}

func readSketch(cmd *cobra.Command, cc *CommandContext, ref string) (string, error) {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		fetch := cc.Cfg.GetFetchConfig()
		fetcher := host.NewFetcher(host.FetchConfig{Timeout: fetch.Timeout, MaxBytes: fetch.MaxBytes})
		content, err := fetcher.Fetch(cmd.Context(), ref)
		if err != nil {
			return "", fmt.Errorf("failed to fetch %s: %w", ref, err)
		}
		return content, nil
	}

	data, err := os.ReadFile(ref) //nolint:gosec // user-supplied path is the point
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", ref, err)
	}
	return string(data), nil
}

func renderDescriptor(r *output.Renderer, ref string, desc core.SketchDescriptor, showCode bool) {
	styles := r.Styles()
	kind := "raw"
	if desc.Structured {
		kind = "structured"
	}

	r.Header(ref)
	r.Println(output.FormatKeyValue(styles, "kind", kind))
	r.Println(output.FormatKeyValue(styles, "parameters", strconv.Itoa(len(desc.Parameters))))
	r.Println()

	if len(desc.Parameters) > 0 {
		rows := make([][]string, 0, len(desc.Parameters))
		for _, p := range desc.Parameters {
			value := p.DefaultValue
			if v, ok := desc.ParameterValues[p.Name]; ok {
				value = v
			}
			rows = append(rows, []string{p.Name, formatNumber(value), formatNumber(p.Min), formatNumber(p.Max)})
		}
		r.Table([]string{"Name", "Value", "Min", "Max"}, rows)
	} else {
		r.Println(r.Muted("No tunable parameters"))
	}

	for _, d := range desc.Diagnostics {
		r.Warning("syntax: " + d)
	}

	if showCode {
		r.Println()
		r.Println(styles.Bold.Render("Code"))
		r.Println(desc.Code)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
