package commands

import (
	"fmt"
	"path"

	"github.com/spf13/cobra"

	"github.com/veetance/artifice/internal/bank"
	"github.com/veetance/artifice/pkg/core"
)

// IndexEntry is one sketch in the asset index with its latest verdict.
type IndexEntry struct {
	Source  string       `json:"source" yaml:"source"`
	Kind    string       `json:"kind" yaml:"kind"`
	Verdict core.Verdict `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "List the sketches the deck deals from",
		Long: `List the asset index: the configured index file, or every sketch
file under the bank directory when no index file is set. Each entry shows
the latest recorded verdict.`,
		Example: `  artifice index
  artifice index --index ARTIFICE-BANK/index.yaml -o yaml`,
		RunE: runIndex,
	}
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	sources, err := bank.Discover(cc.Cfg.BankDir, cc.Cfg.IndexFile)
	if err != nil {
		return fmt.Errorf("failed to read sketch bank: %w", err)
	}

	verdicts, err := cc.Store.ListVerdicts("")
	if err != nil {
		return err
	}
	byRef := make(map[string]core.Verdict, len(verdicts))
	for _, v := range verdicts {
		byRef[v.Source] = v.Verdict
	}

	entries := make([]IndexEntry, 0, len(sources))
	for _, src := range sources {
		kind := path.Ext(src)
		if kind == "" {
			kind = "url"
		}
		entries = append(entries, IndexEntry{Source: src, Kind: kind, Verdict: byRef[src]})
	}

	r := cc.Renderer
	return r.Render(entries, func() error {
		if len(entries) == 0 {
			r.Println(r.Muted("No sketches indexed in " + cc.Cfg.BankDir))
			return nil
		}
		rows := make([][]string, 0, len(entries))
		for i, e := range entries {
			rows = append(rows, []string{fmt.Sprint(i + 1), e.Source, e.Kind, label(string(e.Verdict))})
		}
		r.Table([]string{"#", "Source", "Kind", "Verdict"}, rows)
		r.Println(r.Muted(fmt.Sprintf("%d sketches", len(entries))))
		return nil
	})
}
