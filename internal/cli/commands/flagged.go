package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/veetance/artifice/pkg/core"
)

// NewFlaggedCommand creates the flagged command.
func NewFlaggedCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "flagged",
		Short: "Export sketches killed during curation",
		Long: `List the sketches whose latest verdict is flag, across every session.
With --all, kept sketches are listed as well.`,
		Example: `  artifice flagged
  artifice flagged -o json > flagged.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFlagged(cmd, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include kept sketches")
	return cmd
}

func runFlagged(cmd *cobra.Command, all bool) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	filter := core.VerdictFlag
	if all {
		filter = ""
	}
	records, err := cc.Store.ListVerdicts(filter)
	if err != nil {
		return err
	}

	r := cc.Renderer
	return r.Render(records, func() error {
		if len(records) == 0 {
			r.Println(r.Muted("Nothing flagged"))
			return nil
		}
		rows := make([][]string, 0, len(records))
		for _, v := range records {
			rows = append(rows, []string{
				v.Source,
				label(string(v.Verdict)),
				shortID(v.SessionID),
				v.UpdatedAt.Local().Format("2006-01-02 15:04:05"),
			})
		}
		r.Table([]string{"Source", "Verdict", "Session", "Updated"}, rows)
		r.Println(r.Muted(fmt.Sprintf("%d sketches", len(records))))
		return nil
	})
}
