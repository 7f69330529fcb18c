package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sketch loads",
		Long: `Show the load history recorded by the server: which sketch each
session loaded, the context generation, and whether the load completed,
failed, or was superseded by a newer one.`,
		Example: `  artifice history
  artifice history --limit 100 -o json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of loads to show (0 for all)")
	return cmd
}

func runHistory(cmd *cobra.Command, limit int) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	loads, err := cc.Store.ListLoads(limit)
	if err != nil {
		return err
	}

	r := cc.Renderer
	return r.Render(loads, func() error {
		if len(loads) == 0 {
			r.Println(r.Muted("No loads recorded"))
			return nil
		}
		rows := make([][]string, 0, len(loads))
		for _, l := range loads {
			rows = append(rows, []string{
				l.LoadedAt.Local().Format("2006-01-02 15:04:05"),
				shortID(l.SessionID),
				l.Source,
				strconv.FormatUint(l.Generation, 10),
				strconv.Itoa(l.ParameterCount),
				label(string(l.Status)),
				l.Error,
			})
		}
		r.Table([]string{"Loaded", "Session", "Source", "Gen", "Params", "Status", "Error"}, rows)
		r.Println(r.Muted(fmt.Sprintf("%d loads", len(loads))))
		return nil
	})
}
