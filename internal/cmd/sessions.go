package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/mik25/your-series/internal/log"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

const sessionLimit = 10

func init() {
	rootCmd.AddCommand(sessionsCmd)
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Show the most recent build sessions and their failures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessions, err := log.ReadSessions(sessionLimit)
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			cmd.Println("No build sessions recorded")
			return nil
		}
		printSessions(cmd.OutOrStdout(), sessions)
		return nil
	},
}

func printSessions(w io.Writer, sessions []*log.Session) {
	for _, s := range sessions {
		meta := s.Metadata
		_, _ = fmt.Fprintf(w, "%s  %s  %d ops, %d failed\n",
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			strings.Join(meta.CommandArgs, " "),
			meta.TotalOps, meta.FailedOps)

		failed := lo.Filter(s.Operations, func(op log.OperationLog, _ int) bool {
			return !op.Success
		})
		for _, op := range failed {
			_, _ = fmt.Fprintf(w, "  %-10s %s: %s\n", op.Type, op.Subject, op.Error)
		}
	}
}
