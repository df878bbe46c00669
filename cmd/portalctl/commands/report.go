package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"civic/pkg/requestcontext"
)

func reportCmd(e *env) *cobra.Command {
	var runDue bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the cross-module summary report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, done, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			ctx := requestcontext.WithTime(cmd.Context(), timeNow())
			if runDue {
				n, err := a.Reports.RunDue(ctx)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "generated %d scheduled report(s)\n", n)
			}
			summary, err := a.Reports.Summary(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(summary)
		},
	}
	cmd.Flags().BoolVar(&runDue, "run-due", false, "also generate every scheduled report that is due")
	return cmd
}
