package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	budgetmodels "civic/internal/budget/models"
	id "civic/pkg/domain"
	"civic/pkg/requestcontext"
)

func simulateBudgetCmd(e *env) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "simulate-budget <cycle-id>",
		Short: "Show which proposals would be funded if the cycle closed now",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cycleID, err := id.ParseCycleID(args[0])
			if err != nil {
				return err
			}
			a, done, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			sim, err := a.Budget.Simulate(requestcontext.WithTime(cmd.Context(), timeNow()), cycleID)
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(sim)
			}
			return writeSimulation(cmd.OutOrStdout(), sim)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the simulation as JSON")
	return cmd
}

func writeSimulation(w io.Writer, sim *budgetmodels.Simulation) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPROPOSAL\tVOTES\tCOST\tFUNDED")
	rank := 0
	for _, rows := range [][]budgetmodels.Allocation{sim.Winners, sim.Unfunded} {
		for _, a := range rows {
			rank++
			funded := "no"
			if a.Funded {
				funded = "yes"
			}
			fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%s\n", rank, a.Title, a.Votes, a.Cost, funded)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "budget %d, allocated %d, remaining %d\n", sim.Budget, sim.TotalCost, sim.Remaining)
	return err
}
