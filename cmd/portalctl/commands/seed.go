package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	directorymodels "civic/internal/directory/models"
	dErrors "civic/pkg/domain-errors"
	"civic/pkg/requestcontext"
)

var defaultDepartments = []directorymodels.DepartmentRequest{
	{Name: "Roads", Description: "Potholes, street lighting and signage"},
	{Name: "Sanitation", Description: "Waste collection and drains"},
	{Name: "Water", Description: "Supply, leaks and billing disputes"},
	{Name: "Parks", Description: "Parks, trees and public spaces"},
}

func seedCmd(e *env) *cobra.Command {
	var (
		wards         int
		adminEmail    string
		adminPassword string
	)
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create starter wards, departments and an admin account",
		Long: "Creates wards W01..Wnn, the standard departments and, when --admin-email is set, " +
			"an admin account. Records that already exist are skipped.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if e.cfg.Database.URL == "" {
				return errNoDatabase
			}
			a, done, err := e.open(cmd.Context())
			if err != nil {
				return err
			}
			defer done()

			ctx := requestcontext.WithTime(cmd.Context(), timeNow())
			out := cmd.OutOrStdout()
			for i := 1; i <= wards; i++ {
				req := &directorymodels.WardRequest{
					Name: fmt.Sprintf("Ward %d", i),
					Code: fmt.Sprintf("W%02d", i),
				}
				w, err := a.Directory.CreateWard(ctx, req)
				switch {
				case dErrors.HasCode(err, dErrors.CodeConflict):
					fmt.Fprintln(out, "ward exists", req.Code)
				case err != nil:
					return err
				default:
					fmt.Fprintln(out, "ward created", w.Code, w.ID)
				}
			}
			for _, req := range defaultDepartments {
				d, err := a.Directory.CreateDepartment(ctx, &req)
				switch {
				case dErrors.HasCode(err, dErrors.CodeConflict):
					fmt.Fprintln(out, "department exists", req.Name)
				case err != nil:
					return err
				default:
					fmt.Fprintln(out, "department created", d.Name, d.ID)
				}
			}
			if adminEmail != "" {
				created, err := a.Identity.EnsureAdmin(ctx, adminEmail, adminPassword)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintln(out, "admin created", adminEmail)
				} else {
					fmt.Fprintln(out, "admin exists")
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&wards, "wards", 5, "number of wards to create")
	cmd.Flags().StringVar(&adminEmail, "admin-email", "", "email of the admin account")
	cmd.Flags().StringVar(&adminPassword, "admin-password", "", "password of the admin account")
	cmd.MarkFlagsRequiredTogether("admin-email", "admin-password")
	return cmd
}
