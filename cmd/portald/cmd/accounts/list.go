package accounts

import (
	"fmt"
	"text/tabwriter"

	"github.com/MrEthical07/portalAuth/directory/bundir"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/spf13/cobra"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List portal accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		db, err := bundir.Open(ctx, Settings.DatabaseURL)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer db.Close()

		dir := bundir.New(db, permission.DefaultPortalTable())
		if err := dir.EnsureSchema(ctx); err != nil {
			return err
		}
		accs, err := dir.List(ctx)
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "IDENTIFIER\tSUBJECT\tROLE\tDEPARTMENT\tACTIVE\tLAST LOGIN")
		for _, a := range accs {
			last := "-"
			if a.LastLoginAt != nil {
				last = a.LastLoginAt.Format("2006-01-02 15:04")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%t\t%s\n", a.Identifier, a.SubjectID, a.Role, a.DepartmentID, a.Active, last)
		}
		return tw.Flush()
	},
}
