package accounts

import (
	"github.com/MrEthical07/portalAuth/cmd/portald/internal/config"
	"github.com/spf13/cobra"
)

// Settings is set by the root command before any subcommand runs.
var Settings *config.Settings

// AccountsCmd is the parent command for account management.
var AccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage portal accounts",
	Long:  `Commands for managing the accounts portald authenticates, directly against the database.`,
}

func init() {
	addCmd.Flags().StringVar(&identifierFlag, "identifier", "", "Login identifier, usually an email address")
	addCmd.Flags().StringVar(&roleFlag, "role", "", "Role: admin, department_head, faculty, staff, student or guest")
	addCmd.Flags().StringVar(&departmentFlag, "department", "", "Department ID")
	addCmd.Flags().StringVar(&subjectFlag, "subject-id", "", "Subject ID (generated when empty)")
	addCmd.Flags().StringVar(&passwordFlag, "password", "", "Password (use --stdin to avoid shell history)")
	addCmd.Flags().BoolVar(&stdinFlag, "stdin", false, "Read password from stdin instead of --password")
	addCmd.Flags().BoolVar(&inactiveFlag, "inactive", false, "Create the account disabled")

	AccountsCmd.AddCommand(addCmd)
	AccountsCmd.AddCommand(listCmd)
}
