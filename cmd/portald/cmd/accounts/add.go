package accounts

import (
	"bufio"
	"fmt"
	"strings"

	portalAuth "github.com/MrEthical07/portalAuth"
	"github.com/MrEthical07/portalAuth/directory/bundir"
	"github.com/MrEthical07/portalAuth/password"
	"github.com/MrEthical07/portalAuth/permission"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	identifierFlag string
	roleFlag       string
	departmentFlag string
	subjectFlag    string
	passwordFlag   string
	stdinFlag      bool
	inactiveFlag   bool
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a portal account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if identifierFlag == "" {
			return fmt.Errorf("--identifier flag is required")
		}
		role, ok := portalAuth.ParseRole(roleFlag)
		if !ok {
			return fmt.Errorf("--role must be one of %v", portalAuth.AllRoles)
		}

		pw := passwordFlag
		if stdinFlag {
			line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
			if err != nil && line == "" {
				return fmt.Errorf("failed to read password: %w", err)
			}
			pw = strings.TrimRight(line, "\r\n")
		}
		if pw == "" {
			return fmt.Errorf("password is required (use --password or --stdin)")
		}

		hasher, err := password.NewArgon2(Settings.PasswordConfig())
		if err != nil {
			return fmt.Errorf("argon2 init: %w", err)
		}
		digest, err := hasher.Hash(pw)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}

		subject := subjectFlag
		if subject == "" {
			subject = uuid.NewString()
		}

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
		err = dir.Create(ctx, portalAuth.Account{
			SubjectID:    subject,
			Identifier:   identifierFlag,
			PasswordHash: digest,
			Role:         role,
			DepartmentID: departmentFlag,
			Active:       !inactiveFlag,
		})
		if err != nil {
			return fmt.Errorf("create account: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s, role=%s)\n", identifierFlag, subject, role)
		return nil
	},
}
