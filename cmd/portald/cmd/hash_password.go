package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/MrEthical07/portalAuth/password"
	"github.com/spf13/cobra"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password",
	Short: "Print an Argon2id digest for a password read from stdin",
	Long: `Reads one line from stdin and prints its PHC-formatted Argon2id digest,
for seeding accounts by hand.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		hasher, err := password.NewArgon2(settings.PasswordConfig())
		if err != nil {
			return fmt.Errorf("argon2 init: %w", err)
		}

		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("failed to read password: %w", err)
		}
		digest, err := hasher.Hash(strings.TrimRight(line, "\r\n"))
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), digest)
		return nil
	},
}

func init() {
	hashPasswordCmd.SetIn(os.Stdin)
	rootCmd.AddCommand(hashPasswordCmd)
}
