package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ses-engine/internal/secrets"
)

var setSecretCmd = &cobra.Command{
	Use:   "set-secret {imap|gemini}",
	Short: "Store a secret in the OS keychain",
	Long: `Reads the secret from stdin and stores it in the OS keychain.

  engine set-secret imap     IMAP app password for the configured account
  engine set-secret gemini   Gemini API key`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"imap", "gemini"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(os.Stderr, "secret: ")
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read secret: %w", err)
		}
		secret := strings.TrimSpace(line)

		switch args[0] {
		case "imap":
			cfg, _, err := loadConfig()
			if err != nil {
				return err
			}
			account := secrets.IMAPKeyringAccount(cfg)
			if err := secrets.SetIMAPPassword(account, secret); err != nil {
				return err
			}
			fmt.Printf("stored IMAP password for %s\n", account)
		case "gemini":
			if err := secrets.SetGeminiAPIKey(secret); err != nil {
				return err
			}
			fmt.Println("stored Gemini API key")
		default:
			return fmt.Errorf("unknown secret %q (want imap or gemini)", args[0])
		}
		return nil
	},
}
