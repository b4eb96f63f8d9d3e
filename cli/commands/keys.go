package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/petrel-labs/brook/cli/keystore"
)

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage bearer tokens",
	Long:  `Manage bearer tokens for configured endpoints. Tokens are stored securely using encryption.`,
}

var keysSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Store a bearer token",
	Long:  `Store a bearer token under a name. The token will be prompted without echo for security.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysSet,
}

var keysGetCmd = &cobra.Command{
	Use:   "get <name>",
	Short: "Print a stored bearer token",
	Long:  `Print a stored bearer token to stdout, for use in scripts.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysGet,
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored bearer tokens",
	Long:  `List all stored bearer tokens. Only names are shown, never token values.`,
	RunE:  runKeysList,
}

var keysDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a stored bearer token",
	Args:  cobra.ExactArgs(1),
	RunE:  runKeysDelete,
}

func init() {
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysSetCmd)
	keysCmd.AddCommand(keysGetCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysDeleteCmd)
}

func runKeysSet(cmd *cobra.Command, args []string) error {
	name := args[0]

	// Prompt for the token
	fmt.Printf("Enter bearer token for %s: ", name)

	// Read without echo if terminal
	var token string
	if term.IsTerminal(int(os.Stdin.Fd())) {
		tokenBytes, err := term.ReadPassword(int(os.Stdin.Fd()))
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = string(tokenBytes)
		fmt.Println() // Newline after hidden input
	} else {
		// Fallback for non-terminal (e.g., piped input)
		reader := bufio.NewReader(os.Stdin)
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	if token == "" {
		return fmt.Errorf("token cannot be empty")
	}

	ks, err := keystore.NewKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Set(name, token); err != nil {
		return fmt.Errorf("failed to store token: %w", err)
	}

	fmt.Printf("Bearer token for %s stored successfully.\n", name)
	return nil
}

func runKeysGet(cmd *cobra.Command, args []string) error {
	name := args[0]

	ks, err := keystore.NewKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	token, err := ks.Get(name)
	if err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return fmt.Errorf("no token stored for %s", name)
		}
		return fmt.Errorf("failed to get token: %w", err)
	}

	fmt.Println(token)
	return nil
}

func runKeysList(cmd *cobra.Command, args []string) error {
	ks, err := keystore.NewKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	names, err := ks.List()
	if err != nil {
		return fmt.Errorf("failed to list tokens: %w", err)
	}

	if len(names) == 0 {
		fmt.Println("No bearer tokens stored.")
		return nil
	}

	fmt.Println("Stored tokens:")
	for _, name := range names {
		fmt.Printf("  - %s\n", name)
	}

	return nil
}

func runKeysDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	ks, err := keystore.NewKeystore()
	if err != nil {
		return fmt.Errorf("failed to open keystore: %w", err)
	}

	if err := ks.Delete(name); err != nil {
		if _, ok := err.(*keystore.ErrKeyNotFound); ok {
			return fmt.Errorf("no token stored for %s", name)
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}

	fmt.Printf("Bearer token for %s deleted.\n", name)
	return nil
}
