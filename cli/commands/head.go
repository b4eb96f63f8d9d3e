package commands

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var headCmd = &cobra.Command{
	Use:   "head <url>",
	Short: "Fetch response metadata without the body",
	Long: `Perform a HEAD request and print the response status, declared
content length, and headers. No body bytes are transferred.

Examples:
  brook head https://files.example.com/big.iso
  brook head /reports/daily.csv --endpoint origin --json`,
	Args: cobra.ExactArgs(1),
	RunE: runHead,
}

func init() {
	rootCmd.AddCommand(headCmd)
}

func runHead(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	target, err := resolveURL(args[0])
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	resp, err := client.Head(cmd.Context(), target)
	if err != nil {
		return handleTransferError(err)
	}
	defer resp.Body.Close()

	if IsJSONOutput() {
		output := map[string]interface{}{
			"status":         resp.Status,
			"content_length": resp.ContentLength,
			"request_id":     resp.RequestID,
			"headers":        flattenHeader(resp.Header),
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(output)
	}

	fmt.Printf("status:         %d\n", resp.Status)
	fmt.Printf("content-length: %d\n", resp.ContentLength)
	if resp.RequestID != "" {
		fmt.Printf("request-id:     %s\n", resp.RequestID)
	}
	fmt.Println("headers:")
	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, v := range resp.Header[name] {
			fmt.Printf("  %s: %s\n", name, v)
		}
	}

	return nil
}

// flattenHeader collapses multi-valued headers to their first value.
func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, vals := range h {
		if len(vals) > 0 {
			out[name] = vals[0]
		}
	}
	return out
}
