package commands

import (
	"bufio"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var linesMax int

var linesCmd = &cobra.Command{
	Use:   "lines <url>",
	Short: "Stream a response body line by line",
	Long: `Stream a response body to stdout one line at a time.

Lines are split on LF with a trailing CR removed, so LF and CRLF feeds
both work. Bytes after the last terminator are printed as a final line.

Examples:
  brook lines https://feeds.example.com/events.ndjson
  brook lines /logs/today --endpoint origin --max 100`,
	Args: cobra.ExactArgs(1),
	RunE: runLines,
}

func init() {
	rootCmd.AddCommand(linesCmd)

	linesCmd.Flags().IntVar(&linesMax, "max", 0, "stop after this many lines (0 = unlimited)")
}

func runLines(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	target, err := resolveURL(args[0])
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	ctx := cmd.Context()
	resp, err := client.Get(ctx, target)
	if err != nil {
		return handleTransferError(err)
	}
	defer resp.Body.Close()

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	count := 0
	for line, err := range resp.Body.Lines(ctx, effectiveChunkSize()) {
		if err != nil {
			w.Flush()
			return handleTransferError(err)
		}
		if _, werr := w.Write(line); werr != nil {
			return exitWithCode(ExitValidation, fmt.Errorf("write failed: %w", werr))
		}
		if werr := w.WriteByte('\n'); werr != nil {
			return exitWithCode(ExitValidation, fmt.Errorf("write failed: %w", werr))
		}
		count++
		if linesMax > 0 && count >= linesMax {
			break
		}
	}

	return nil
}
