package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/petrel-labs/brook/core"
)

// Exit codes
const (
	ExitSuccess    = 0
	ExitValidation = 1
	ExitTransfer   = 2
	ExitNetwork    = 3
)

var (
	outputPath string
	chunkSize  int
)

var getCmd = &cobra.Command{
	Use:   "get <url> [url...]",
	Short: "Download one or more URLs as streams",
	Long: `Download response bodies without buffering them in memory.

A single URL streams to stdout, or to the file given with -o. Multiple
URLs are fetched concurrently into the directory given with -o.

Examples:
  brook get https://files.example.com/big.iso -o big.iso
  brook get /reports/daily.csv --endpoint origin
  brook get https://files.example.com/a https://files.example.com/b -o downloads/`,
	Args: cobra.MinimumNArgs(1),
	RunE: runGet,
}

func init() {
	rootCmd.AddCommand(getCmd)

	getCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (single URL) or directory (multiple URLs)")
	getCmd.Flags().IntVar(&chunkSize, "chunk-size", 0, "stream chunk size in bytes (0 = config default)")
}

func runGet(cmd *cobra.Command, args []string) error {
	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	ctx := cmd.Context()

	if len(args) == 1 {
		return getOne(ctx, client, args[0], outputPath)
	}
	return getMany(ctx, client, args)
}

func getOne(ctx context.Context, client *core.Client, arg, dest string) error {
	target, err := resolveURL(arg)
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	resp, err := client.Get(ctx, target)
	if err != nil {
		return handleTransferError(err)
	}
	defer resp.Body.Close()

	out := io.Writer(os.Stdout)
	if dest != "" {
		f, err := os.Create(dest)
		if err != nil {
			return exitWithCode(ExitValidation, fmt.Errorf("failed to create %s: %w", dest, err))
		}
		defer f.Close()
		out = f
	}

	if err := streamBody(ctx, resp.Body, out); err != nil {
		return err
	}

	log.Debug().
		Str("url", target).
		Int64("bytes", resp.Body.BytesRead()).
		Msg("download complete")
	return nil
}

func getMany(ctx context.Context, client *core.Client, args []string) error {
	if outputPath == "" {
		return exitWithCode(ExitValidation, fmt.Errorf("-o <dir> is required when fetching multiple URLs"))
	}
	if err := os.MkdirAll(outputPath, 0755); err != nil {
		return exitWithCode(ExitValidation, fmt.Errorf("failed to create %s: %w", outputPath, err))
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, arg := range args {
		g.Go(func() error {
			target, err := resolveURL(arg)
			if err != nil {
				return exitWithCode(ExitValidation, err)
			}

			resp, err := client.Get(gctx, target)
			if err != nil {
				return handleTransferError(err)
			}
			defer resp.Body.Close()

			dest := filepath.Join(outputPath, filenameFor(target))
			f, err := os.Create(dest)
			if err != nil {
				return exitWithCode(ExitValidation, fmt.Errorf("failed to create %s: %w", dest, err))
			}
			defer f.Close()

			if err := streamBody(gctx, resp.Body, f); err != nil {
				return err
			}

			log.Debug().
				Str("url", target).
				Str("file", dest).
				Int64("bytes", resp.Body.BytesRead()).
				Msg("download complete")
			return nil
		})
	}
	return g.Wait()
}

// streamBody copies the body to out one chunk at a time.
func streamBody(ctx context.Context, body *core.Body, out io.Writer) error {
	for chunk, err := range body.Chunks(ctx, effectiveChunkSize()) {
		if err != nil {
			return handleTransferError(err)
		}
		if _, werr := out.Write(chunk); werr != nil {
			return exitWithCode(ExitValidation, fmt.Errorf("write failed: %w", werr))
		}
	}
	return nil
}

// effectiveChunkSize picks the chunk size from the flag, then config, then
// the library default.
func effectiveChunkSize() int {
	if chunkSize > 0 {
		return chunkSize
	}
	if cfg := GetConfig(); cfg != nil && cfg.ChunkSize > 0 {
		return cfg.ChunkSize
	}
	return core.DefaultChunkSize
}

// filenameFor derives a local filename from the URL path.
func filenameFor(rawURL string) string {
	name := ""
	if u, err := url.Parse(rawURL); err == nil {
		name = path.Base(u.Path)
	}
	if name == "" || name == "." || name == "/" {
		name = "index"
	}
	return name
}

func handleTransferError(err error) error {
	// Already classified by a nested call
	var ee *exitError
	if errors.As(err, &ee) {
		return err
	}

	var terr *core.TransferError
	if errors.As(err, &terr) {
		if IsJSONOutput() {
			outputErrorJSON(terr)
		} else {
			fmt.Fprintf(os.Stderr, "Error: %s\n", terr.Message)
			if terr.RequestID != "" {
				fmt.Fprintf(os.Stderr, "  Endpoint: %s, Request ID: %s\n", terr.Endpoint, terr.RequestID)
			}
		}

		// Determine exit code based on error type
		switch {
		case errors.Is(err, core.ErrNetwork):
			return exitWithCode(ExitNetwork, err)
		default:
			return exitWithCode(ExitTransfer, err)
		}
	}

	// Stalled streams and cancellations
	if errors.Is(err, core.ErrReadTimeout) ||
		errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if IsJSONOutput() {
			outputSimpleErrorJSON("network_error", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitWithCode(ExitNetwork, err)
	}

	// Truncated or over-long bodies
	if errors.Is(err, core.ErrIncompleteBody) {
		if IsJSONOutput() {
			outputSimpleErrorJSON("incomplete_body", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitWithCode(ExitTransfer, err)
	}

	// Validation errors
	if errors.Is(err, core.ErrURLRequired) || errors.Is(err, core.ErrBodyClosed) {
		if IsJSONOutput() {
			outputSimpleErrorJSON("validation_error", err.Error())
		} else {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return exitWithCode(ExitValidation, err)
	}

	// Generic error
	if IsJSONOutput() {
		outputSimpleErrorJSON("error", err.Error())
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return exitWithCode(ExitTransfer, err)
}

func outputErrorJSON(terr *core.TransferError) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"status":     terr.Status,
			"message":    terr.Message,
			"endpoint":   terr.Endpoint,
			"request_id": terr.RequestID,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

func outputSimpleErrorJSON(errType, message string) {
	output := map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}

	enc := json.NewEncoder(os.Stderr)
	enc.SetIndent("", "  ")
	enc.Encode(output)
}

// exitError wraps an error with an exit code.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) ExitCode() int {
	return e.code
}

func exitWithCode(code int, err error) error {
	return &exitError{code: code, err: err}
}
