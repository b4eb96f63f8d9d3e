package commands

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/petrel-labs/brook/core"
)

var (
	waitDelay       time.Duration
	waitMaxAttempts int
)

var waitCmd = &cobra.Command{
	Use:   "wait <waiter> <url>",
	Short: "Poll a URL until a condition holds",
	Long: `Poll a URL until the named waiter's condition holds or the attempt
budget is exhausted.

Built-in waiters:
  endpoint-up        HEAD returns a 2xx status
  content-available  GET returns a 2xx status with a non-empty body

Examples:
  brook wait endpoint-up https://files.example.com/health
  brook wait content-available /reports/daily.csv --endpoint origin --delay 5s`,
	Args: cobra.ExactArgs(2),
	RunE: runWait,
}

func init() {
	rootCmd.AddCommand(waitCmd)

	waitCmd.Flags().DurationVar(&waitDelay, "delay", 0, "pause between polls (0 = waiter default)")
	waitCmd.Flags().IntVar(&waitMaxAttempts, "max-attempts", 0, "polls before giving up (0 = waiter default)")
}

func runWait(cmd *cobra.Command, args []string) error {
	name := args[0]

	client, err := newClient()
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	var opts []core.WaiterOption
	if waitDelay > 0 {
		opts = append(opts, core.WithWaiterDelay(waitDelay))
	}
	if waitMaxAttempts > 0 {
		opts = append(opts, core.WithMaxAttempts(waitMaxAttempts))
	}

	waiter, err := client.GetWaiter(name, opts...)
	if err != nil {
		return exitWithCode(ExitValidation,
			fmt.Errorf("%w (available: %v)", err, core.WaiterNames()))
	}

	target, err := resolveURL(args[1])
	if err != nil {
		return exitWithCode(ExitValidation, err)
	}

	log.Debug().
		Str("waiter", name).
		Str("url", target).
		Msg("waiting")

	if err := waiter.Wait(cmd.Context(), target); err != nil {
		var werr *core.WaiterError
		if errors.As(err, &werr) {
			if IsJSONOutput() {
				outputSimpleErrorJSON("waiter_failed", werr.Error())
			} else {
				fmt.Fprintf(os.Stderr, "Error: %v\n", werr)
			}
			return exitWithCode(ExitTransfer, err)
		}
		return handleTransferError(err)
	}

	if !IsJSONOutput() {
		fmt.Printf("condition %s met for %s\n", name, target)
	}
	return nil
}
