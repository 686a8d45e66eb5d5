package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var quotaCmd = &cobra.Command{
	Use:   "quota",
	Short: "Shows the remaining GraphQL API quota of the token",
	Run: func(cmd *cobra.Command, args []string) {
		logger := newLogger(cmd)
		rl, err := setup(logger).RateLimit(context.Background())
		if err != nil {
			fail("Failed to fetch rate limit", err)
		}
		fmt.Printf("%d/%d points remaining, resets at %s (in %s)\n",
			rl.Remaining, rl.Limit, rl.ResetAt.Local().Format(time.DateTime), time.Until(rl.ResetAt).Round(time.Second))
	},
}

func init() {
	rootCmd.AddCommand(quotaCmd)
}
