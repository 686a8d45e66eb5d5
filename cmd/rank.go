package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-ranking/internal/domain"
	"github.com/naka-gawa/repo-ranking/internal/presenter"
	"github.com/naka-gawa/repo-ranking/internal/usecase"
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Ranks the repositories of GitHub organizations and prints a table",
	Long: `Fetches every repository of the given organizations and ranks them by forks, stars,
pull requests, or contribution percentage (100 * pull requests / forks).`,
	Example: `  repo-ranking rank --org golang --by stars --top 20
  repo-ranking rank -o kubernetes -o kubernetes-sigs -b contribution --output json`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		logger := newLogger(cmd)

		// Get other flags.
		orgs, _ := cmd.Flags().GetStringSlice("org")
		by, _ := cmd.Flags().GetString("by")
		top, _ := cmd.Flags().GetInt("top")
		output, _ := cmd.Flags().GetString("output")
		parallel, _ := cmd.Flags().GetInt("parallel")

		metric, err := domain.ParseMetric(by)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Invalid --by value: %v\n", err)
			os.Exit(1)
		}
		if output != "table" && output != "json" {
			fmt.Fprintf(os.Stderr, "Invalid --output value %q: use table or json\n", output)
			os.Exit(1)
		}

		// Inject dependencies and run the main business logic.
		aggregator := usecase.NewAggregator(setup(logger), logger)
		listings, err := aggregator.Aggregate(ctx, orgs, parallel)
		if err != nil {
			fail("Failed to fetch repositories", err)
		}

		reports := make([]presenter.Report, 0, len(listings))
		for _, listing := range listings {
			ranking, err := usecase.Rank(listing.Repos, metric, top)
			if err != nil {
				fail("Failed to rank repositories", err)
			}
			summary, err := usecase.Summarize(listing.Repos, metric)
			if err != nil {
				fail("Failed to summarize repositories", err)
			}
			reports = append(reports, presenter.Report{
				Organization: listing.Organization,
				Metric:       metric,
				Total:        len(listing.Repos),
				Ranking:      ranking,
				Summary:      summary,
			})
		}

		if output == "json" {
			if err := presenter.WriteJSON(os.Stdout, reports); err != nil {
				fail("Failed to print results", err)
			}
			return
		}
		for i, report := range reports {
			if i > 0 {
				fmt.Println()
			}
			if err := presenter.WriteTable(os.Stdout, report); err != nil {
				fail("Failed to print results", err)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(rankCmd)
	rankCmd.Flags().StringSliceP("org", "o", nil, "Target GitHub organization name, repeatable (required)")
	rankCmd.MarkFlagRequired("org")
	rankCmd.Flags().StringP("by", "b", string(domain.MetricStars), "Metric to rank by: forks, stars, prs, contribution")
	rankCmd.Flags().IntP("top", "n", 10, "Number of repositories to show")
	rankCmd.Flags().String("output", "table", "Output format: table or json")
	rankCmd.Flags().Int("parallel", 1, "Number of organizations fetched at the same time")
}
