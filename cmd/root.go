// Package cmd contains all the CLI commands for the application,
// built using the Cobra library.
package cmd

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/naka-gawa/repo-ranking/internal/config"
	"github.com/naka-gawa/repo-ranking/internal/gateway"
)

var rootCmd = &cobra.Command{
	Use:   "repo-ranking",
	Short: "A CLI tool to rank the repositories of GitHub organizations.",
	Long: `repo-ranking is a CLI tool that ranks the repositories of a GitHub organization
by forks, stars, pull requests, or contribution percentage (pull requests per fork).
The token is read from GITHUB_TOKEN, which may also be set in a .env file.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	// Add a persistent flag for verbose output, available to all commands.
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
}

// newLogger returns a logger that discards everything unless --verbose is set.
func newLogger(cmd *cobra.Command) *logrus.Logger {
	verbose, _ := cmd.InheritedFlags().GetBool("verbose")
	logger := logrus.New()
	logger.SetOutput(io.Discard) // Default: discard all logs.
	if verbose {
		logger.SetOutput(os.Stderr) // If verbose, log to standard error.
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

// setup loads the configuration and creates the gateway, exiting on failure.
func setup(logger *logrus.Logger) *gateway.GitHubGateway {
	cfg, err := config.Load()
	if err != nil {
		logger.Debugf("No .env file loaded: %v", err)
	}
	if cfg.Token == "" {
		fmt.Fprintf(os.Stderr, "Error: %s environment variable is not set.\n", config.TokenEnv)
		os.Exit(1)
	}

	githubGateway, err := gateway.NewGitHubGateway(cfg.Token, logger,
		gateway.WithGraphQLURL(cfg.GraphQLURL),
		gateway.WithRESTURL(cfg.RESTURL),
	)
	if err != nil {
		fail("Failed to create GitHub gateway", err)
	}
	return githubGateway
}

// fail reports err to the user and exits.
func fail(msg string, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", msg, err)
	var gerr *gateway.Error
	if errors.As(err, &gerr) && (gerr.StatusCode == http.StatusUnauthorized || gerr.StatusCode == http.StatusForbidden) {
		fmt.Fprintf(os.Stderr, "Check that %s is set to a valid token with read access to the organization.\n", config.TokenEnv)
	}
	os.Exit(1)
}
