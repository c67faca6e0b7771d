// Command wetwire-staticsite declares a static website on S3 behind
// CloudFront and renders it as Terraform JSON or CloudFormation.
//
// Usage:
//
//	wetwire-staticsite build --base-name example     Generate Terraform JSON
//	wetwire-staticsite lint --base-name example      Check the declaration
//	wetwire-staticsite deploy --base-name example    Provision through the AWS SDK
//	wetwire-staticsite version                       Show version
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-staticsite-go/internal/logger"
)

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configFile string
	logLevel   string
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if err == nil {
		return 0
	}

	var exit *exitError
	if errors.As(err, &exit) {
		return exit.code
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "wetwire-staticsite",
		Short: "Declare a static website on S3 and CloudFront",
		Long: `wetwire-staticsite declares a static website: a content bucket served
through a CloudFront distribution with an origin access identity, and a log
bucket receiving the distribution's access logs.

Settings come from flags, STATICSITE_* environment variables or
staticsite.yaml:

    base-name: example
    region: eu-west-1

Then generate Terraform JSON:

    wetwire-staticsite build > main.tf.json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logLevel == "" {
				return nil
			}
			level, err := logger.ParseLevel(opts.logLevel)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", opts.logLevel, err)
			}
			logger.SetLevel(level)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "Config file (default: ./staticsite.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $LOG_LEVEL or info)")

	rootCmd.AddCommand(
		newBuildCmd(opts),
		newLintCmd(opts),
		newValidateCmd(opts),
		newGraphCmd(opts),
		newListCmd(opts),
		newDiffCmd(opts),
		newDeployCmd(opts),
		newDestroyCmd(opts),
		newWatchCmd(opts),
		newVersionCmd(),
	)

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "wetwire-staticsite %s\n", getVersion())
		},
	}
}
