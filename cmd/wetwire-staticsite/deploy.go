package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/deploy"
	"github.com/lex00/wetwire-staticsite-go/internal/logger"
)

func newDeployCmd(opts *globalOptions) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Provision the site directly through the AWS SDK",
		Long: `Deploy creates the site's resources in dependency order using the
default AWS credential chain. Existing resources are adopted: buckets by
name, the origin access identity and the distribution by comment. An
adopted distribution gets the declared configuration.

Examples:
    wetwire-staticsite deploy --base-name example --region eu-west-1
    wetwire-staticsite deploy --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, cfg, err := loadStack(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := provisionContext(cmd, cfg)
			defer stop()

			p, err := newProvisioner(ctx, cfg)
			if err != nil {
				return err
			}

			result, err := p.Apply(ctx, st)
			if result != nil {
				if outErr := outputDeployResult(cmd.OutOrStdout(), result, outputFormat); outErr != nil {
					return errors.Join(err, outErr)
				}
			}
			if err != nil {
				return fmt.Errorf("deploy failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	config.AddFlags(cmd)

	return cmd
}

func newDestroyCmd(opts *globalOptions) *cobra.Command {
	var (
		outputFormat string
		yes          bool
		waitTimeout  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "destroy",
		Short: "Delete the site's resources through the AWS SDK",
		Long: `Destroy deletes the site's resources in reverse dependency order.

The distribution is disabled first and deleted once the change has deployed,
which can take several minutes. Buckets are emptied before deletion when
force-destroy is set. Resources that no longer exist are skipped.

Examples:
    wetwire-staticsite destroy --base-name example --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return fmt.Errorf("destroy deletes the site and its logs; rerun with --yes to confirm")
			}

			st, cfg, err := loadStack(cmd, opts)
			if err != nil {
				return err
			}

			ctx, stop := provisionContext(cmd, cfg)
			defer stop()

			p, err := newProvisioner(ctx, cfg)
			if err != nil {
				return err
			}
			p.WaitTimeout = waitTimeout

			result, err := p.Destroy(ctx, st)
			if result != nil {
				if outErr := outputDeployResult(cmd.OutOrStdout(), result, outputFormat); outErr != nil {
					return errors.Join(err, outErr)
				}
			}
			if err != nil {
				return fmt.Errorf("destroy failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "format", "f", "text", "Output format: text or json")
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion")
	cmd.Flags().DurationVar(&waitTimeout, "wait-timeout", deploy.DefaultWaitTimeout, "Maximum wait for the distribution to disable")
	config.AddFlags(cmd)

	return cmd
}

// provisionContext cancels on SIGINT/SIGTERM and carries a logger tagged
// with the command and region.
func provisionContext(cmd *cobra.Command, cfg config.Site) (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	l := logger.Get().With().
		Str("command", cmd.Name()).
		Str("site", cfg.BaseName).
		Str("region", cfg.Region).
		Logger()
	return logger.WithLogger(ctx, &l), stop
}

func newProvisioner(ctx context.Context, cfg config.Site) (*deploy.Provisioner, error) {
	s3Client, cfClient, err := deploy.NewClients(ctx, cfg.Region)
	if err != nil {
		return nil, err
	}
	return deploy.New(s3Client, cfClient, cfg.Region), nil
}

func outputDeployResult(w io.Writer, result *deploy.Result, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))

	case "text":
		for _, step := range result.Steps {
			line := fmt.Sprintf("  %-8s %s (%s)", step.Action, step.Resource, step.Type)
			if step.ID != "" {
				line += " " + step.ID
			}
			fmt.Fprintln(w, line)
		}
		if len(result.Outputs) > 0 {
			fmt.Fprintln(w, "\nOutputs:")
			names := make([]string, 0, len(result.Outputs))
			for name := range result.Outputs {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Fprintf(w, "  %s = %s\n", name, result.Outputs[name])
			}
		}

	default:
		return fmt.Errorf("unknown format: %s", format)
	}

	return nil
}
