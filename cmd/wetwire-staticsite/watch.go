package main

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/lint"
	"github.com/lex00/wetwire-staticsite-go/internal/logger"
)

// newWatchCmd creates the "watch" subcommand for rebuilding when the config
// file changes.
func newWatchCmd(opts *globalOptions) *cobra.Command {
	var wopts watchOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Auto-rebuild when the config file changes",
		Long: `Watch monitors the site config file and rebuilds on every change.

The watch command:
- Monitors staticsite.yaml (or --config) for writes, including editor renames
- Runs lint on each change
- Rebuilds if lint passes (unless --lint-only)
- Debounces rapid changes to avoid excessive rebuilds

Examples:
    wetwire-staticsite watch -o main.tf.json
    wetwire-staticsite watch --lint-only
    wetwire-staticsite watch --target cloudformation -o template.json --debounce 1s`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, opts, wopts)
		},
	}

	cmd.Flags().BoolVar(&wopts.lintOnly, "lint-only", false, "Only run lint, skip build")
	cmd.Flags().DurationVar(&wopts.debounce, "debounce", 500*time.Millisecond, "Debounce duration for rapid changes")
	cmd.Flags().StringVarP(&wopts.target, "target", "t", targetTerraform, "Render target: terraform or cloudformation")
	cmd.Flags().StringVarP(&wopts.outputFormat, "format", "f", "json", "Output format for build: json or yaml")
	cmd.Flags().StringVarP(&wopts.outputFile, "output", "o", "", "Output file for build (default: report only)")
	config.AddFlags(cmd)

	return cmd
}

type watchOptions struct {
	lintOnly     bool
	debounce     time.Duration
	target       string
	outputFormat string
	outputFile   string
}

// runWatch watches the config file's directory and runs lint/build on changes.
func runWatch(cmd *cobra.Command, opts *globalOptions, wopts watchOptions) error {
	dir, match, err := watchTarget(opts.configFile)
	if err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() {
		_ = watcher.Close()
	}()

	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	logger.Info().Str("dir", dir).Msg("watching")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info().Msg("running initial lint/build")
	lintAndBuild(cmd, opts, wopts)

	var debounceTimer *time.Timer
	rebuildChan := make(chan struct{}, 1)
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	logger.Info().Msg("watching for changes (Ctrl+C to stop)")

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(event, match) {
				logger.Debug().Str("file", event.Name).Str("op", event.Op.String()).Msg("ignoring event")
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(wopts.debounce, func() {
				select {
				case rebuildChan <- struct{}{}:
				default:
				}
			})

		case <-rebuildChan:
			logger.Info().Msg("change detected, rebuilding")
			lintAndBuild(cmd, opts, wopts)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error().Err(err).Msg("watch error")

		case <-sigChan:
			logger.Info().Msg("stopping watch")
			return nil
		}
	}
}

// watchTarget returns the directory to watch and a matcher for the config
// file within it. Without an explicit file any staticsite.* config matches.
func watchTarget(configFile string) (string, func(string) bool, error) {
	if configFile != "" {
		abs, err := filepath.Abs(configFile)
		if err != nil {
			return "", nil, err
		}
		base := filepath.Base(abs)
		return filepath.Dir(abs), func(name string) bool {
			return filepath.Base(name) == base
		}, nil
	}

	dir, err := os.Getwd()
	if err != nil {
		return "", nil, err
	}
	return dir, func(name string) bool {
		return strings.HasPrefix(filepath.Base(name), config.DefaultConfigName+".")
	}, nil
}

func relevant(event fsnotify.Event, match func(string) bool) bool {
	if !match(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0
}

// lintAndBuild reloads the settings, lints the stack and rebuilds when lint
// passes.
func lintAndBuild(cmd *cobra.Command, opts *globalOptions, wopts watchOptions) {
	st, cfg, err := loadStack(cmd, opts)
	if err != nil {
		logger.Error().Err(err).Msg("loading site")
		return
	}

	result := lint.Run(st, lint.Options{})
	for _, issue := range result.Issues {
		issueEvent(issue.Severity).
			Str("rule", issue.Rule).
			Str("resource", issue.Resource).
			Msg(issue.Message)
	}
	if !result.Success {
		logger.Warn().Msg("lint failed, skipping build")
		return
	}
	logger.Info().Msg("lint passed")

	if wopts.lintOnly {
		return
	}

	data, err := render(st, cfg.Region, wopts.target, wopts.outputFormat)
	if err != nil {
		logger.Error().Err(err).Msg("build error")
		return
	}

	if wopts.outputFile == "" {
		logger.Info().Int("resources", st.Len()).Int("outputs", len(st.Outputs())).Msg("build successful")
		return
	}
	if err := os.WriteFile(wopts.outputFile, data, 0644); err != nil {
		logger.Error().Err(err).Str("file", wopts.outputFile).Msg("failed to write output")
		return
	}
	logger.Info().Str("file", wopts.outputFile).Int("resources", st.Len()).Msg("build successful")
}

// issueEvent logs a lint issue at the level matching its severity.
func issueEvent(severity lint.Severity) *zerolog.Event {
	switch severity {
	case lint.SeverityError:
		return logger.Error()
	case lint.SeverityWarning:
		return logger.Warn()
	default:
		return logger.Info()
	}
}
