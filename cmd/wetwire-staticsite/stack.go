package main

import (
	"github.com/spf13/cobra"

	"github.com/lex00/wetwire-staticsite-go/internal/config"
	"github.com/lex00/wetwire-staticsite-go/internal/site"
	"github.com/lex00/wetwire-staticsite-go/internal/stack"
)

// loadStack reads the site settings for cmd and declares the stack.
func loadStack(cmd *cobra.Command, opts *globalOptions) (*stack.Stack, config.Site, error) {
	cfg, err := config.Load(cmd, opts.configFile)
	if err != nil {
		return nil, config.Site{}, err
	}

	st, err := site.Declare(cfg)
	if err != nil {
		return nil, config.Site{}, err
	}
	return st, cfg, nil
}
