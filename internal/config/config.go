// Package config loads site settings with viper.
//
// Precedence, highest first: explicitly set CLI flag, STATICSITE_* env var,
// staticsite.yaml, built-in default.
package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config keys. Each is also a CLI flag name.
const (
	KeyBaseName      = "base-name"
	KeyRegion        = "region"
	KeyIndexDocument = "index-document"
	KeyErrorDocument = "error-document"
	KeyLogPrefix     = "log-prefix"
	KeyForceDestroy  = "force-destroy"
	KeyPriceClass    = "price-class"
	KeyComment       = "comment"
)

// EnvPrefix is prepended to upper-cased keys, e.g. STATICSITE_BASE_NAME.
const EnvPrefix = "STATICSITE"

// DefaultConfigName is the config file looked up in the working directory.
const DefaultConfigName = "staticsite"

// Site holds the inputs of a site declaration.
type Site struct {
	BaseName      string
	Region        string
	IndexDocument string
	ErrorDocument string
	LogPrefix     string
	ForceDestroy  bool
	PriceClass    string
	Comment       string
}

// Default returns the built-in settings. BaseName has no default.
func Default() Site {
	return Site{
		Region:        "us-east-1",
		IndexDocument: "index.html",
		ErrorDocument: "index.html",
		LogPrefix:     "logs/",
		ForceDestroy:  true,
	}
}

// LogBucketName returns "<base-name>-logs".
func (s Site) LogBucketName() string {
	return s.BaseName + "-logs"
}

// SiteBucketName returns "<base-name>-site".
func (s Site) SiteBucketName() string {
	return s.BaseName + "-site"
}

// OAIComment returns the origin access identity comment, defaulting to a
// label derived from the base name.
func (s Site) OAIComment() string {
	if s.Comment != "" {
		return s.Comment
	}
	return "access-identity-" + s.SiteBucketName()
}

var bucketNamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

// Validate checks that the settings produce valid bucket names.
func (s Site) Validate() error {
	var errs []error

	if s.BaseName == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyBaseName))
	} else {
		for _, name := range []string{s.LogBucketName(), s.SiteBucketName()} {
			if !bucketNamePattern.MatchString(name) || strings.Contains(name, "..") {
				errs = append(errs, fmt.Errorf("%s %q yields invalid bucket name %q", KeyBaseName, s.BaseName, name))
			}
		}
	}
	if s.Region == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyRegion))
	}
	if s.IndexDocument == "" {
		errs = append(errs, fmt.Errorf("%s is required", KeyIndexDocument))
	}

	return errors.Join(errs...)
}

// NewViper returns a viper instance with defaults, env binding and, when
// present, the config file. An explicit configFile must exist.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	def := Default()
	v.SetDefault(KeyRegion, def.Region)
	v.SetDefault(KeyIndexDocument, def.IndexDocument)
	v.SetDefault(KeyErrorDocument, def.ErrorDocument)
	v.SetDefault(KeyLogPrefix, def.LogPrefix)
	v.SetDefault(KeyForceDestroy, def.ForceDestroy)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(DefaultConfigName)
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	return v, nil
}

// AddFlags registers the site flags on cmd. Flag defaults are display-only;
// values come from FlagLoader.
func AddFlags(cmd *cobra.Command) {
	def := Default()
	f := cmd.Flags()
	f.String(KeyBaseName, "", "Base name for buckets (<base-name>-logs, <base-name>-site)")
	f.String(KeyRegion, def.Region, "AWS region")
	f.String(KeyIndexDocument, def.IndexDocument, "Website index document")
	f.String(KeyErrorDocument, def.ErrorDocument, "Website error document")
	f.String(KeyLogPrefix, def.LogPrefix, "Distribution access log prefix")
	f.Bool(KeyForceDestroy, def.ForceDestroy, "Delete bucket contents on destroy")
	f.String(KeyPriceClass, "", "CloudFront price class (e.g. PriceClass_100)")
	f.String(KeyComment, "", "Origin access identity comment")
}

// FlagLoader provides methods for loading configuration values with CLI flag precedence.
// When a CLI flag is explicitly set, it takes precedence over config file and env vars.
// Otherwise, viper's standard priority applies: env > config file > default.
type FlagLoader struct {
	cmd *cobra.Command
	v   *viper.Viper
}

// NewFlagLoader creates a FlagLoader for the given cobra command.
func NewFlagLoader(cmd *cobra.Command, v *viper.Viper) *FlagLoader {
	return &FlagLoader{cmd: cmd, v: v}
}

// String returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) String(flagName string) string {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetString(flagName)
		return val
	}
	return f.v.GetString(flagName)
}

// Bool returns CLI flag value if explicitly set, otherwise viper value.
func (f *FlagLoader) Bool(flagName string) bool {
	if f.cmd.Flags().Changed(flagName) {
		val, _ := f.cmd.Flags().GetBool(flagName)
		return val
	}
	return f.v.GetBool(flagName)
}

// Site loads and validates the site settings.
func (f *FlagLoader) Site() (Site, error) {
	s := Site{
		BaseName:      f.String(KeyBaseName),
		Region:        f.String(KeyRegion),
		IndexDocument: f.String(KeyIndexDocument),
		ErrorDocument: f.String(KeyErrorDocument),
		LogPrefix:     f.String(KeyLogPrefix),
		ForceDestroy:  f.Bool(KeyForceDestroy),
		PriceClass:    f.String(KeyPriceClass),
		Comment:       f.String(KeyComment),
	}
	if err := s.Validate(); err != nil {
		return Site{}, err
	}
	return s, nil
}

// Load reads the site settings for cmd from flags, env and configFile.
func Load(cmd *cobra.Command, configFile string) (Site, error) {
	v, err := NewViper(configFile)
	if err != nil {
		return Site{}, err
	}
	return NewFlagLoader(cmd, v).Site()
}
