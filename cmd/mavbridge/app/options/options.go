// Package options holds the command-line and environment configuration for
// the mavbridge daemon.
package options

import (
	"errors"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/skyfield-io/mavbridge/internal/bridge"
	genericoptions "github.com/skyfield-io/mavbridge/pkg/options"

	"github.com/skyfield-io/mavbridge/pkg/log"
)

const envPrefix = "MAVBRIDGE"

// Options runs a mavbridge daemon.
type Options struct {
	// BridgeID identifies this instance on mirror topics. Empty generates one.
	BridgeID string `json:"bridge-id" mapstructure:"bridge-id"`

	Link    *genericoptions.LinkOptions    `json:"link" mapstructure:"link"`
	Mirror  *genericoptions.MirrorOptions  `json:"mirror" mapstructure:"mirror"`
	Metrics *genericoptions.MetricsOptions `json:"metrics" mapstructure:"metrics"`
	Log     *log.Options                   `json:"log" mapstructure:"log"`
}

// NewOptions creates an Options with default parameters.
func NewOptions() *Options {
	return &Options{
		Link:    genericoptions.NewLinkOptions(),
		Mirror:  genericoptions.NewMirrorOptions(),
		Metrics: genericoptions.NewMetricsOptions(),
		Log:     log.NewOptions(),
	}
}

// AddFlags adds all daemon flags to the given flag set.
func (o *Options) AddFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.BridgeID, "bridge-id", o.BridgeID, "Identifier for this bridge instance (generated when empty).")

	o.Link.AddFlags(fs)
	o.Mirror.AddFlags(fs)
	o.Metrics.AddFlags(fs)
	o.Log.AddFlags(fs)
}

// Complete fills the options from the environment after flag parsing.
// Environment variables use the MAVBRIDGE_ prefix with dots and dashes
// mapped to underscores (e.g. MAVBRIDGE_LINK_ADDRESS).
func (o *Options) Complete(fs *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(fs); err != nil {
		return err
	}
	return v.Unmarshal(o)
}

// Validate checks all option groups.
func (o *Options) Validate() error {
	var errs []error

	errs = append(errs, o.Link.Validate()...)
	errs = append(errs, o.Mirror.Validate()...)
	errs = append(errs, o.Metrics.Validate()...)
	errs = append(errs, o.Log.Validate()...)

	return errors.Join(errs...)
}

// Config builds the runnable bridge configuration from the options.
func (o *Options) Config() (*bridge.Config, error) {
	return &bridge.Config{
		BridgeID: o.BridgeID,
		Link:     o.Link,
		Mirror:   o.Mirror,
		Metrics:  o.Metrics,
	}, nil
}
