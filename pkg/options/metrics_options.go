package options

import (
	"github.com/spf13/pflag"
)

var _ IOptions = (*MetricsOptions)(nil)

// MetricsOptions contains configuration for the optional metrics endpoint.
type MetricsOptions struct {
	// Addr is the bind address for /metrics and /healthz. Empty disables the server.
	Addr string `json:"addr" mapstructure:"addr"`
}

// NewMetricsOptions creates a MetricsOptions object with the server disabled.
func NewMetricsOptions() *MetricsOptions {
	return &MetricsOptions{}
}

// Enabled reports whether the metrics server should be started.
func (o *MetricsOptions) Enabled() bool {
	return o != nil && o.Addr != ""
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MetricsOptions) Validate() []error {
	if o == nil || o.Addr == "" {
		return nil
	}

	errors := []error{}

	if err := ValidateAddress(o.Addr); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// AddFlags adds flags for MetricsOptions to the specified FlagSet.
func (o *MetricsOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Addr, "metrics.addr", o.Addr, "Bind address for the metrics endpoint (empty disables it).")
}
