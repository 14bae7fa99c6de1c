package options

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

var _ IOptions = (*LinkOptions)(nil)

// LinkOptions contains configuration for the vehicle link.
type LinkOptions struct {
	// Address is the link connection string understood by the registered
	// link driver (e.g., "udp:127.0.0.1:14551", "sim:").
	Address string `json:"address" mapstructure:"address"`

	// HandshakeTimeout bounds the wait for the initial handshake after connecting.
	HandshakeTimeout time.Duration `json:"handshake-timeout" mapstructure:"handshake-timeout"`

	// ReconnectBackoff is the fixed delay between reconnection attempts.
	ReconnectBackoff time.Duration `json:"reconnect-backoff" mapstructure:"reconnect-backoff"`

	// StatusHold is how long an operator-set status suppresses automatic
	// status updates from vehicle lifecycle changes.
	StatusHold time.Duration `json:"status-hold" mapstructure:"status-hold"`

	// DebugTiming enables clock-skew diagnostic logging.
	DebugTiming bool `json:"debug-timing" mapstructure:"debug-timing"`
}

// NewLinkOptions creates a LinkOptions object with default parameters.
func NewLinkOptions() *LinkOptions {
	return &LinkOptions{
		Address:          "udp:127.0.0.1:14551",
		HandshakeTimeout: 10 * time.Second,
		ReconnectBackoff: 2 * time.Second,
		StatusHold:       4 * time.Second,
	}
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *LinkOptions) Validate() []error {
	if o == nil {
		return nil
	}

	errors := []error{}

	if o.Address == "" {
		errors = append(errors, fmt.Errorf("link address is required"))
	}
	if o.HandshakeTimeout <= 0 {
		errors = append(errors, fmt.Errorf("handshake timeout must be positive"))
	}
	if o.ReconnectBackoff <= 0 {
		errors = append(errors, fmt.Errorf("reconnect backoff must be positive"))
	}

	return errors
}

// AddFlags adds flags for LinkOptions to the specified FlagSet.
func (o *LinkOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Address, "link.address", o.Address, "The vehicle link connection string.")
	fs.DurationVar(&o.HandshakeTimeout, "link.handshake-timeout", o.HandshakeTimeout, "Timeout for the initial vehicle handshake.")
	fs.DurationVar(&o.ReconnectBackoff, "link.reconnect-backoff", o.ReconnectBackoff, "Fixed delay between link reconnection attempts.")
	fs.DurationVar(&o.StatusHold, "link.status-hold", o.StatusHold, "How long operator-set status text suppresses lifecycle updates.")
	fs.BoolVar(&o.DebugTiming, "link.debug-timing", o.DebugTiming, "Log clock-skew diagnostics above the 250ms threshold.")
}
