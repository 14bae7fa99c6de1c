package options

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/skyfield-io/mavbridge/pkg/mqtt"
)

var _ IOptions = (*MirrorOptions)(nil)

// MirrorOptions contains configuration for the optional MQTT telemetry mirror.
// The mirror is disabled unless a broker URL is set; stdio remains the
// primary event channel either way.
type MirrorOptions struct {
	Broker   string `json:"broker" mapstructure:"broker"`
	Username string `json:"username" mapstructure:"username"`
	Password string `json:"password" mapstructure:"password"`
	ClientID string `json:"client-id" mapstructure:"client-id"`

	// Client behavior
	KeepAlive      time.Duration `json:"keep-alive" mapstructure:"keep-alive"`
	ConnectTimeout time.Duration `json:"connect-timeout" mapstructure:"connect-timeout"`

	// InsecureSkipVerify controls whether the client verifies the server's
	// certificate chain and host name. Testing only.
	InsecureSkipVerify bool `json:"insecure-skip-verify" mapstructure:"insecure-skip-verify"`

	// TopicRoot prefixes all mirror topics: {TopicRoot}/{kind}/{bridgeID}
	TopicRoot string `json:"topic-root" mapstructure:"topic-root"`
}

// NewMirrorOptions creates a MirrorOptions with default values (mirror disabled).
func NewMirrorOptions() *MirrorOptions {
	return &MirrorOptions{
		KeepAlive:      60 * time.Second,
		ConnectTimeout: 5 * time.Second,
		TopicRoot:      "mav/v1",
	}
}

// Enabled reports whether a mirror broker has been configured.
func (o *MirrorOptions) Enabled() bool {
	return o != nil && o.Broker != ""
}

// Validate is used to parse and validate the parameters entered by the user at
// the command line when the program starts.
func (o *MirrorOptions) Validate() []error {
	if o == nil || !o.Enabled() {
		return nil
	}

	errors := []error{}

	cfg := o.ToClientConfig()
	if err := cfg.Validate(); err != nil {
		errors = append(errors, err)
	}

	return errors
}

// AddFlags adds flags for MirrorOptions to the specified FlagSet.
func (o *MirrorOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	fs.StringVar(&o.Broker, "mirror.broker", o.Broker, "The URL of the MQTT broker for the telemetry mirror (empty disables it).")
	fs.StringVar(&o.Username, "mirror.username", o.Username, "The username for MQTT authentication.")
	fs.StringVar(&o.Password, "mirror.password", o.Password, "The password for MQTT authentication.")
	fs.StringVar(&o.ClientID, "mirror.client-id", o.ClientID, "Explicit client ID (optional, usually generated).")

	fs.DurationVar(&o.KeepAlive, "mirror.keep-alive", o.KeepAlive, "MQTT keep-alive interval.")
	fs.DurationVar(&o.ConnectTimeout, "mirror.connect-timeout", o.ConnectTimeout, "Timeout for establishing the MQTT connection.")
	fs.BoolVar(&o.InsecureSkipVerify, "mirror.insecure-skip-verify", o.InsecureSkipVerify, "If true, skips the TLS certificate verification.")

	fs.StringVar(&o.TopicRoot, "mirror.topic-root", o.TopicRoot, "Topic prefix for mirrored events.")
}

// ToClientConfig converts the options to a mqtt.ClientConfig.
func (o *MirrorOptions) ToClientConfig() *mqtt.ClientConfig {
	return &mqtt.ClientConfig{
		BrokerURL:          o.Broker,
		Username:           o.Username,
		Password:           o.Password,
		ClientID:           o.ClientID,
		KeepAlive:          uint16(o.KeepAlive.Seconds()),
		ConnectTimeout:     o.ConnectTimeout,
		CleanStart:         true,
		InsecureSkipVerify: o.InsecureSkipVerify,
	}
}
