// SPDX-License-Identifier: GPL-3.0-or-later

package dnswalk

import (
	"fmt"
	"net/netip"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

// Config is the resolver configuration, usually read from a TOML file.
type Config struct {
	// RootServer is the IPv4 address where every walk starts.
	RootServer string `toml:"root_server"`

	// Port is the nameserver port.
	Port uint16 `toml:"port"`

	// Timeout bounds each query.
	Timeout Duration `toml:"timeout"`

	// MaxHops bounds the queries of a single resolution.
	MaxHops int `toml:"max_hops"`

	// StrictGlue only accepts glue for the referred nameservers.
	StrictGlue bool `toml:"strict_glue"`

	// QueryRate is the maximum number of queries per second; zero
	// disables pacing.
	QueryRate float64 `toml:"query_rate"`

	// DenyNameservers lists networks we never send queries to.
	DenyNameservers []string `toml:"deny_nameservers"`

	// LogLevel is one of debug, info, warn and error.
	LogLevel string `toml:"log_level"`
}

// Duration is a [time.Duration] that decodes from strings such as "5s".
type Duration struct {
	time.Duration
}

// UnmarshalText for duration type
func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText for duration type
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// DefaultConfig returns the configuration used when there is no file.
func DefaultConfig() *Config {
	return &Config{
		RootServer: DefaultRootServer.String(),
		Port:       53,
		Timeout:    Duration{5 * time.Second},
		MaxHops:    DefaultMaxHops,
		StrictGlue: true,
		LogLevel:   "info",
	}
}

// LoadConfig reads the TOML file at path on top of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, nil
}

// NewResolver builds a [*Resolver] using a [*UDPTransport]. When reg
// is not nil, the resolver metrics are registered with it.
func (c *Config) NewResolver(reg prometheus.Registerer) (*Resolver, error) {
	root, err := netip.ParseAddr(c.RootServer)
	if err != nil {
		return nil, fmt.Errorf("root server: %w", err)
	}
	if !root.Is4() {
		return nil, fmt.Errorf("root server: %s is not an IPv4 address", root)
	}

	filter, err := NewAddrFilter(c.DenyNameservers)
	if err != nil {
		return nil, err
	}

	txp := NewUDPTransport()
	txp.Port = c.Port
	txp.Timeout = c.Timeout.Duration

	r := NewResolver(txp)
	r.Filter = filter
	r.MaxHops = c.MaxHops
	r.RootServer = root
	r.StrictGlue = c.StrictGlue
	if c.QueryRate > 0 {
		r.Limiter = rate.NewLimiter(rate.Limit(c.QueryRate), 1)
	}
	if reg != nil {
		r.Metrics = NewMetrics(reg)
	}
	return r, nil
}
