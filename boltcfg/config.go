// Package boltcfg assembles a ConnectorConfig via functional options,
// mirroring the teacher's own testcontainers-go usage
// (mysql.WithDatabase(...), mysql.WithUsername(...)) for the enumerated
// option set spec §6 requires.
package boltcfg

import (
	"context"
	"os"
	"time"

	"github.com/graphbolt/driver/address"
	"github.com/graphbolt/driver/boltcodes"
	"github.com/graphbolt/driver/boltconn"
	"github.com/graphbolt/driver/transport"
	"github.com/graphbolt/driver/value"

	"gopkg.in/yaml.v3"
)

// Scheme selects the connection topology: a single server, a routed
// cluster, or one-shot connections that bypass pooling entirely.
type Scheme int

const (
	SchemeDirect Scheme = iota
	SchemeNeo4j
	SchemeDirectUnpooled
)

// TransportKind selects plaintext or TLS-wrapped sockets.
type TransportKind int

const (
	TransportPlaintext TransportKind = iota
	TransportEncrypted
)

// ConnectorConfig is the enumerated option set of spec §6, built via
// the With* functional options below or loaded from YAML via Load.
type ConnectorConfig struct {
	Scheme    Scheme
	Transport TransportKind
	Trust     transport.TrustConfig
	UserAgent string

	RoutingContext  map[string]*value.Value
	AddressResolver address.Resolver

	MaxPoolSize              int
	MaxConnectionLifetime    time.Duration
	MaxConnectionAcquireWait time.Duration
	SocketOptions            transport.SocketOptions
}

// Option mutates a ConnectorConfig under construction.
type Option func(*ConnectorConfig)

// New builds a ConnectorConfig from opts, applied in order, starting
// from the documented defaults (direct scheme, plaintext transport,
// pool size 100, unbounded lifetime, fail-fast acquisition).
func New(opts ...Option) *ConnectorConfig {
	cfg := &ConnectorConfig{
		Scheme:          SchemeDirect,
		Transport:       TransportPlaintext,
		UserAgent:       "graphbolt-driver/1.0",
		MaxPoolSize:     100,
		AddressResolver: address.DefaultResolver,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func WithScheme(s Scheme) Option { return func(c *ConnectorConfig) { c.Scheme = s } }

func WithTransport(t TransportKind) Option { return func(c *ConnectorConfig) { c.Transport = t } }

func WithTrust(trust transport.TrustConfig) Option {
	return func(c *ConnectorConfig) { c.Trust = trust }
}

func WithUserAgent(agent string) Option { return func(c *ConnectorConfig) { c.UserAgent = agent } }

func WithRoutingContext(ctx map[string]*value.Value) Option {
	return func(c *ConnectorConfig) { c.RoutingContext = ctx }
}

func WithAddressResolver(r address.Resolver) Option {
	return func(c *ConnectorConfig) { c.AddressResolver = r }
}

func WithMaxPoolSize(n int) Option { return func(c *ConnectorConfig) { c.MaxPoolSize = n } }

func WithMaxConnectionLifetime(d time.Duration) Option {
	return func(c *ConnectorConfig) { c.MaxConnectionLifetime = d }
}

func WithMaxAcquisitionWait(d time.Duration) Option {
	return func(c *ConnectorConfig) { c.MaxConnectionAcquireWait = d }
}

func WithSocketOptions(opts transport.SocketOptions) Option {
	return func(c *ConnectorConfig) { c.SocketOptions = opts }
}

// Dialer builds the boltconn.Dialer matching the configured transport
// and socket options, for injection into pool.Pool/routing.Pool.
func (c *ConnectorConfig) Dialer() boltconn.Dialer {
	if c.Transport == TransportEncrypted {
		return func(ctx context.Context, addr string) (transport.Transport, error) {
			return transport.DialTLS(ctx, addr, c.SocketOptions, c.Trust)
		}
	}
	return func(ctx context.Context, addr string) (transport.Transport, error) {
		return transport.DialPlain(ctx, addr, c.SocketOptions)
	}
}

// yamlConfig mirrors ConnectorConfig's fields for the on-disk format
// (spec §6's [ADDED] file-based configuration), keeping the exported
// struct itself free of serialization tags.
type yamlConfig struct {
	Scheme    string `yaml:"scheme"`
	Transport string `yaml:"transport"`
	Trust     struct {
		SkipVerify         bool   `yaml:"skip_verify"`
		SkipVerifyHostname bool   `yaml:"skip_verify_hostname"`
		CertFile           string `yaml:"cert_file"`
	} `yaml:"trust"`
	UserAgent      string            `yaml:"user_agent"`
	RoutingContext map[string]string `yaml:"routing_context"`

	MaxPoolSize             int   `yaml:"max_pool_size"`
	MaxConnectionLifetimeMS int64 `yaml:"max_connection_lifetime_ms"`
	MaxAcquisitionWaitMS    int64 `yaml:"max_connection_acquisition_timeout_ms"`

	SocketOptions struct {
		ConnectTimeoutMS int64 `yaml:"connect_timeout_ms"`
		RecvTimeoutMS    int64 `yaml:"recv_timeout_ms"`
		SendTimeoutMS    int64 `yaml:"send_timeout_ms"`
		KeepAlive        bool  `yaml:"keep_alive"`
	} `yaml:"socket_options"`
}

// Load reads a YAML connector-config file at path and builds the
// equivalent ConnectorConfig, per spec §6's file-based configuration.
// Unset scalar fields keep New's defaults.
func Load(path string) (*ConnectorConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, boltcodes.Wrap(boltcodes.Unsupported, "boltcfg: read config file", err)
	}
	var doc yamlConfig
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, boltcodes.Wrap(boltcodes.Unsupported, "boltcfg: parse config file", err)
	}

	cfg := New()

	switch doc.Scheme {
	case "", "direct":
		cfg.Scheme = SchemeDirect
	case "neo4j":
		cfg.Scheme = SchemeNeo4j
	case "direct_unpooled":
		cfg.Scheme = SchemeDirectUnpooled
	default:
		return nil, boltcodes.New(boltcodes.Unsupported, "boltcfg: unrecognized scheme "+doc.Scheme)
	}

	switch doc.Transport {
	case "", "plaintext":
		cfg.Transport = TransportPlaintext
	case "tls", "encrypted":
		cfg.Transport = TransportEncrypted
	default:
		return nil, boltcodes.New(boltcodes.Unsupported, "boltcfg: unrecognized transport "+doc.Transport)
	}

	cfg.Trust = transport.TrustConfig{
		SkipVerify:         doc.Trust.SkipVerify,
		SkipVerifyHostname: doc.Trust.SkipVerifyHostname,
	}
	if doc.Trust.CertFile != "" {
		certs, err := os.ReadFile(doc.Trust.CertFile)
		if err != nil {
			return nil, boltcodes.Wrap(boltcodes.Unsupported, "boltcfg: read trust cert file", err)
		}
		cfg.Trust.Certs = certs
	}

	if doc.UserAgent != "" {
		cfg.UserAgent = doc.UserAgent
	}
	if len(doc.RoutingContext) > 0 {
		cfg.RoutingContext = make(map[string]*value.Value, len(doc.RoutingContext))
		for k, v := range doc.RoutingContext {
			var val value.Value
			val.FormatString(v)
			cfg.RoutingContext[k] = &val
		}
	}
	if doc.MaxPoolSize > 0 {
		cfg.MaxPoolSize = doc.MaxPoolSize
	}
	cfg.MaxConnectionLifetime = time.Duration(doc.MaxConnectionLifetimeMS) * time.Millisecond
	cfg.MaxConnectionAcquireWait = time.Duration(doc.MaxAcquisitionWaitMS) * time.Millisecond

	cfg.SocketOptions = transport.SocketOptions{
		ConnectTimeout: time.Duration(doc.SocketOptions.ConnectTimeoutMS) * time.Millisecond,
		RecvTimeout:    time.Duration(doc.SocketOptions.RecvTimeoutMS) * time.Millisecond,
		SendTimeout:    time.Duration(doc.SocketOptions.SendTimeoutMS) * time.Millisecond,
		KeepAlive:      doc.SocketOptions.KeepAlive,
	}

	return cfg, nil
}
