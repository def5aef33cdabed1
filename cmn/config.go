package cmn

import (
	"flag"
	"time"

	"github.com/nimbusfs/core/cmn/jsp"
)

// Config is the JSON-file configuration tree shared by the catalog
// daemon and the data-proxy daemon (spec.md §1 "configuration loading"
// is an external collaborator concern; the ambient shape — a struct
// tree with per-section Validate(), no viper/cobra — is still carried,
// adapted from the teacher's cmn/config.go).
type Config struct {
	Role    string        `json:"role"` // "catalog" | "proxy"
	Net     NetConf       `json:"net"`
	Signing SigningConf   `json:"signing"`
	Cache   CacheConf     `json:"cache"`
	Repl    ReplConf      `json:"replication"`
	Rules   RulesConf     `json:"rules"`
}

type NetConf struct {
	ListenAddr  string `json:"listen_addr"`
	MetricsAddr string `json:"metrics_addr"`
	TLS         bool   `json:"tls"`
}

func (c *NetConf) Validate() error {
	if c.ListenAddr == "" {
		return NewError(KindInvalidArgument, "net.listen_addr must not be empty")
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = ":9090"
	}
	return nil
}

// SigningConf locates this daemon's EdDSA signing key and its serial
// (spec.md §4.A "Header carries key identifier (serial)").
type SigningConf struct {
	SelfID     string `json:"self_id"`
	KeyPath    string `json:"key_path"`
	KeySerial  int32  `json:"key_serial"`
}

func (c *SigningConf) Validate() error {
	if c.SelfID == "" {
		return NewError(KindInvalidArgument, "signing.self_id must not be empty")
	}
	if c.KeyPath == "" {
		return NewError(KindInvalidArgument, "signing.key_path must not be empty")
	}
	return nil
}

// CacheConf tunes the process-local cache (spec.md §4.D).
type CacheConf struct {
	EventBufferSize int           `json:"event_buffer_size"`
	ReconcileEvery  time.Duration `json:"reconcile_every"`
}

func (c *CacheConf) Validate() error {
	if c.EventBufferSize <= 0 {
		c.EventBufferSize = 1024
	}
	if c.ReconcileEvery <= 0 {
		c.ReconcileEvery = time.Minute
	}
	return nil
}

// ReplConf tunes the replication coordinator (spec.md §4.H).
type ReplConf struct {
	StaleAfter       time.Duration `json:"stale_after"`
	ReconcileEvery   time.Duration `json:"reconcile_every"`
}

func (c *ReplConf) Validate() error {
	if c.StaleAfter <= 0 {
		c.StaleAfter = 5 * time.Minute
	}
	if c.ReconcileEvery <= 0 {
		c.ReconcileEvery = 30 * time.Second
	}
	return nil
}

// RulesConf tunes the rule engine (spec.md §4.G).
type RulesConf struct {
	EvalTimeout time.Duration `json:"eval_timeout"`
}

func (c *RulesConf) Validate() error {
	if c.EvalTimeout <= 0 {
		c.EvalTimeout = 200 * time.Millisecond
	}
	return nil
}

// Validate runs every section's Validate, matching the teacher's
// Config.Validate aggregating per-section checks.
func (c *Config) Validate() error {
	if c.Role != "catalog" && c.Role != "proxy" {
		return NewErrorf(KindInvalidArgument, "role must be \"catalog\" or \"proxy\", got %q", c.Role)
	}
	for _, v := range []interface{ Validate() error }{&c.Net, &c.Signing, &c.Cache, &c.Repl, &c.Rules} {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads a JSON config file from path (spec.md ambient
// "Configuration" — no checksum preamble, since operators hand-edit
// this file).
func Load(path string) (*Config, error) {
	var c Config
	if err := jsp.Load(path, &c, jsp.Plain()); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Flags holds the per-daemon CLI flags, mirroring the teacher's
// ais/daemon.go cliFlags (-role, -config), implemented with the
// standard flag package per spec.md's ambient Configuration section.
// ConfigPath selects the config file; Role is parsed but does not
// override the file's Role.
type Flags struct {
	Role       string
	ConfigPath string
}

func ParseFlags(args []string) (*Flags, error) {
	fs := flag.NewFlagSet("nimbusfs", flag.ContinueOnError)
	role := fs.String("role", "", "daemon role: catalog | proxy")
	configPath := fs.String("config", "", "path to JSON config file")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &Flags{Role: *role, ConfigPath: *configPath}, nil
}
