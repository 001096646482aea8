package connection

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
)

const (
	// DefaultHost is used when no host is configured.
	DefaultHost = "localhost"
	// DefaultPort is the standard MongoDB port.
	DefaultPort = 27017
	// DefaultDatabase is used when no database name is configured.
	DefaultDatabase = "adoric"
)

// Config holds the parameters needed to reach a MongoDB deployment.
// When URL is set it wins over the individual fields; otherwise a
// connection string is composed from them.
type Config struct {
	URL      string `yaml:"url,omitempty" json:"url,omitempty"`
	Host     string `yaml:"host,omitempty" json:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" json:"port,omitempty"`
	User     string `yaml:"user,omitempty" json:"user,omitempty"`
	Password string `yaml:"password,omitempty" json:"-"`
	Database string `yaml:"database,omitempty" json:"database,omitempty"`
	// Options is the raw query string appended to composed URIs, e.g.
	// "authSource=admin&replicaSet=rs0".
	Options string `yaml:"options,omitempty" json:"options,omitempty"`
}

// ParseURL splits a MongoDB connection string into a Config. The raw URL
// is retained so that URI() reproduces it exactly, including options the
// individual fields do not model.
func ParseURL(raw string) (Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse connection url: %w", err)
	}
	if u.Scheme != "mongodb" && u.Scheme != "mongodb+srv" {
		return Config{}, fmt.Errorf("unsupported connection scheme %q", u.Scheme)
	}

	cfg := Config{
		URL:      raw,
		Host:     u.Hostname(),
		Database: strings.TrimPrefix(u.Path, "/"),
		Options:  u.RawQuery,
	}
	if p := u.Port(); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return Config{}, fmt.Errorf("invalid port %q in connection url", p)
		}
		cfg.Port = port
	}
	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}
	return cfg, nil
}

// FromEnv builds a Config from MONGO_* environment variables. The second
// return value reports whether any of them were set. MONGO_URL takes
// precedence; the individual variables overlay whatever it parsed to.
func FromEnv() (Config, bool) {
	var cfg Config
	found := false

	if raw := os.Getenv("MONGO_URL"); raw != "" {
		if parsed, err := ParseURL(raw); err == nil {
			cfg = parsed
			found = true
		}
	}
	if v := os.Getenv("MONGO_HOST"); v != "" {
		cfg.Host = v
		cfg.URL = ""
		found = true
	}
	if v := os.Getenv("MONGO_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Port = port
			cfg.URL = ""
			found = true
		}
	}
	if v := os.Getenv("MONGO_USER"); v != "" {
		cfg.User = v
		cfg.URL = ""
		found = true
	}
	if v := os.Getenv("MONGO_PASSWORD"); v != "" {
		cfg.Password = v
		cfg.URL = ""
		found = true
	}
	if v := os.Getenv("MONGO_DATABASE"); v != "" {
		cfg.Database = v
		cfg.URL = ""
		found = true
	}
	return cfg, found
}

// URI returns the connection string for this config. A non-empty URL is
// returned verbatim; otherwise the string is composed from the fields,
// falling back to defaults for host and port.
func (c Config) URI() string {
	if c.URL != "" {
		return c.URL
	}

	host := c.Host
	if host == "" {
		host = DefaultHost
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}

	var b strings.Builder
	b.WriteString("mongodb://")
	if c.User != "" {
		if c.Password != "" {
			b.WriteString(url.UserPassword(c.User, c.Password).String())
		} else {
			b.WriteString(url.User(c.User).String())
		}
		b.WriteString("@")
	}
	fmt.Fprintf(&b, "%s:%d", host, port)
	if c.Database != "" {
		b.WriteString("/")
		b.WriteString(c.Database)
	}
	if c.Options != "" {
		// The connection string grammar requires a path segment, even an
		// empty one, before the options.
		if c.Database == "" {
			b.WriteString("/")
		}
		b.WriteString("?")
		b.WriteString(c.Options)
	}
	return b.String()
}

// DatabaseName returns the database to operate on, falling back to
// DefaultDatabase when none is configured.
func (c Config) DatabaseName() string {
	if c.Database != "" {
		return c.Database
	}
	return DefaultDatabase
}
