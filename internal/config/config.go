package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/joacominatel/dblab/internal/database"
)

const defaultPort = 1433

// Config represents the application configuration.
type Config struct {
	Connections []Connection        `mapstructure:"connections" yaml:"connections"`
	Preferences Preferences         `mapstructure:"preferences" yaml:"preferences"`
	SeedPacks   []database.SeedPack `mapstructure:"seed_packs" yaml:"seed_packs,omitempty"`
}

// Connection represents a saved SQL Server connection profile.
type Connection struct {
	Name                   string `mapstructure:"name" yaml:"name"`
	Host                   string `mapstructure:"host" yaml:"host"`
	Port                   int    `mapstructure:"port" yaml:"port,omitempty"`
	Instance               string `mapstructure:"instance" yaml:"instance,omitempty"`
	Database               string `mapstructure:"database" yaml:"database"`
	Username               string `mapstructure:"username" yaml:"username,omitempty"`
	Password               string `mapstructure:"password" yaml:"password,omitempty"`
	Encrypt                string `mapstructure:"encrypt" yaml:"encrypt,omitempty"`
	TrustServerCertificate bool   `mapstructure:"trust_server_certificate" yaml:"trust_server_certificate,omitempty"`
	AppName                string `mapstructure:"app_name" yaml:"app_name,omitempty"`
}

// Preferences holds user preferences.
type Preferences struct {
	Theme             string        `mapstructure:"theme" yaml:"theme"`
	DefaultConnection string        `mapstructure:"default_connection" yaml:"default_connection"`
	DefaultSchema     string        `mapstructure:"default_schema" yaml:"default_schema"`
	QueryTimeout      time.Duration `mapstructure:"query_timeout" yaml:"query_timeout"`
	MaxDisplayRows    int           `mapstructure:"max_display_rows" yaml:"max_display_rows"`
}

// DSN builds a go-mssqldb URL connection string from the profile.
func (c Connection) DSN() string {
	u := &url.URL{Scheme: "sqlserver", Host: c.Host}
	if c.Port > 0 {
		u.Host += ":" + strconv.Itoa(c.Port)
	}
	if c.Instance != "" {
		u.Path = "/" + c.Instance
	}
	if c.Username != "" {
		if c.Password != "" {
			u.User = url.UserPassword(c.Username, c.Password)
		} else {
			u.User = url.User(c.Username)
		}
	}

	q := url.Values{}
	if c.Database != "" {
		q.Set("database", c.Database)
	}
	if c.Encrypt != "" {
		q.Set("encrypt", c.Encrypt)
	}
	if c.TrustServerCertificate {
		q.Set("TrustServerCertificate", "true")
	}
	if c.AppName != "" {
		q.Set("app name", c.AppName)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// DisplayString returns a human-readable summary of the connection.
func (c Connection) DisplayString() string {
	s := c.Host
	if c.Instance != "" {
		s += `\` + c.Instance
	}
	if c.Port > 0 {
		s += ":" + strconv.Itoa(c.Port)
	}
	s += "/" + c.Database
	if c.Username != "" {
		s = c.Username + "@" + s
	}
	return s
}

// ParseDSN parses a sqlserver:// connection string into a Connection.
func ParseDSN(dsn string) (Connection, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return Connection{}, fmt.Errorf("invalid DSN: %w", err)
	}
	if u.Scheme != "sqlserver" {
		return Connection{}, fmt.Errorf("invalid DSN: scheme %q, want sqlserver", u.Scheme)
	}

	q := u.Query()
	conn := Connection{
		Host:     u.Hostname(),
		Instance: strings.TrimPrefix(u.Path, "/"),
		Database: q.Get("database"),
		Encrypt:  q.Get("encrypt"),
		AppName:  q.Get("app name"),
	}
	conn.TrustServerCertificate, _ = strconv.ParseBool(q.Get("TrustServerCertificate"))

	if u.User != nil {
		conn.Username = u.User.Username()
		if p, ok := u.User.Password(); ok {
			conn.Password = p
		}
	}

	if portStr := u.Port(); portStr != "" {
		conn.Port, err = strconv.Atoi(portStr)
		if err != nil {
			return Connection{}, fmt.Errorf("invalid DSN: port %q", portStr)
		}
	}
	if conn.Port == 0 && conn.Instance == "" {
		conn.Port = defaultPort
	}

	conn.Name = fmt.Sprintf("sqlserver-%s-%d-%s", conn.Host, conn.Port, conn.Database)
	return conn, nil
}

// HasConnection checks if a connection with the given name already exists.
func (cfg *Config) HasConnection(name string) bool {
	return cfg.FindConnection(name) != nil
}

// FindConnection returns the named connection profile, or nil.
func (cfg *Config) FindConnection(name string) *Connection {
	for i := range cfg.Connections {
		if cfg.Connections[i].Name == name {
			return &cfg.Connections[i]
		}
	}
	return nil
}

// AddConnection appends a connection if it doesn't already exist.
func (cfg *Config) AddConnection(conn Connection) {
	if !cfg.HasConnection(conn.Name) {
		cfg.Connections = append(cfg.Connections, conn)
	}
}

// FindSeedPack returns the seed pack with the given name, ignoring case.
func (cfg *Config) FindSeedPack(name string) (database.SeedPack, bool) {
	for _, p := range cfg.SeedPacks {
		if strings.EqualFold(p.Name, name) {
			return p, true
		}
	}
	return database.SeedPack{}, false
}
