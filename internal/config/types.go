// Package config holds SQLWard's connection configuration and its loader.
// Configuration is an explicit struct handed to the engine constructor;
// there are no process-wide mutable defaults.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Config describes the database connection and engine behavior.
type Config struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Database string `koanf:"database"`

	Charset   string `koanf:"charset"`
	Collation string `koanf:"collation"`

	// Pool limits for the underlying database/sql pool. The engine itself
	// pins a single session; the pool only backs reconnects.
	MaxOpenConns int           `koanf:"max_open_conns"`
	MaxIdleConns int           `koanf:"max_idle_conns"`
	ConnMaxLife  time.Duration `koanf:"conn_max_life"`
	ConnMaxIdle  time.Duration `koanf:"conn_max_idle"`

	Verbose bool `koanf:"verbose"`
}

// Default configuration values.
const (
	DefaultHost      = "localhost"
	DefaultPort      = 3306
	DefaultCharset   = "utf8mb4"
	DefaultCollation = "utf8mb4_unicode_ci"
)

// ApplyDefaults fills unset fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Charset == "" {
		c.Charset = DefaultCharset
	}
	if c.Collation == "" {
		c.Collation = DefaultCollation
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLife == 0 {
		c.ConnMaxLife = 5 * time.Minute
	}
	if c.ConnMaxIdle == 0 {
		c.ConnMaxIdle = 5 * time.Minute
	}
}

// Validate checks that the configuration can produce a usable connection.
func (c *Config) Validate() error {
	if c.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.User == "" {
		return fmt.Errorf("database user is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	return nil
}

// DSN builds the go-sql-driver connection string.
func (c *Config) DSN() string {
	var b strings.Builder
	if c.User != "" {
		b.WriteString(c.User)
		if c.Password != "" {
			b.WriteString(":")
			b.WriteString(c.Password)
		}
		b.WriteString("@")
	}
	fmt.Fprintf(&b, "tcp(%s:%d)/%s", c.Host, c.Port, c.Database)

	params := url.Values{}
	params.Set("parseTime", "true")
	if c.Charset != "" {
		params.Set("charset", c.Charset)
	}
	if c.Collation != "" {
		params.Set("collation", c.Collation)
	}
	b.WriteString("?")
	b.WriteString(params.Encode())
	return b.String()
}
