// Package config defines the application configuration structures.
//
// Separated from cmd to allow other packages (ai, db, dataset, tui) to
// depend on config without importing Cobra.
package config

import "strconv"

// Config holds all application settings.
type Config struct {
	Database DatabaseConfig `json:"database"`
	AI       AIConfig       `json:"ai"`
	Chat     ChatConfig     `json:"chat"`
	Catalog  CatalogConfig  `json:"catalog"`
}

// DatabaseConfig selects and configures the dataset store backend.
type DatabaseConfig struct {
	// Backend is "sqlite" (default, embedded) or "postgres".
	Backend string `json:"backend"`

	// SQLitePath is the database file; empty means in-memory.
	SQLitePath string `json:"sqlite_path,omitempty"`

	Postgres PostgresConfig `json:"postgres,omitempty"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password,omitempty"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`

	SSH SSHConfig `json:"ssh,omitempty"`
}

// SSHConfig holds SSH tunnel settings.
type SSHConfig struct {
	Enabled       bool   `json:"enabled,omitempty"`
	Host          string `json:"host,omitempty"`
	Port          int    `json:"port,omitempty"`
	User          string `json:"user,omitempty"`
	KeyPath       string `json:"key_path,omitempty"`
	KeyPassphrase string `json:"key_passphrase,omitempty"`
}

// ChatConfig bounds the conversational tool loop.
type ChatConfig struct {
	// MaxRows caps how many result rows are fed back to the model per
	// SQL tool call. The limit is communicated to the model in the
	// system prompt and enforced again when serializing.
	MaxRows int `json:"max_rows"`

	// MaxToolDepth bounds consecutive SQL continuations within one turn.
	MaxToolDepth int `json:"max_tool_depth"`

	// ContextWindow is the number of recent model-facing turns sent per
	// request. Older turns stay in the UI history; only the outgoing
	// request is trimmed.
	ContextWindow int `json:"context_window"`
}

// CatalogConfig points at an open-data catalog search API.
type CatalogConfig struct {
	Endpoint string `json:"endpoint"`
}

// DSN builds a pgx-compatible connection string.
// When SSH tunnel is active, the caller should override Host/Port
// with the local tunnel endpoint.
func (c PostgresConfig) DSN() string {
	return "host=" + c.Host +
		" port=" + strconv.Itoa(c.Port) +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Database +
		" sslmode=" + c.SSLMode
}
