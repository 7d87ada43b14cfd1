package core

import (
	"context"
	"database/sql"
	"strconv"
)

// Adapter is a read-only connection to a host engine. Reports never modify
// data, so there is no statement execution beyond Query.
type Adapter interface {
	CapabilityReader

	Connect(ctx context.Context, cfg AdapterConfig) error
	Close() error

	// Query runs a generated report and returns its rows.
	Query(ctx context.Context, sql string) (*Rows, error)

	// Metadata returns the catalog provider backed by this connection.
	Metadata() MetadataProvider
}

// CapabilityReader reports the capabilities of a host engine.
type CapabilityReader interface {
	Capabilities(ctx context.Context) (Capabilities, error)
}

// AdapterConfig holds the connection settings for one target.
type AdapterConfig struct {
	Type     string
	Host     string
	Port     int    // zero when Instance is used
	Instance string // named instance, resolved through the browser service
	Database string
	Username string
	Password string
	Schema   string
	Options  map[string]string // extra driver parameters
}

// Endpoint returns host\instance or host:port for log lines. It never
// includes credentials.
func (c AdapterConfig) Endpoint() string {
	switch {
	case c.Host == "":
		return ""
	case c.Instance != "":
		return c.Host + `\` + c.Instance
	case c.Port > 0:
		return c.Host + ":" + strconv.Itoa(c.Port)
	default:
		return c.Host
	}
}

// Rows wraps sql.Rows so callers outside the adapters need no driver import.
type Rows struct {
	*sql.Rows
}
