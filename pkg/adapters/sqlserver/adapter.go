package sqlserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"strconv"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"github.com/leapstack-labs/tdiff/pkg/adapter"
	"github.com/leapstack-labs/tdiff/pkg/catalog"
	"github.com/leapstack-labs/tdiff/pkg/core"
	"github.com/leapstack-labs/tdiff/pkg/dialect"
)

// DefaultPort is the SQL Server TCP port used when neither a port nor a
// named instance is configured.
const DefaultPort = 1433

// Adapter implements adapter.Adapter for SQL Server.
type Adapter struct {
	adapter.BaseSQLAdapter
	catalog *catalog.SysCatalog
}

// New creates a new SQL Server adapter instance.
// If logger is nil, a discard logger is used.
func New(logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	a := &Adapter{
		BaseSQLAdapter: adapter.BaseSQLAdapter{Logger: logger},
	}
	a.catalog = catalog.NewSysCatalog(&a.BaseSQLAdapter, logger)
	return a
}

// Dialect returns the T-SQL dialect.
func (a *Adapter) Dialect() *dialect.Dialect {
	return dialect.TSQL
}

// Metadata returns the sys.* catalog reader sharing this connection.
func (a *Adapter) Metadata() core.MetadataProvider {
	return a.catalog
}

// Connect establishes a connection to SQL Server.
func (a *Adapter) Connect(ctx context.Context, cfg adapter.Config) error {
	dsn := BuildDSN(cfg)
	parsed, err := msdsn.Parse(dsn)
	if err != nil {
		return fmt.Errorf("invalid sqlserver connection settings: %w", err)
	}

	a.Logger.Debug("connecting to sqlserver",
		slog.String("host", parsed.Host),
		slog.String("instance", parsed.Instance),
		slog.String("database", parsed.Database))

	if err := a.Open(ctx, "sqlserver", dsn); err != nil {
		return fmt.Errorf("failed to connect to sqlserver: %w", describe(err))
	}
	a.Cfg = cfg
	return nil
}

// Query executes a query, adding a hint to well-known server errors.
func (a *Adapter) Query(ctx context.Context, sqlStr string) (*core.Rows, error) {
	rows, err := a.BaseSQLAdapter.Query(ctx, sqlStr)
	if err != nil {
		return nil, describe(err)
	}
	return rows, nil
}

// compatibility_level is that of the current database and can be lower than
// the server's own level.
const capabilitiesSQL = `
SELECT CAST(SERVERPROPERTY('ProductVersion') AS nvarchar(128)) AS product_version,
       CAST(d.compatibility_level AS int) AS compatibility_level
FROM sys.databases AS d
WHERE d.name = DB_NAME()`

// Capabilities implements core.CapabilityReader.
func (a *Adapter) Capabilities(ctx context.Context) (core.Capabilities, error) {
	rows, err := a.QueryContext(ctx, capabilitiesSQL)
	if err != nil {
		return core.Capabilities{}, fmt.Errorf("failed to query server properties: %w", describe(err))
	}
	defer func() { _ = rows.Close() }()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return core.Capabilities{}, fmt.Errorf("error reading server properties: %w", err)
		}
		return core.Capabilities{}, errors.New("server properties returned no rows")
	}

	var caps core.Capabilities
	if err := rows.Scan(&caps.ProductVersion, &caps.CompatibilityLevel); err != nil {
		return core.Capabilities{}, fmt.Errorf("failed to scan server properties: %w", err)
	}
	major, err := MajorVersion(caps.ProductVersion)
	if err != nil {
		return core.Capabilities{}, err
	}
	caps.MajorVersion = major

	a.Logger.Debug("server capabilities",
		slog.String("product_version", caps.ProductVersion),
		slog.Int("compatibility_level", caps.CompatibilityLevel))
	return caps, nil
}

// MajorVersion extracts the major number of a build string like "15.0.4236.7".
func MajorVersion(productVersion string) (int, error) {
	head, _, _ := strings.Cut(strings.TrimSpace(productVersion), ".")
	major, err := strconv.Atoi(head)
	if err != nil {
		return 0, fmt.Errorf("unrecognized product version %q", productVersion)
	}
	return major, nil
}

// BuildDSN constructs a sqlserver:// connection URL.
//
// A named instance without a port is addressed as host/instance and resolved
// by the SQL Browser service. Options become query parameters.
func BuildDSN(cfg adapter.Config) string {
	host := cfg.Host
	if host == "" {
		host = "localhost"
	}

	u := &url.URL{Scheme: "sqlserver"}
	switch {
	case cfg.Port != 0:
		u.Host = net.JoinHostPort(host, strconv.Itoa(cfg.Port))
	case cfg.Instance != "":
		u.Host = host
		u.Path = "/" + cfg.Instance
	default:
		u.Host = net.JoinHostPort(host, strconv.Itoa(DefaultPort))
	}

	if cfg.Username != "" {
		if cfg.Password != "" {
			u.User = url.UserPassword(cfg.Username, cfg.Password)
		} else {
			u.User = url.User(cfg.Username)
		}
	}

	q := url.Values{}
	for k, v := range cfg.Options {
		q.Set(k, v)
	}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// Server error numbers that get a hint.
const (
	errInvalidObject  = 208
	errLoginFailed    = 18456
	errNotTemporal    = 13544
	errCannotOpenDB   = 4060
	errInvalidColumn  = 207
	errPermissionDeny = 229
)

// describe adds a hint to well-known server errors and passes others through.
func describe(err error) error {
	var se mssql.Error
	if !errors.As(err, &se) {
		return err
	}
	var hint string
	switch se.Number {
	case errInvalidObject, errInvalidColumn:
		hint = "the catalog changed since it was read; run tdiff describe to refresh"
	case errNotTemporal:
		hint = "FOR SYSTEM_TIME requires a system-versioned table"
	case errLoginFailed:
		hint = "check target.user and target.password"
	case errCannotOpenDB:
		hint = "check target.database and that the login has access to it"
	case errPermissionDeny:
		hint = "the login needs SELECT on the table and its history table"
	default:
		return err
	}
	return fmt.Errorf("%w\nHint: %s", err, hint)
}

// Ensure Adapter implements adapter.Adapter interface
var _ adapter.Adapter = (*Adapter)(nil)
