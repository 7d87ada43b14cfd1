package core

// TargetConfig holds database target configuration.
type TargetConfig struct {
	Type string `koanf:"type"` // sqlserver

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Instance string `koanf:"instance"`
	Database string `koanf:"database"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	// Schema is used when a table name is given without one.
	Schema string `koanf:"schema"`

	// Additional driver-specific options (encrypt, TrustServerCertificate, app name, ...)
	Options map[string]string `koanf:"options"`
}

// IsConfigured reports whether enough of the target is set to attempt a connection.
func (t *TargetConfig) IsConfigured() bool {
	return t != nil && t.Host != ""
}

// AdapterConfig converts the target into the adapter connection config.
func (t *TargetConfig) AdapterConfig() AdapterConfig {
	if t == nil {
		return AdapterConfig{}
	}
	opts := make(map[string]string, len(t.Options))
	for k, v := range t.Options {
		opts[k] = v
	}
	return AdapterConfig{
		Type:     t.Type,
		Host:     t.Host,
		Port:     t.Port,
		Instance: t.Instance,
		Database: t.Database,
		Username: t.User,
		Password: t.Password,
		Schema:   t.Schema,
		Options:  opts,
	}
}
