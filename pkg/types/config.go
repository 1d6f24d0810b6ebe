package types

import "errors"

// Config holds backend selection and parameters for opening a Storage.
type Config struct {
	Backend string `json:"backend" yaml:"backend"`
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// DSN is the connection string for the postgres backend.
	DSN string `json:"dsn,omitempty" yaml:"dsn,omitempty"`

	S3 S3Config `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// S3Config selects the bucket and endpoint used by the s3 backend.
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket"`
	Region    string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint  string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Prefix    string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
	PathStyle bool   `json:"path_style,omitempty" yaml:"path_style,omitempty"`

	// Static credentials; empty falls back to the default AWS chain.
	AccessKeyID     string `json:"access_key_id,omitempty" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty" yaml:"secret_access_key,omitempty"`
}

// Supported backend names.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendS3       = "s3"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrDSNEmpty       = errors.New("postgres backend requires a dsn")
	ErrBucketEmpty    = errors.New("s3 backend requires a bucket")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendMemory:   true,
	BackendFile:     true,
	BackendSQLite:   true,
	BackendPostgres: true,
	BackendS3:       true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.Backend {
	case BackendPostgres:
		if c.DSN == "" {
			return ErrDSNEmpty
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return ErrBucketEmpty
		}
	}
	return nil
}
