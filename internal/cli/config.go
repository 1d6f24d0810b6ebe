package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	envPrefix = "KENNEL"

	cfgKeyBackend    = "backend"
	cfgKeyDataDir    = "data_dir"
	cfgKeyDSN        = "dsn"
	cfgKeyLatency    = "latency"
	cfgKeyIDStrategy = "id_strategy"
	cfgKeyS3Bucket   = "s3.bucket"

	defaultBackend = types.BackendSQLite
)

// envKeys are the settings that may come from KENNEL_* variables.
// data_dir is resolved by internal/paths.
var envKeys = []string{
	cfgKeyBackend,
	cfgKeyDSN,
	cfgKeyLatency,
	cfgKeyIDStrategy,
	cfgKeyS3Bucket,
	"s3.region",
	"s3.endpoint",
	"s3.prefix",
	"s3.path_style",
	"s3.access_key_id",
	"s3.secret_access_key",
}

// settings is the resolved configuration for one invocation.
type settings struct {
	Storage    types.Config
	Latency    time.Duration
	IDStrategy string
}

// configFile holds the structure written to config.yaml.
type configFile struct {
	Backend    string         `yaml:"backend"`
	DataDir    string         `yaml:"data_dir,omitempty"`
	Latency    string         `yaml:"latency"`
	IDStrategy string         `yaml:"id_strategy"`
	DSN        string         `yaml:"dsn,omitempty"`
	S3         types.S3Config `yaml:"s3,omitempty"`
}

// loadConfig reads config.yaml from configDir. A missing file is not an
// error; defaults and KENNEL_* variables still apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyLatency, mockdata.DefaultLatency.String())
	v.SetDefault(cfgKeyIDStrategy, mockdata.IDStrategyTimestamp)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	v.SetEnvPrefix(envPrefix)
	for _, key := range envKeys {
		// s3.bucket -> KENNEL_S3_BUCKET
		env := envPrefix + "_" + envName(key)
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// readSettings extracts settings from v. A relative data_dir in the file is
// taken relative to the config directory.
func readSettings(v *viper.Viper, configDir string) (settings, error) {
	latency, err := time.ParseDuration(v.GetString(cfgKeyLatency))
	if err != nil {
		return settings{}, fmt.Errorf("%w: latency %q: %v", errUsage, v.GetString(cfgKeyLatency), err)
	}
	s := settings{
		Storage: types.Config{
			Backend: v.GetString(cfgKeyBackend),
			DataDir: v.GetString(cfgKeyDataDir),
			DSN:     v.GetString(cfgKeyDSN),
			S3: types.S3Config{
				Bucket:          v.GetString(cfgKeyS3Bucket),
				Region:          v.GetString("s3.region"),
				Endpoint:        v.GetString("s3.endpoint"),
				Prefix:          v.GetString("s3.prefix"),
				PathStyle:       v.GetBool("s3.path_style"),
				AccessKeyID:     v.GetString("s3.access_key_id"),
				SecretAccessKey: v.GetString("s3.secret_access_key"),
			},
		},
		Latency:    latency,
		IDStrategy: v.GetString(cfgKeyIDStrategy),
	}
	if s.Storage.DataDir != "" && !filepath.IsAbs(s.Storage.DataDir) {
		s.Storage.DataDir = filepath.Join(configDir, s.Storage.DataDir)
	}
	return s, nil
}

func envName(key string) string {
	return strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// writeConfigIfMissing writes a default config.yaml at path unless one is
// already there. It reports whether a file was written.
func writeConfigIfMissing(path string, cfg configFile) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return false, err
	}
	return true, nil
}
