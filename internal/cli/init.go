package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/paths"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize kennel configuration and storage",
		Long: "Create the configuration directory with a default config.yaml, then open\n" +
			"the configured backend once so its data directory or database exists.",
		Args: noArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, _ []string) error {
	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	s := a.settings
	cfg := configFile{
		Backend:    s.Storage.Backend,
		DataDir:    s.Storage.DataDir,
		Latency:    s.Latency.String(),
		IDStrategy: s.IDStrategy,
		DSN:        s.Storage.DSN,
		S3:         s.Storage.S3,
	}
	// Credentials stay in the environment.
	cfg.S3.AccessKeyID, cfg.S3.SecretAccessKey = "", ""
	configPath := filepath.Join(configDir, configFileExt)
	wrote, err := writeConfigIfMissing(configPath, cfg)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if wrote {
		a.log.Info("wrote default config", zap.String("path", configPath))
	}

	if _, err := a.service(cmd.Context()); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Kennel initialized (%s backend, config %s)\n", s.Storage.Backend, configPath)
	return nil
}
