// Package cli implements the kennel command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/kennel/internal/logging"
	"github.com/mesh-intelligence/kennel/internal/mockdata"
	"github.com/mesh-intelligence/kennel/internal/paths"
	"github.com/mesh-intelligence/kennel/internal/storage"
	"github.com/mesh-intelligence/kennel/pkg/types"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir   string
	dataDir     string
	backend     string
	latency     time.Duration
	idStrategy  string
	metricsFile string
	jsonMode    bool
	verbose     bool
}

// app carries the state one invocation builds up: resolved settings, the
// logger, and the storage and service opened on first use.
type app struct {
	flags    rootFlags
	settings settings
	log      *zap.Logger
	registry *prometheus.Registry
	storage  types.Storage
	svc      *mockdata.Service
}

// NewRootCmd creates the top-level "kennel" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	return newApp().rootCmd()
}

func newApp() *app {
	return &app{log: zap.NewNop()}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "kennel",
		Short: "Mock data service for the pet community site",
		Long: "Kennel stores the pet community site's entities (users, products, venues,\n" +
			"posts, inquiries) behind a simulated-latency CRUD service.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}

	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usage(err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configDir, "config-dir", "", "configuration directory (default: platform config dir)")
	pf.StringVar(&a.flags.dataDir, "data-dir", "", "data directory (default: $(CWD)/.kennel-db)")
	pf.StringVar(&a.flags.backend, "backend", "", "storage backend: memory, file, sqlite, postgres, s3")
	pf.DurationVar(&a.flags.latency, "latency", mockdata.DefaultLatency, "simulated latency per operation")
	pf.StringVar(&a.flags.idStrategy, "id-strategy", "", "ids for created records: timestamp or uuid")
	pf.StringVar(&a.flags.metricsFile, "metrics-file", "", "write operation metrics in text format to this file")
	pf.BoolVar(&a.flags.jsonMode, "json", false, "output in JSON format")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "debug logging to stderr")

	root.AddCommand(
		a.versionCmd(),
		a.initCmd(),
		a.entitiesCmd(),
		a.listCmd(),
		a.getCmd(),
		a.createCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.seedCmd(),
		a.maintenanceCmd(),
		a.adminCmd(),
	)
	return root
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	log, err := logging.New(a.flags.verbose)
	if err != nil {
		return err
	}
	a.log = log

	configDir, err := paths.ResolveConfigDir(a.flags.configDir)
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	s, err := readSettings(v, configDir)
	if err != nil {
		return err
	}

	pf := cmd.Flags()
	if pf.Changed("backend") {
		s.Storage.Backend = a.flags.backend
	}
	if pf.Changed("latency") {
		s.Latency = a.flags.latency
	}
	if pf.Changed("id-strategy") {
		s.IDStrategy = a.flags.idStrategy
	}
	s.Storage.DataDir, err = paths.ResolveDataDir(a.flags.dataDir, s.Storage.DataDir)
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	a.settings = s
	a.log.Debug("configuration loaded",
		zap.String("config_dir", configDir),
		zap.String("backend", s.Storage.Backend),
		zap.String("data_dir", s.Storage.DataDir),
		zap.Duration("latency", s.Latency),
		zap.String("id_strategy", s.IDStrategy))
	return nil
}

// service opens the configured storage and wraps it in a Service. Later
// calls return the same Service.
func (a *app) service(ctx context.Context) (*mockdata.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	ids, err := mockdata.NewIDGenerator(a.settings.IDStrategy, a.log)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errUsage, err)
	}
	st, err := storage.Open(ctx, a.settings.Storage)
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", a.settings.Storage.Backend, err)
	}
	a.storage = st
	opts := []mockdata.Option{
		mockdata.WithLatency(a.settings.Latency),
		mockdata.WithLogger(a.log),
		mockdata.WithIDGenerator(ids),
	}
	if a.flags.metricsFile != "" {
		a.registry = prometheus.NewRegistry()
		m, err := mockdata.NewMetrics(a.registry)
		if err != nil {
			return nil, err
		}
		opts = append(opts, mockdata.WithMetrics(m))
	}
	a.svc = mockdata.New(st, opts...)
	return a.svc, nil
}

// close flushes metrics, releases storage and syncs the logger. Safe to
// call more than once.
func (a *app) close() error {
	var errs []error
	if a.registry != nil {
		if err := prometheus.WriteToTextfile(a.flags.metricsFile, a.registry); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
		a.registry = nil
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close storage: %w", err))
		}
		a.storage = nil
		a.svc = nil
	}
	// Sync on stderr returns EINVAL on some platforms; nothing to report.
	_ = a.log.Sync()
	return errors.Join(errs...)
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

// run executes one invocation and returns its exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := newApp()
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	// PersistentPostRunE is skipped when a command fails.
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, "kennel:", err)
		return exitCode(err)
	}
	return exitSuccess
}

// errUsage marks bad arguments and flags.
var errUsage = errors.New("usage")

// exitCode maps an error to the process exit code. Missing records, bad
// input and bad usage are the caller's fault; everything else is a system
// error.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitSuccess
	case errors.Is(err, types.ErrNotFound),
		errors.Is(err, types.ErrInvalidData),
		errors.Is(err, types.ErrInvalidID),
		errors.Is(err, types.ErrInvalidEntity),
		errors.Is(err, types.ErrBackendUnknown),
		errors.Is(err, errUsage):
		return exitUserError
	default:
		return exitSysError
	}
}
