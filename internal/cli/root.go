// Package cli implements the nrfsctl commands.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ystepanoff/nrfs/driver/natslink"
	"github.com/ystepanoff/nrfs/internal/config"
	"github.com/ystepanoff/nrfs/internal/output"
	"github.com/ystepanoff/nrfs/transport"
)

// version is set at build time via -ldflags "-X github.com/ystepanoff/nrfs/internal/cli.version=x.y.z"
var version = "0.1.0"

// Dialer opens the link to the other side of the protocol. The returned
// function releases it.
type Dialer func(cfg *config.Config, role natslink.Role, log logr.Logger) (transport.Link, func(), error)

func dialNATS(cfg *config.Config, role natslink.Role, log logr.Logger) (transport.Link, func(), error) {
	l, err := natslink.Dial(cfg.NATS.URL, cfg.NATS.SubjectPrefix, cfg.Domain, role, log.WithName("nats"))
	if err != nil {
		return nil, nil, err
	}
	return l, func() { _ = l.Close() }, nil
}

// state is shared by all commands of one invocation and filled in by the
// root PersistentPreRunE.
type state struct {
	cfgFile string
	v       *viper.Viper
	dial    Dialer

	cfg       *config.Config
	log       logr.Logger
	formatter output.Formatter
}

type Option func(*state)

// WithDialer replaces the NATS link, mainly for tests.
func WithDialer(d Dialer) Option {
	return func(s *state) { s.dial = d }
}

// NewRootCmd builds a fresh command tree.
func NewRootCmd(opts ...Option) *cobra.Command {
	st := &state{v: config.New(), dial: dialNATS, log: logr.Discard()}
	for _, opt := range opts {
		opt(st)
	}

	root := &cobra.Command{
		Use:   "nrfsctl",
		Short: "Talk to the System Controller over the nrfs protocol",
		Long: `nrfsctl issues nrfs service requests, runs a simulated System Controller
and demonstrates the DVFS and clock flows on an in-memory loopback.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return st.load(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&st.cfgFile, "config", "", "config file (default is ./nrfs.yaml or /etc/nrfs/nrfs.yaml)")
	// unset flags fall back to the config file, then to the defaults in config.New
	flags.StringP("output", "o", "", "output format: table, json, yaml (default \"table\")")
	flags.String("nats-url", "", "NATS server URL")
	flags.String("domain", "", "subject domain shared by both sides")
	flags.IntP("verbosity", "v", 0, "log verbosity")
	flags.Bool("dev", true, "human-readable development logging")

	bind := map[string]string{
		config.KeyOutput:         "output",
		config.KeyNATSURL:        "nats-url",
		config.KeyDomain:         "domain",
		config.KeyLogLevel:       "verbosity",
		config.KeyLogDevelopment: "dev",
	}
	for key, flag := range bind {
		_ = st.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		newVersionCmd(),
		newDemoCmd(st),
		newRequestCmd(st),
		newSysctrlCmd(st),
	)
	return root
}

// Execute runs nrfsctl and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func (st *state) load(cmd *cobra.Command) error {
	if err := config.Read(st.v, st.cfgFile); err != nil {
		return err
	}
	cfg, err := config.Decode(st.v)
	if err != nil {
		return err
	}
	st.cfg = cfg

	st.log = newLogger(cfg, zapcore.AddSync(cmd.ErrOrStderr())).WithValues("session", uuid.NewString()[:8])
	st.formatter = output.New(cfg.Output)
	return nil
}

func newLogger(cfg *config.Config, w zapcore.WriteSyncer) logr.Logger {
	encCfg := zap.NewProductionEncoderConfig()
	enc := zapcore.NewJSONEncoder(encCfg)
	if cfg.LogDevelopment {
		encCfg = zap.NewDevelopmentEncoderConfig()
		encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(time.TimeOnly)
		enc = zapcore.NewConsoleEncoder(encCfg)
	}
	// logr verbosity V(n) maps to zap level -n
	level := zap.NewAtomicLevelAt(zapcore.Level(-cfg.LogLevel))
	z := zap.New(zapcore.NewCore(enc, w, level))
	return zapr.NewLogger(z)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show the nrfsctl version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "nrfsctl version %s\n", version)
			return nil
		},
	}
}
