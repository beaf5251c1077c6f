package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/bft-labs/svclife/internal/cliconfig"
	"github.com/bft-labs/svclife/pkg/lifecycle"
	"github.com/bft-labs/svclife/pkg/log"
	"github.com/bft-labs/svclife/pkg/reconnect"
	"github.com/bft-labs/svclife/plugins/drainwatcher"
)

const helpDescription = `
Supervise a TCP service through its lifecycle phases.

Highlights:
  - Drives initialize/connect/authenticate and reconnects with backoff.
  - Drain a node by touching the drain file; restore it by removing the file.
  - Configure via file, env (SVCLIFE_*), or flags.
`

var exampleUsage = strings.TrimSpace(`
  svclife --endpoint db.internal:5432
  svclife --endpoint api.internal:9000 --auth-token <token> --drain-file /var/run/svclife.drain
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

// tcpService owns the demo's transport: a single TCP connection plus the
// line-based auth handshake over it.
type tcpService struct {
	cfg cliconfig.Config

	mu   sync.Mutex
	conn net.Conn
}

func (t *tcpService) connect(ctx context.Context, disconnect func()) error {
	d := net.Dialer{Timeout: t.cfg.DialTimeout}
	conn, err := d.DialContext(ctx, "tcp", t.cfg.Endpoint)
	if err != nil {
		return err
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()
	return nil
}

func (t *tcpService) authenticate(ctx context.Context, deauthenticate func()) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return errors.New("not connected")
	}

	if _, err := fmt.Fprintf(conn, "AUTH %s\n", t.cfg.AuthToken); err != nil {
		return err
	}
	line, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return err
	}
	if strings.TrimSpace(line) != "OK" {
		return fmt.Errorf("auth rejected: %s", strings.TrimSpace(line))
	}
	return nil
}

// close tears down the connection. Called whenever the service drops to
// Offline so the socket never outlives the state machine's view of it.
func (t *tcpService) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}

func buildService(cfg cliconfig.Config, logger log.Logger) (*lifecycle.Service, error) {
	transport := &tcpService{cfg: cfg}

	opts := []lifecycle.Option{
		lifecycle.WithLogger(logger),
		lifecycle.WithStateListener(func(prev, cur lifecycle.State) {
			if cur == lifecycle.StateOffline && prev != lifecycle.StateInitializing {
				transport.close()
			}
		}),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, lifecycle.WithConnect(transport.connect))
	}
	if cfg.AuthToken != "" {
		opts = append(opts, lifecycle.WithAuth(transport.authenticate))
	}
	return lifecycle.New(opts...)
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string

	zl := cliconfig.Logger()

	root := &cobra.Command{
		Use:     "svclife",
		Short:   "Supervise a TCP service through its lifecycle phases",
		Long:    strings.TrimSpace(helpDescription),
		Example: exampleUsage,
		Version: fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default $HOME/.svclife/config.toml), then apply
			// env and flag overrides
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}

			// Environment variables (SVCLIFE_*) override file config but are
			// overridden by flags (checked via changed map)
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}

			if err := cfg.Validate(); err != nil {
				return err
			}

			zl = zl.Level(cliconfig.ParseLevel(cfg.LogLevel))

			// Log configuration (masking the token)
			logCfg := cfg
			if len(logCfg.AuthToken) > 0 {
				logCfg.AuthToken = "*****"
			}
			zl.Info().Interface("config", logCfg).Msg("configuration")

			logger := log.NewZerologAdapterWithLogger(zl)
			svc, err := buildService(cfg, logger)
			if err != nil {
				return fmt.Errorf("create service: %w", err)
			}
			svc.OnConnected(func() {
				zl.Info().Str("endpoint", cfg.Endpoint).Msg("connected")
			})
			svc.OnAuthenticated(func() {
				zl.Info().Msg("authenticated")
			})

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			go func() {
				<-sigCh
				zl.Info().Msg("received signal, stopping...")
				cancel()
			}()

			rc := reconnect.New(svc, reconnect.Config{
				Base:        cfg.ReconnectBase,
				Max:         cfg.ReconnectMax,
				MaxAttempts: cfg.ReconnectMaxAttempts,
			}, logger)

			if cfg.Once {
				if err := rc.Run(ctx); err != nil {
					return fmt.Errorf("bring service up: %w", err)
				}
				zl.Info().Str("state", svc.State().String()).Msg("service ready")
				return nil
			}

			if cfg.DrainFile != "" {
				dw := drainwatcher.New(drainwatcher.DefaultConfig(cfg.DrainFile))
				if err := dw.Attach(ctx, svc, logger); err != nil {
					return fmt.Errorf("attach drain watcher: %w", err)
				}
				defer dw.Close()
			}

			if err := rc.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	// Flags
	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.svclife/config.toml)")
	root.Flags().StringVar(&cfg.Endpoint, "endpoint", cfg.Endpoint, "host:port to connect to (omit for a local service)")
	root.Flags().StringVar(&cfg.AuthToken, "auth-token", cfg.AuthToken, "token for the auth handshake (makes the service private)")
	root.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "TCP dial timeout")
	root.Flags().StringVar(&cfg.DrainFile, "drain-file", cfg.DrainFile, "sentinel file that drains the service while present")
	root.Flags().DurationVar(&cfg.ReconnectBase, "reconnect-base", cfg.ReconnectBase, "first reconnect delay")
	root.Flags().DurationVar(&cfg.ReconnectMax, "reconnect-max", cfg.ReconnectMax, "maximum reconnect delay")
	root.Flags().IntVar(&cfg.ReconnectMaxAttempts, "reconnect-max-attempts", cfg.ReconnectMaxAttempts, "give up after this many failed attempts (0 = never)")
	root.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	root.Flags().BoolVar(&cfg.Once, "once", cfg.Once, "bring the service up once and exit")

	if err := root.Execute(); err != nil {
		zl.Error().Err(err).Msg("svclife")
		os.Exit(1)
	}
}
