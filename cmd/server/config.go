// cmd/server/config.go
package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	bind        string
	port        int
	postgresDSN string
	redisAddr   string
	redisDB     int

	questionDuration time.Duration
	revealDuration   time.Duration
	leaseTTL         time.Duration
	leaseHeartbeat   time.Duration

	verbose bool
}

func (c *Config) validate() error {
	if c.port < 1 || c.port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.port)
	}
	if c.postgresDSN == "" {
		return fmt.Errorf("missing postgres DSN")
	}
	if c.leaseHeartbeat >= c.leaseTTL {
		return fmt.Errorf("lease heartbeat (%s) must be shorter than lease ttl (%s)", c.leaseHeartbeat, c.leaseTTL)
	}
	return nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("ARENA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "arena",
		Short:         "Real-time multiplayer round engine for quiz game lobbies.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.validate(); err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.bind, "bind", "b", "0.0.0.0", "address to bind to (env: ARENA_BIND)")
	fs.IntVarP(&cfg.port, "port", "p", 8080, "port to listen on (env: ARENA_PORT)")
	fs.StringVar(&cfg.postgresDSN, "postgres-dsn", "", "postgres connection string (env: ARENA_POSTGRES_DSN)")
	fs.StringVar(&cfg.redisAddr, "redis-addr", "localhost:6379", "redis address for the change bus (env: ARENA_REDIS_ADDR)")
	fs.IntVar(&cfg.redisDB, "redis-db", 0, "redis database index (env: ARENA_REDIS_DB)")
	fs.DurationVar(&cfg.questionDuration, "question-duration", 15*time.Second, "length of the answering window (env: ARENA_QUESTION_DURATION)")
	fs.DurationVar(&cfg.revealDuration, "reveal-duration", 3*time.Second, "length of the reveal window (env: ARENA_REVEAL_DURATION)")
	fs.DurationVar(&cfg.leaseTTL, "lease-ttl", 15*time.Second, "host lease lifetime (env: ARENA_LEASE_TTL)")
	fs.DurationVar(&cfg.leaseHeartbeat, "lease-heartbeat", 5*time.Second, "host lease renewal interval (env: ARENA_LEASE_HEARTBEAT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: ARENA_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("arena v{{.Version}}\n")

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}
