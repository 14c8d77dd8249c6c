// Command chase renders and runs the Chase environment
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/samuelfneumann/genesisgym/environment/envconfig"
	"github.com/samuelfneumann/genesisgym/internal/log"
)

// LogLevelEnv is the environment variable holding the default log level
const LogLevelEnv = "GENESISGYM_LOG_LEVEL"

type rootFlags struct {
	config   string
	seed     uint64
	logLevel string
	dev      bool
}

func main() {
	for _, envFile := range []string{".env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:          "chase",
		Short:        "Render and run the Chase environment",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			name := flags.logLevel
			if name == "" {
				name = os.Getenv(LogLevelEnv)
			}
			level, err := log.ParseLevel(name)
			if err != nil {
				return err
			}
			log.New(level, flags.dev)
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = log.Provide().Sync()
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.config, "config", "c", "",
		"YAML environment configuration (defaults are used when empty)")
	pf.Uint64Var(&flags.seed, "seed", 1, "random seed")
	pf.StringVar(&flags.logLevel, "log-level", "",
		"log level: debug, info, warn or error (default $"+LogLevelEnv+")")
	pf.BoolVar(&flags.dev, "dev", false, "human readable logs")

	rootCmd.AddCommand(newRenderCmd(flags), newRunCmd(flags))
	return rootCmd
}

// loadConfig returns the environment configuration named by the flags
func (f *rootFlags) loadConfig() (envconfig.Config, error) {
	if f.config == "" {
		return envconfig.Default(), nil
	}
	c, err := envconfig.Load(f.config)
	if err != nil {
		return envconfig.Config{}, fmt.Errorf("could not load "+
			"configuration: %w", err)
	}
	return c, nil
}
