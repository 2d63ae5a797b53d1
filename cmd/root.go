// File: cmd/root.go
package cmd

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/xkilldash9x/uipilot/internal/config"
	"github.com/xkilldash9x/uipilot/internal/observability"
	"github.com/xkilldash9x/uipilot/internal/service"
)

const envPrefix = "UIPILOT"

// flagKeys maps command-line flags to the config keys they override.
var flagKeys = map[string]string{
	"log-level":  "logger.level",
	"max-step":   "session.max_step",
	"safe-guard": "session.safe_guard",
	"log-root":   "session.log_root",
	"headless":   "browser.headless",
	"remote-url": "browser.remote_url",
	"start-url":  "browser.start_url",
}

// rootOptions carries the loaded configuration from the persistent pre-run
// to the subcommands.
type rootOptions struct {
	cfgFile string
	envFile string
	v       *viper.Viper
	cfg     *config.Config
}

// NewRootCommand builds a fresh command tree. Each call has its own viper
// instance, so flags never leak between executions.
func NewRootCommand() *cobra.Command {
	return newRootCommand(service.NewComponentFactory())
}

func newRootCommand(factory service.ComponentFactory) *cobra.Command {
	opts := &rootOptions{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:          "uipilot",
		Short:        "uipilot carries out natural-language requests by operating application windows.",
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				// Keep errors visible even when the config could not produce a logger.
				observability.InitializeLogger(config.LoggerConfig{Level: "info", Format: "console", ServiceName: "uipilot"})
				return err
			}
			observability.InitializeLogger(opts.cfg.Logger())
			observability.GetLogger().Debug("Starting uipilot", zap.String("version", Version))
			return nil
		},
	}
	rootCmd.SetVersionTemplate(`{{printf "%s version %s\n" .Name .Version}}`)

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.cfgFile, "config", "c", "", "config file (default is ./config.yaml or ~/.uipilot/config.yaml)")
	flags.StringVar(&opts.envFile, "env-file", ".env", "dotenv file loaded before the configuration")
	flags.String("log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCmd(opts, factory), newReceiversCmd(opts), newVersionCmd())
	return rootCmd
}

// load reads the dotenv file, the config file and the environment, in
// increasing order of precedence below the flags of cmd.
func (o *rootOptions) load(cmd *cobra.Command) error {
	if err := config.LoadDotEnv(o.envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", o.envFile, err)
	}
	config.SetDefaults(o.v)
	for name, key := range flagKeys {
		if flag := cmd.Flags().Lookup(name); flag != nil {
			if err := o.v.BindPFlag(key, flag); err != nil {
				return fmt.Errorf("failed to bind --%s: %w", name, err)
			}
		}
	}
	if err := initializeConfig(o.v, o.cfgFile); err != nil {
		return err
	}
	cfg, err := config.NewConfigFromViper(o.v)
	if err != nil {
		return err
	}
	o.cfg = cfg
	return nil
}

// initializeConfig reads in the config file and ENV variables if set.
func initializeConfig(v *viper.Viper, cfgFile string) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := homedir.Dir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".uipilot"))
		}
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; proceed with defaults and env vars.
	}
	return nil
}

// Execute runs a fresh root command. context.Canceled is returned without
// being logged so a Ctrl+C exits quietly.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, context.Canceled) {
			observability.GetLogger().Error("Command execution failed", zap.Error(err))
		}
		return err
	}
	return nil
}
