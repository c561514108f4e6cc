package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// app carries the persistent flags shared by every subcommand.
type app struct {
	configFile string
	output     string
	logLevel   string
	logJSON    bool
	apiKey     string
	email      string
	baseURL    string
	storeFlag  string
	storeDSN   string

	lookupEnv func(string) (string, bool)
	stderr    io.Writer
}

func newApp() *app {
	return &app{lookupEnv: os.LookupEnv, stderr: os.Stderr}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "leadtable",
		Short: "LeadTable integration host",
		Long: `leadtable drives the LeadTable API the way a workflow host would:
manage webhook triggers, receive and enrich webhook deliveries, run
actions and list dropdown options.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "YAML config file")
	flags.StringVar(&a.output, "output", "json", "output format: json, yaml")
	flags.StringVar(&a.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	flags.BoolVar(&a.logJSON, "log-json", false, "emit JSON logs")
	flags.StringVar(&a.apiKey, "api-key", "", "LeadTable API key (overrides config)")
	flags.StringVar(&a.email, "email", "", "LeadTable account email (overrides config)")
	flags.StringVar(&a.baseURL, "base-url", "", "LeadTable API base URL (overrides config)")
	flags.StringVar(&a.storeFlag, "store", "", "store driver: memory, sqlite3, postgres, redis (overrides config)")
	flags.StringVar(&a.storeDSN, "store-dsn", "", "store DSN or redis URL (overrides config)")

	root.AddCommand(
		newServeCommand(a),
		newTriggerCommand(a),
		newInvokeCommand(a),
		newOptionsCommand(a),
		newPollCommand(a),
		newAuthCommand(a),
	)
	return root
}

func (a *app) loadConfig() (fileConfig, error) {
	cfg, err := loadFileConfig(a.configFile, a.lookupEnv)
	if err != nil {
		return fileConfig{}, err
	}
	override := func(flag string, target *string) {
		if value := strings.TrimSpace(flag); value != "" {
			*target = value
		}
	}
	override(a.apiKey, &cfg.Credentials.APIKey)
	override(a.email, &cfg.Credentials.Email)
	override(a.baseURL, &cfg.Service.BaseURL)
	override(a.storeFlag, &cfg.Store.Driver)
	override(a.storeDSN, &cfg.Store.DSN)
	return cfg, nil
}

func (a *app) newLogger() glog.Logger {
	return newLogger(a.stderr, a.logLevel, a.logJSON)
}

// withRuntime builds the runtime for one command invocation and closes it
// afterwards.
func (a *app) withRuntime(ctx context.Context, fn func(*runtime) error) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	rt, err := buildRuntime(ctx, cfg, a.newLogger())
	if err != nil {
		return err
	}
	defer rt.Close()
	return fn(rt)
}

func (a *app) write(w io.Writer, value any) error {
	switch strings.ToLower(strings.TrimSpace(a.output)) {
	case "yaml", "yml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(value); err != nil {
			return err
		}
		return encoder.Close()
	case "", "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(value)
	default:
		return fmt.Errorf("unsupported output format %q", a.output)
	}
}
