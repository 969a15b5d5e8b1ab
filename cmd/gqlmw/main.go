package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "GQLMW"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(runServe).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type serveFunc func(ctx context.Context, cfg serveConfig) error

// newRootCmd builds the command tree. serve runs the server once flags,
// environment and config file are merged.
func newRootCmd(serve serveFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "gqlmw",
		Short: "Serve a GraphQL schema over HTTP with the GraphiQL explorer",
		Long: `gqlmw mounts a GraphQL schema on an HTTP router. GET and POST requests
are answered with JSON; browsers asking for HTML get the GraphiQL explorer.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "",
		"Configuration file. Takes precedence over default values, but is "+
			"overridden by environment variables and flags.")

	root.AddCommand(newServeCmd(serve), newPrintCmd())
	return root
}

// newConf binds cmd's flags to a fresh viper instance reading GQLMW_*
// variables. Dots and dashes in flag names become underscores.
func newConf(cmd *cobra.Command) (*viper.Viper, error) {
	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(cmd.InheritedFlags()); err != nil {
		return nil, err
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfg := v.GetString("config"); cfg != "" {
		v.SetConfigFile(cfg)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}
	return v, nil
}

type serveConfig struct {
	Schema string
	Data   string

	Addr          string
	Path          string
	Router        string
	GraphiQL      bool
	DefaultQuery  string
	Introspection bool

	Pretty          bool
	Timeout         time.Duration
	MaxBodyBytes    int64
	MetadataHeaders []string

	OtelEndpoint string
	OtelService  string
	LogLevel     string
	LogFormat    string
}

func newServeCmd(serve serveFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a schema file, resolving fields from a static JSON document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := newConf(cmd)
			if err != nil {
				return err
			}
			cfg := serveConfig{
				Schema:          v.GetString("schema"),
				Data:            v.GetString("data"),
				Addr:            v.GetString("addr"),
				Path:            v.GetString("path"),
				Router:          v.GetString("router"),
				GraphiQL:        v.GetBool("graphiql"),
				DefaultQuery:    v.GetString("default-query"),
				Introspection:   v.GetBool("introspection"),
				Pretty:          v.GetBool("pretty"),
				Timeout:         v.GetDuration("timeout"),
				MaxBodyBytes:    v.GetInt64("max-body-bytes"),
				MetadataHeaders: v.GetStringSlice("metadata-header"),
				OtelEndpoint:    v.GetString("otel.endpoint"),
				OtelService:     v.GetString("otel.service"),
				LogLevel:        v.GetString("log-level"),
				LogFormat:       v.GetString("log-format"),
			}
			if cfg.Schema == "" {
				return fmt.Errorf("--schema is required")
			}
			return serve(cmd.Context(), cfg)
		},
	}

	f := cmd.Flags()
	f.String("schema", "", "GraphQL SDL file (required)")
	f.String("data", "", "JSON file used as the root value")
	f.String("addr", ":8080", "HTTP listen address")
	f.String("path", "/graphql", "Route the endpoint is mounted on")
	f.String("router", routerStdlib, "HTTP router: stdlib, echo, gin or gorilla")
	f.Bool("graphiql", true, "Serve the GraphiQL explorer to browsers")
	f.String("default-query", "", "Query shown by the explorer when none is given")
	f.Bool("introspection", true, "Allow __schema and __type queries")
	f.Bool("pretty", false, "Pretty-print JSON responses")
	f.Duration("timeout", 0, "Per-request timeout, 0 for none")
	f.Int64("max-body-bytes", 0, "Maximum POST body size, 0 for unlimited")
	f.StringSlice("metadata-header", nil, "Forward HTTP header to outgoing gRPC metadata. Repeatable")
	f.String("otel.endpoint", "", "OTLP collector endpoint")
	f.String("otel.service", "gqlmw", "OpenTelemetry service name")
	f.String("log-level", "info", "Log level: debug, info, warn or error")
	f.String("log-format", "json", "Log format: json or console")
	return cmd
}
