// Package main contains docbridge command-line tool.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.uber.org/automaxprocs/maxprocs"
	_ "golang.org/x/crypto/x509roots/fallback" // register root TLS certificates for production Docker image

	"github.com/ydb-platform/docbridge/internal/backends/ydb/metadata"
	"github.com/ydb-platform/docbridge/internal/query"
	"github.com/ydb-platform/docbridge/internal/registry"
	"github.com/ydb-platform/docbridge/internal/util/debug"
	"github.com/ydb-platform/docbridge/internal/util/logging"
	"github.com/ydb-platform/docbridge/internal/util/observability"
)

// The cli struct represents all command-line commands, fields and flags.
// It's used for parsing the user input.
//
//nolint:vet // for readability
var cli struct {
	LogLevel     string `default:"info"  help:"Log level: 'debug', 'info', 'warn', 'error'." env:"DOCBRIDGE_LOG_LEVEL"`
	DebugAddr    string `default:""     help:"Listen address for HTTP handlers for metrics and runtime statistics." env:"DOCBRIDGE_DEBUG_ADDR"`
	OTLPEndpoint string `default:""     help:"OTLP/HTTP traces endpoint URL, e.g. 'http://127.0.0.1:4318/v1/traces'." env:"DOCBRIDGE_OTLP_ENDPOINT" name:"otlp-endpoint"`

	YDB struct {
		URL                 string `default:""    help:"YDB connection string."                   env:"DOCBRIDGE_YDB_URL"`
		User                string `default:""    help:"YDB user name for static credentials."    env:"DOCBRIDGE_YDB_USER"`
		Password            string `default:""    help:"YDB password for static credentials."     env:"DOCBRIDGE_YDB_PASSWORD"`
		SAKeyFile           string `default:""    help:"Yandex Cloud service account key file."   env:"DOCBRIDGE_YDB_SA_KEY_FILE"  name:"sa-key-file"`
		MetadataCredentials bool   `default:"false" help:"Use Yandex Cloud metadata credentials." env:"DOCBRIDGE_YDB_METADATA_CREDENTIALS"`
		CAFile              string `default:""    help:"Additional root certificates PEM file."   env:"DOCBRIDGE_YDB_CA_FILE"  name:"ca-file"`
		Trace               bool   `default:"false" help:"Log YDB driver events to stderr."       env:"DOCBRIDGE_YDB_TRACE"`
	} `embed:"" prefix:"ydb-"`

	Explain explainCmd `cmd:"" help:"Print the query plan and the compiled YQL for a filter."`
	Find    findCmd    `cmd:"" help:"Find documents in a collection."`
}

// Additional variables for the kong parsers.
var kongOptions = []kong.Option{
	kong.Vars{
		"backends": strings.Join(registry.Backends(), ","),
	},
	kong.UsageOnError(),
}

func main() {
	kongCtx := kong.Parse(&cli, kongOptions...)

	level, err := logging.ParseLevel(cli.LogLevel)
	kongCtx.FatalIfErrorf(err)

	l := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)

	if _, err = maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
		l.Debug(fmt.Sprintf(format, a...))
	})); err != nil {
		l.Warn("Failed to set GOMAXPROCS", logging.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err = run(ctx, kongCtx.Command(), l); err != nil {
		l.Error("Command failed", logging.Error(err))
		stop()
		os.Exit(1)
	}
}

// run sets up observability and runs the selected command.
func run(ctx context.Context, cmd string, l *slog.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(query.DefaultMetrics)

	if cli.DebugAddr != "" {
		h, err := debug.Handler(reg, l)
		if err != nil {
			return err
		}

		go func() {
			if err := debug.RunHandler(ctx, cli.DebugAddr, h, logging.WithName(l, "debug")); err != nil {
				l.Error("Debug server failed", logging.Error(err))
			}
		}()
	}

	if cli.OTLPEndpoint != "" {
		tp, err := observability.NewTracerProvider(ctx, cli.OTLPEndpoint, "docbridge")
		if err != nil {
			return err
		}

		otel.SetTracerProvider(tp)

		defer func() {
			if err := tp.Shutdown(context.WithoutCancel(ctx)); err != nil {
				l.Warn("Failed to flush traces", logging.Error(err))
			}
		}()
	}

	switch cmd {
	case "explain":
		return cli.Explain.run(os.Stdout)

	case "find":
		opts := &registry.NewBackendOpts{
			Logger:  l,
			YDBURL:  cli.YDB.URL,
			YDBAuth: ydbAuth(),
		}

		return cli.Find.run(ctx, os.Stdout, opts, reg, l)

	default:
		panic(fmt.Sprintf("unknown command %q", cmd))
	}
}

// ydbAuth returns YDB authentication parameters from flags.
func ydbAuth() *metadata.AuthParams {
	auth := &metadata.AuthParams{
		User:     cli.YDB.User,
		Password: cli.YDB.Password,
		KeyFile:  cli.YDB.SAKeyFile,
		CAFile:   cli.YDB.CAFile,
		Trace:    cli.YDB.Trace,
	}

	switch {
	case cli.YDB.SAKeyFile != "":
		auth.Method = metadata.ServiceAccountFile
	case cli.YDB.MetadataCredentials:
		auth.Method = metadata.MetadataCredentials
	case cli.YDB.User != "":
		auth.Method = metadata.StaticCredentials
	}

	return auth
}
