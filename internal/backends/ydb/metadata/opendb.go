package metadata

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/ydb-platform/ydb-go-sdk/v3"
	"github.com/ydb-platform/ydb-go-sdk/v3/trace"
	ydbZerolog "github.com/ydb-platform/ydb-go-sdk-zerolog"
	yc "github.com/ydb-platform/ydb-go-yc"

	"github.com/ydb-platform/docbridge/internal/util/lazyerrors"
)

// Authentication methods.
const (
	// StaticCredentials authenticates with user name and password.
	StaticCredentials = "static"

	// ServiceAccountFile authenticates with Yandex Cloud service account key file.
	ServiceAccountFile = "sa_file"

	// MetadataCredentials authenticates with Yandex Cloud instance metadata service.
	MetadataCredentials = "metadata"
)

// AuthParams contains YDB connection parameters.
//
//nolint:vet // for readability
type AuthParams struct {
	// Method is one of the authentication methods; empty means anonymous.
	Method   string
	User     string
	Password string
	KeyFile  string

	// CAFile is an optional PEM file with additional root certificates.
	CAFile string

	// Trace enables driver tracing to stderr.
	Trace bool

	_ struct{} // prevent unkeyed literals
}

// connectTimeout limits the initial driver discovery.
const connectTimeout = 60 * time.Second

// driverOptions returns YDB driver options for the given parameters.
func driverOptions(auth *AuthParams, l *slog.Logger) ([]ydb.Option, error) {
	if auth == nil {
		auth = new(AuthParams)
	}

	opts := []ydb.Option{
		ydb.WithApplicationName("docbridge"),
		ydb.WithDialTimeout(connectTimeout),
	}

	switch auth.Method {
	case "":
		opts = append(opts, ydb.WithAnonymousCredentials())
	case StaticCredentials:
		opts = append(opts, ydb.WithStaticCredentials(auth.User, auth.Password))
	case ServiceAccountFile:
		if auth.KeyFile == "" {
			return nil, lazyerrors.New("service account key file is required")
		}

		opts = append(opts, yc.WithInternalCA(), yc.WithServiceAccountKeyFileCredentials(auth.KeyFile))
	case MetadataCredentials:
		opts = append(opts, yc.WithInternalCA(), yc.WithMetadataCredentials())
	default:
		return nil, lazyerrors.Errorf("unknown authentication method %q", auth.Method)
	}

	if auth.CAFile != "" {
		opts = append(opts, ydb.WithCertificatesFromFile(auth.CAFile))
	}

	if auth.Trace {
		log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		opts = append(opts, ydbZerolog.WithTraces(&log, trace.DetailsAll))

		l.Debug("YDB driver tracing enabled")
	}

	return opts, nil
}

// openDB opens YDB driver and waits for the discovery to complete.
func openDB(ctx context.Context, dsn string, auth *AuthParams, l *slog.Logger) (*ydb.Driver, error) {
	opts, err := driverOptions(auth, l)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	driver, err := ydb.Open(ctx, dsn, opts...)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	l.Info("Connected to YDB", slog.String("database", driver.Name()))

	return driver, nil
}
