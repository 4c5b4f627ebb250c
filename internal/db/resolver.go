package db

import (
	"fmt"
	"os"
	"strconv"

	"github.com/asc1/imagemosaic-load/internal/config"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// AppName is reported to the server as application_name.
const AppName = "imagemosaic-load"

// GranularConnFlags holds the individual connection flags. Zero values mean
// "not given".
type GranularConnFlags struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
	SSLMode  string
}

// IsEmpty reports whether no server or credential flag was given. Database
// and SSL mode are excluded because they may refine a connection string.
func (g *GranularConnFlags) IsEmpty() bool {
	return g.Host == "" && g.Port == 0 && g.Username == "" && g.Password == ""
}

// EnvVars holds the environment variables the resolver consults.
// See: https://www.postgresql.org/docs/current/libpq-envars.html
type EnvVars struct {
	PGHOST                        string
	PGPORT                        string
	PGUSER                        string
	PGPASSWORD                    string
	PGDATABASE                    string
	PGSSLMODE                     string
	IMAGEMOSAIC_CONNECTION_STRING string
	DATABASE_URL                  string
}

func LoadFromEnvironment() *EnvVars {
	return &EnvVars{
		PGHOST:                        os.Getenv("PGHOST"),
		PGPORT:                        os.Getenv("PGPORT"),
		PGUSER:                        os.Getenv("PGUSER"),
		PGPASSWORD:                    os.Getenv("PGPASSWORD"),
		PGDATABASE:                    os.Getenv("PGDATABASE"),
		PGSSLMODE:                     os.Getenv("PGSSLMODE"),
		IMAGEMOSAIC_CONNECTION_STRING: os.Getenv("IMAGEMOSAIC_CONNECTION_STRING"),
		DATABASE_URL:                  os.Getenv("DATABASE_URL"),
	}
}

// ResolveConnectionParams resolves the connection to use for a load.
//
// A connection string is taken from --connection, then
// $IMAGEMOSAIC_CONNECTION_STRING, then $DATABASE_URL, then connection.uri in
// the config file. Giving --connection together with --host, --port, --user
// or --password is an error; a connection string from any other source is
// ignored when those flags are present.
//
// Every setting the connection string leaves out, and every setting when
// there is none, is resolved as flag > PG* environment variable > config
// file > default. Host and database have no default and must come from
// somewhere.
func ResolveConnectionParams(
	connStringFlag string,
	flags *GranularConnFlags,
	env *EnvVars,
	file *config.FileConfig,
) (*mosaic.ConnectionConfig, error) {
	if flags == nil {
		flags = &GranularConnFlags{}
	}
	if env == nil {
		env = &EnvVars{}
	}
	var fc config.ConnectionConfig
	if file != nil {
		fc = file.Connection
	}

	if connStringFlag != "" && !flags.IsEmpty() {
		return nil, fmt.Errorf("%w: cannot specify both --connection and --host/--port/--user/--password\n"+
			"Choose one approach:\n"+
			"  1. Connection string: --connection \"postgresql://geoserver@localhost:5432/gis\"\n"+
			"  2. Individual flags: --host localhost --port 5432 --user geoserver --db gis",
			mosaic.ErrInvalidConfig)
	}

	cfg := &mosaic.ConnectionConfig{AdditionalParams: make(map[string]string)}
	if connStr := pickConnectionString(connStringFlag, flags, env, fc); connStr != "" {
		parsed, err := ParseConnectionString(connStr)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid connection string: %w", mosaic.ErrInvalidConfig, err)
		}
		cfg = parsed
	}

	cfg.Host = first(cfg.Host, flags.Host, env.PGHOST, fc.Host)
	cfg.Username = first(cfg.Username, flags.Username, env.PGUSER, fc.Username, mosaic.DefaultUser)
	cfg.Password = first(cfg.Password, flags.Password, env.PGPASSWORD, fc.Password)
	cfg.Database = first(flags.Database, cfg.Database, env.PGDATABASE, fc.Database)
	cfg.SSLMode = first(flags.SSLMode, cfg.SSLMode, env.PGSSLMODE, fc.SSLMode, mosaic.DefaultSSLMode)
	cfg.AppName = first(cfg.AppName, AppName)

	if cfg.Port == 0 {
		port, err := resolvePort(flags.Port, env.PGPORT, fc.Port)
		if err != nil {
			return nil, err
		}
		cfg.Port = port
	}

	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: database host is required (--host, $PGHOST or connection.host)", mosaic.ErrInvalidConfig)
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("%w: database name is required (--db, $PGDATABASE or connection.database)", mosaic.ErrInvalidConfig)
	}
	return cfg, nil
}

func pickConnectionString(flag string, flags *GranularConnFlags, env *EnvVars, fc config.ConnectionConfig) string {
	if flag != "" {
		return flag
	}
	if !flags.IsEmpty() {
		return ""
	}
	return first(env.IMAGEMOSAIC_CONNECTION_STRING, env.DATABASE_URL, fc.URI)
}

func resolvePort(flag int, env string, file int) (int, error) {
	switch {
	case flag != 0:
		return flag, nil
	case env != "":
		port, err := strconv.Atoi(env)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid $PGPORT value '%s': must be an integer", mosaic.ErrInvalidConfig, env)
		}
		return port, nil
	case file != 0:
		return file, nil
	default:
		return mosaic.DefaultPort, nil
	}
}

func first(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
