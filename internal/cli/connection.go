package cli

import (
	"errors"
	"fmt"

	"github.com/asc1/imagemosaic-load/internal/config"
	"github.com/asc1/imagemosaic-load/internal/db"
	"github.com/asc1/imagemosaic-load/pkg/mosaic"
)

// loadFileConfig reads --config, or imagemosaic.yaml in the working directory
// when the flag is not given. Only the default file may be absent.
func loadFileConfig() (*config.FileConfig, error) {
	path := loadFlags.configPath
	explicit := path != ""
	if !explicit {
		path = config.FileName
	}

	fc, err := config.Load(path)
	switch {
	case err == nil:
		return fc, nil
	case errors.Is(err, config.ErrConfigNotFound) && !explicit:
		return &config.FileConfig{}, nil
	case errors.Is(err, config.ErrConfigNotFound):
		return nil, fmt.Errorf("%w: config file %s does not exist", mosaic.ErrInvalidConfig, path)
	default:
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
}

// resolveConnection combines the connection flags with the environment and
// the config file.
func resolveConnection(fc *config.FileConfig) (*mosaic.ConnectionConfig, error) {
	granular := &db.GranularConnFlags{
		Host:     loadFlags.host,
		Port:     loadFlags.port,
		Username: loadFlags.username,
		Password: loadFlags.password,
		Database: loadFlags.database,
		SSLMode:  loadFlags.sslMode,
	}
	return db.ResolveConnectionParams(loadFlags.connection, granular, db.LoadFromEnvironment(), fc)
}
