package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/authgate/internal/flagx"
	"github.com/dmitrijs2005/authgate/internal/timex"
)

// JsonConfig is the on-disk shape of a config file. Durations accept both
// strings such as "1h" and integer nanoseconds. Absent keys keep the
// value already in Config.
type JsonConfig struct {
	HTTPAddress                 string         `json:"http_address"`
	DatabaseDriver              string         `json:"database_driver"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	PasswordAlgorithm           string         `json:"password_algorithm"`
	BcryptCost                  int            `json:"bcrypt_cost"`
	QueryTimeout                timex.Duration `json:"query_timeout"`
	AllowQueryToken             *bool          `json:"allow_query_token"`
	LogLevel                    string         `json:"log_level"`
}

// parseJson loads the file named by -c or -config, if any.
func parseJson(config *Config, args []string) error {
	path := flagx.ConfigFilePath(args)

	// nothing to load
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&config.HTTPAddress, c.HTTPAddress)
	setString(&config.DatabaseDriver, c.DatabaseDriver)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.PasswordAlgorithm, c.PasswordAlgorithm)
	setString(&config.LogLevel, c.LogLevel)

	if c.AccessTokenValidityDuration.Duration != 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	if c.QueryTimeout.Duration != 0 {
		config.QueryTimeout = c.QueryTimeout.Duration
	}
	if c.BcryptCost != 0 {
		config.BcryptCost = c.BcryptCost
	}
	if c.AllowQueryToken != nil {
		config.AllowQueryToken = *c.AllowQueryToken
	}

	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
