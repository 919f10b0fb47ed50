package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/authgate/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-D string   database driver, "pgx" or "sqlite"
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-t int      access token validity, minutes
//	-A string   password algorithm, "bcrypt" or "argon2id"
//	-b int      bcrypt cost
//	-q int      query timeout, seconds
//	-l string   log level
//
// Only the flags above are kept from args, so -c/-config and flags meant for
// other components do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-D", "-d", "-s", "-t", "-A", "-b", "-q", "-l"})

	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddress, "a", config.HTTPAddress, "address and port to run server")
	fs.StringVar(&config.DatabaseDriver, "D", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	accessTokenValidity := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.PasswordAlgorithm, "A", config.PasswordAlgorithm, "password hashing algorithm")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	queryTimeout := fs.Int("q", int(config.QueryTimeout.Seconds()), "database query timeout (in seconds)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// only touch durations that were given, so sub-unit values survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessTokenValidity) * time.Minute
		case "q":
			config.QueryTimeout = time.Duration(*queryTimeout) * time.Second
		}
	})

	return nil
}
