package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/taskkeeper/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":3000")
//	-g string   gRPC bind address (e.g., ":50051")
//	-d string   PostgreSQL DSN, or "memory"
//	-s string   token HMAC secret key
//	-t int      token validity, minutes (0 = until revoked)
//	-m int      max active sessions per user (0 = unlimited)
//	-b int      bcrypt cost
//	-r float    auth endpoints rate limit, requests per second
//	-u int      auth endpoints rate limit burst
//	-l string   log level
//
// Arguments are filtered with flagx.FilterArgs first, so -c/-config and
// flags owned by other components do not collide.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-g", "-d", "-s", "-t", "-m", "-b", "-r", "-u", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to serve HTTP on")
	fs.StringVar(&config.EndpointAddrGRPC, "g", config.EndpointAddrGRPC, "address and port to serve gRPC on")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN or \"memory\"")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	tokenValidity := fs.Int("t", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes, 0 = until revoked)")

	fs.IntVar(&config.MaxSessionsPerUser, "m", config.MaxSessionsPerUser, "max active sessions per user (0 = unlimited)")
	fs.IntVar(&config.BcryptCost, "b", config.BcryptCost, "bcrypt cost")
	fs.Float64Var(&config.RateLimitRPS, "r", config.RateLimitRPS, "auth rate limit, requests per second")
	fs.IntVar(&config.RateLimitBurst, "u", config.RateLimitBurst, "auth rate limit burst")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	// only an explicit -t replaces a finer-grained value from JSON or env
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			config.TokenValidityDuration = time.Duration(*tokenValidity) * time.Minute
		}
	})
}
