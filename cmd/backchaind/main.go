/*
Backchaind starts the backchain HTTP service and begins listening for
new connections.

Usage:

	backchaind [flags]
	backchaind [flags] -l [[ADDRESS]:PORT]

Once started, the server listens for HTTP requests and responds to them
using a small REST protocol for creating resolver sessions and running
queries against them. By default it listens on localhost:8080; this can
be changed with the --listen/-l flag or the BACKCHAIN_LISTEN_ADDRESS
environment variable.

If a JWT token secret is not given, one is generated randomly at
startup. As a consequence, in this mode of operation all tokens become
invalid as soon as the server shuts down. This is suitable for testing
but must be given via either a CLI flag, an environment variable, or the
settings file when running in production.

The flags are:

	-v, --version
		Give the current version of the server and then exit.

	-l, --listen LISTEN_ADDRESS
		Listen on the given address. Must be in BIND_ADDRESS:PORT or
		:PORT format. If not given, defaults to the value of
		environment variable BACKCHAIN_LISTEN_ADDRESS, then the
		settings file, then localhost:8080.

	-s, --secret TOKEN_SECRET
		Use the provided secret for signing JWT tokens. If there are
		fewer than 32 bytes in the secret, it is repeated until it is.
		The maximum size is 64 bytes. If not given, defaults to the
		value of environment variable BACKCHAIN_TOKEN_SECRET, then the
		settings file. If no secret is specified anywhere, a random
		secret is generated.

	--db DRIVER[:PARAMS]
		Use the given DB connection string. DRIVER must be one of
		"inmem" or "sqlite". sqlite requires the path to a data
		directory, e.g. sqlite:path/to/data. If not given, defaults to
		the value of environment variable BACKCHAIN_DATABASE, then the
		settings file, then an in-memory database.

	--config PATH
		Path to an optional TOML settings file providing defaults for
		any of the above not given on the command line or in the
		environment. Defaults to "backchain.toml".
*/
package main

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/dekarrin/backchain/internal/config"
	"github.com/dekarrin/backchain/internal/version"
	"github.com/dekarrin/backchain/server"
	"github.com/dekarrin/backchain/server/dao"
	"github.com/dekarrin/backchain/server/serr"
	"github.com/spf13/pflag"
)

const (
	EnvListen = "BACKCHAIN_LISTEN_ADDRESS"
	EnvSecret = "BACKCHAIN_TOKEN_SECRET"
	EnvDB     = "BACKCHAIN_DATABASE"
)

var (
	flagVersion = pflag.BoolP("version", "v", false, "Give the current version of the server and then exit.")
	flagListen  = pflag.StringP("listen", "l", "", "Listen on the given address.")
	flagSecret  = pflag.StringP("secret", "s", "", "Use the given secret for token generation.")
	flagDB      = pflag.String("db", "", "Use the given DB connection string.")
	flagConfig  = pflag.String("config", "backchain.toml", "Path to an optional settings file")
)

func main() {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.ServerCurrent)
		return
	}

	if len(pflag.Args()) > 0 {
		fmt.Fprintf(os.Stderr, "Too many arguments\nDo -h for help.\n")
		os.Exit(1)
	}

	fileCfg, err := config.Load(*flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reading config: %s\n", err.Error())
		os.Exit(1)
	}

	listenAddr := fileCfg.Server.Listen
	if env := os.Getenv(EnvListen); env != "" {
		listenAddr = env
	}
	if pflag.Lookup("listen").Changed {
		listenAddr = *flagListen
	}
	if listenAddr == "" {
		listenAddr = "localhost:8080"
	}

	dbConnStr := fileCfg.Server.DB
	if env := os.Getenv(EnvDB); env != "" {
		dbConnStr = env
	}
	if pflag.Lookup("db").Changed {
		dbConnStr = *flagDB
	}

	var dbCfg server.Database
	if dbConnStr == "" {
		dbCfg = server.Database{Type: server.DatabaseInMemory}
	} else {
		dbCfg, err = server.ParseDBConnString(dbConnStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s\nDo -h for help.\n", err.Error())
			os.Exit(1)
		}
		if dbCfg.Type == server.DatabaseSQLite {
			if err := os.MkdirAll(dbCfg.DataDir, 0770); err != nil {
				fmt.Fprintf(os.Stderr, "could not build data directory: %s\n", err.Error())
				os.Exit(1)
			}
		}
	}

	secretStr := fileCfg.Server.TokenSecret
	if env := os.Getenv(EnvSecret); env != "" {
		secretStr = env
	}
	if pflag.Lookup("secret").Changed {
		secretStr = *flagSecret
	}

	var tokSecret []byte
	if secretStr != "" {
		tokSecret = []byte(secretStr)

		for len(tokSecret) < server.MinSecretSize {
			doubled := make([]byte, len(tokSecret)*2)
			copy(doubled, tokSecret)
			copy(doubled[len(tokSecret):], tokSecret)
			tokSecret = doubled
		}

		if len(tokSecret) > server.MaxSecretSize {
			fmt.Fprintf(os.Stderr, "token secret is %d bytes, but it must be <= %d bytes\nDo -h for help.\n", len(tokSecret), server.MaxSecretSize)
			os.Exit(1)
		}
	} else {
		tokSecret = make([]byte, server.MaxSecretSize)
		if _, err := rand.Read(tokSecret); err != nil {
			fmt.Fprintf(os.Stderr, "could not generate token secret: %s\n", err.Error())
			os.Exit(1)
		}
		log.Printf("WARN  using generated token secret; all tokens issued will become invalid at shutdown")
	}

	cfg := server.Config{
		TokenSecret: tokSecret,
		DB:          dbCfg,
	}

	api, err := server.New(cfg)
	if err != nil {
		log.Fatalf("FATAL could not start server: %s", err.Error())
	}
	log.Printf("DEBUG server initialized")

	// create the initial admin user so there is someone to log in as.
	_, err = api.CreateUser(context.Background(), "admin", "password", "", dao.Admin)
	if err != nil && !errors.Is(err, serr.ErrAlreadyExists) {
		log.Fatalf("FATAL could not create initial admin user: %v", err)
	}
	if !errors.Is(err, serr.ErrAlreadyExists) {
		log.Printf("INFO  added initial admin user with password 'password'")
	}

	log.Printf("INFO  starting backchaind %s on %s...", version.ServerCurrent, listenAddr)
	if err := http.ListenAndServe(listenAddr, api.Router()); err != nil {
		log.Fatalf("FATAL server exited: %s", err.Error())
	}
}
