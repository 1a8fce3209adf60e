package main

import (
	"flag"
	"net/http"
	"os"
	"strings"
	"time"

	"gamingterminal-server/internal/config"
	"gamingterminal-server/internal/jwt"
	"gamingterminal-server/internal/mux"
	"gamingterminal-server/pkg/db"
	"gamingterminal-server/pkg/floor"
	"gamingterminal-server/pkg/ledger"

	"github.com/gorilla/handlers"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
)

const readTimeout = time.Second * 5
const writeTimeout = time.Second * 10

// Version is the server version
var Version = "v0.0.0-dev"

var addr = flag.String("addr", ":5000", "the listen address")
var ledgerDriver = flag.String("ledger", "postgres", "where cards and bets are kept (postgres, memory)")

func main() {
	flag.Parse()
	setupLogger()

	// fail fast
	jwt.LoadKeys()

	cfg := config.Instance()
	f := floor.NewFloor(newLedger(), floor.Options{
		MaxBetsPerRound: cfg.Floor.MaxBetsPerRound,
		LedgerTimeout:   cfg.Floor.LedgerTimeout,
	})

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With", "Authorization"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		ExposedHeaders: []string{"GamingTerminal-Operator"},
	})

	srv := &http.Server{
		Addr:         *addr,
		Handler:      loggingHandler(c.Handler(mux.NewMux(Version, f))),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	logrus.WithFields(logrus.Fields{
		"addr":    srv.Addr,
		"ledger":  *ledgerDriver,
		"version": Version,
	}).Info("listening")
	logrus.Fatal(srv.ListenAndServe())
}

func newLedger() floor.Ledger {
	switch *ledgerDriver {
	case "postgres":
		// run the db migrations
		db.Migrate()
		return ledger.NewPostgres()
	case "memory":
		logrus.Warn("using the in-memory ledger, balances are lost on restart")
		return ledger.NewMemory()
	default:
		logrus.Fatalf("unknown ledger: %s", *ledgerDriver)
		return nil
	}
}

func loggingHandler(next http.Handler) http.Handler {
	if config.Instance().Log.DisableAccessLogs {
		return next
	}

	return handlers.CombinedLoggingHandler(os.Stdout, next)
}

func setupLogger() {
	if lvl := config.Instance().Log.Level; lvl != "" {
		level, err := logrus.ParseLevel(lvl)
		if err != nil {
			logrus.WithError(err).Fatal("could not parse level")
		}

		logrus.SetLevel(level)
	}

	if strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
}
