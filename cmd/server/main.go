package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	persistlog "tradewinds.gg/internal/persistence/log"
	"tradewinds.gg/internal/persistence/tradedb"
	"tradewinds.gg/internal/trade"
	"tradewinds.gg/internal/transport/ws"
	"tradewinds.gg/internal/tuning"
)

func main() {
	var (
		addr       = flag.String("addr", "", "ws listen address (overrides tuning)")
		tuningPath = flag.String("tuning", "./configs/tuning.yaml", "path to tuning.yaml")
		dataDir    = flag.String("data", "", "runtime data directory (overrides tuning)")
		schemaPath = flag.String("schemas", "./schemas/trade_cmd.schema.json", "trade command schema path")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[trade] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*tuningPath)
	if err != nil {
		logger.Printf("tuning: %v (using defaults)", err)
		tune = tuning.Default()
	}
	if strings.TrimSpace(*addr) != "" {
		tune.ListenAddr = *addr
	}
	if strings.TrimSpace(*dataDir) != "" {
		tune.DataDir = *dataDir
	}
	_ = os.MkdirAll(tune.DataDir, 0o755)

	store, err := tradedb.Open(filepath.Join(tune.DataDir, "trades.db"))
	if err != nil {
		logger.Fatalf("open trade db: %v", err)
	}
	defer store.Close()

	journal := persistlog.NewTradeJournal(tune.DataDir)
	defer journal.Close()

	broker := trade.NewBroker(
		trade.Limits{
			MaxOfferItems: tune.Trade.MaxOfferItems,
			MaxCurrency:   tune.Trade.MaxCurrency,
		},
		configTrust{tune.Trust},
		trade.FanoutSink{Primary: store, Mirror: journal},
	)

	server, err := ws.NewServer(broker, tune, logger, *schemaPath, nil)
	if err != nil {
		logger.Fatalf("ws server: %v", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/ws", server.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpSrv := &http.Server{Addr: tune.ListenAddr, Handler: mux}
	go func() {
		logger.Printf("listening on %s", tune.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Printf("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpSrv.Shutdown(ctx)
	store.Flush()
}

// configTrust answers privilege queries from the static tuning tables.
type configTrust struct {
	t tuning.Trust
}

func (c configTrust) Elevated(playerID string) bool {
	return contains(c.t.Elevated, playerID) || contains(c.t.Admins, playerID)
}

func (c configTrust) Admin(playerID string) bool {
	return contains(c.t.Admins, playerID)
}

func (c configTrust) TrustedPartners(a, b string) bool {
	for _, pair := range c.t.TrustedPairs {
		if (pair[0] == a && pair[1] == b) || (pair[0] == b && pair[1] == a) {
			return true
		}
	}
	return false
}

func contains(xs []string, x string) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
