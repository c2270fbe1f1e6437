// Package web exposes the persisted trading history over HTTP: JSON
// reports plus SSE streams of balance snapshots and trades per symbol.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sort"
	"time"

	"github.com/beborico1/crypto-trading-bot/internal/domain"
	"github.com/beborico1/crypto-trading-bot/internal/services/report"
	"github.com/beborico1/crypto-trading-bot/internal/storage/ledger"
)

const snapshotPollInterval = 2 * time.Second

// SymbolStore is the read surface of one symbol's persistent ledger.
type SymbolStore interface {
	SnapshotsAfter(index uint64) ([]domain.BalanceSnapshotRecord, error)
	TradesAfter(index uint64) ([]domain.TradeRecordEntry, error)
	Export() (ledger.Export, error)
}

// Server exposes HTTP endpoints serving the HTML UI, JSON reports and SSE
// streams. Stores is keyed by pair string ("BTC_USDT").
type Server struct {
	Addr   string
	Stores map[string]SymbolStore
}

// NewServer creates a new web server over the given per-symbol stores.
func NewServer(addr string, stores map[string]SymbolStore) *Server {
	return &Server{Addr: addr, Stores: stores}
}

// Start runs the HTTP server (blocking) and shuts it down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/report", s.handleReport)
	mux.HandleFunc("/export", s.handleExport)
	mux.HandleFunc("/balance/stream", s.handleBalanceStream)
	mux.HandleFunc("/trades/stream", s.handleTradeStream)

	server := &http.Server{
		Addr:              s.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, indexHTML)
}

// handleReport returns one performance report per symbol, sorted by pair.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var reports []report.Report
	for _, pair := range s.pairs() {
		exp, err := s.Stores[pair].Export()
		if err != nil {
			http.Error(w, "failed to export history", http.StatusInternalServerError)
			log.Printf("report export for %s: %v", pair, err)
			return
		}
		rep, err := report.Build(exp)
		if err != nil {
			// no history yet for this symbol
			continue
		}
		reports = append(reports, rep)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reports); err != nil {
		log.Printf("report encode: %v", err)
	}
}

// handleExport returns the full persisted history keyed by pair.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	out := make(map[string]ledger.Export, len(s.Stores))
	for _, pair := range s.pairs() {
		exp, err := s.Stores[pair].Export()
		if err != nil {
			http.Error(w, "failed to export history", http.StatusInternalServerError)
			log.Printf("export for %s: %v", pair, err)
			return
		}
		out[pair] = exp
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(out); err != nil {
		log.Printf("export encode: %v", err)
	}
}

func (s *Server) handleBalanceStream(w http.ResponseWriter, r *http.Request) {
	store, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	stream(w, r, "balance", func(lastIndex uint64) ([]event, error) {
		records, err := store.SnapshotsAfter(lastIndex)
		if err != nil {
			return nil, err
		}
		events := make([]event, len(records))
		for i, rec := range records {
			events[i] = event{index: rec.Index, payload: rec.Snapshot}
		}
		return events, nil
	})
}

func (s *Server) handleTradeStream(w http.ResponseWriter, r *http.Request) {
	store, ok := s.storeFor(w, r)
	if !ok {
		return
	}
	stream(w, r, "trade", func(lastIndex uint64) ([]event, error) {
		entries, err := store.TradesAfter(lastIndex)
		if err != nil {
			return nil, err
		}
		events := make([]event, len(entries))
		for i, e := range entries {
			events[i] = event{index: e.Index, payload: e.Record}
		}
		return events, nil
	})
}

func (s *Server) storeFor(w http.ResponseWriter, r *http.Request) (SymbolStore, bool) {
	pair := r.URL.Query().Get("pair")
	if pair == "" {
		// single-symbol deployments may omit the parameter
		if pairs := s.pairs(); len(pairs) == 1 {
			return s.Stores[pairs[0]], true
		}
		http.Error(w, "pair query parameter is required", http.StatusBadRequest)
		return nil, false
	}
	store, ok := s.Stores[pair]
	if !ok {
		http.Error(w, "unknown pair", http.StatusNotFound)
		return nil, false
	}
	return store, true
}

func (s *Server) pairs() []string {
	pairs := make([]string, 0, len(s.Stores))
	for p := range s.Stores {
		pairs = append(pairs, p)
	}
	sort.Strings(pairs)
	return pairs
}

type event struct {
	index   uint64
	payload any
}

// stream serves an SSE stream, replaying existing records first and then
// polling for new ones until the client disconnects.
func stream(w http.ResponseWriter, r *http.Request, name string, fetch func(lastIndex uint64) ([]event, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// send a comment heartbeat every 30s so proxies keep the connection
	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	pollTicker := time.NewTicker(snapshotPollInterval)
	defer pollTicker.Stop()

	lastIndex := uint64(0)
	send := func() error {
		events, err := fetch(lastIndex)
		if err != nil {
			return err
		}
		for _, e := range events {
			payload, err := json.Marshal(e.payload)
			if err != nil {
				return err
			}
			fmt.Fprintf(w, "event: %s\n", name)
			fmt.Fprintf(w, "data: %s\n\n", payload)
			flusher.Flush()
			lastIndex = e.index
		}
		return nil
	}

	if err := send(); err != nil {
		http.Error(w, "failed to load history", http.StatusInternalServerError)
		log.Printf("%s stream initial load: %v", name, err)
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprintf(w, ": ping\n\n")
			flusher.Flush()
		case <-pollTicker.C:
			if err := send(); err != nil {
				log.Printf("%s stream poll err: %v", name, err)
			}
		}
	}
}
