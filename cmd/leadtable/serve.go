package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-leadtable/core"
	"github.com/goliatone/go-leadtable/inbound"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(a *app) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive LeadTable webhook deliveries over HTTP",
		Long: `serve exposes POST /webhook for LeadTable deliveries and POST /poll for
on-demand polls. Each normalized event is written to stdout as one JSON line.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withRuntime(cmd.Context(), func(rt *runtime) error {
				if strings.TrimSpace(addr) != "" {
					rt.config.Server.Addr = addr
				}
				handler, err := newServeMux(rt, newJSONLineSink(cmd.OutOrStdout()))
				if err != nil {
					return err
				}
				return listenAndServe(cmd.Context(), rt, handler)
			})
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func newServeMux(rt *runtime, sink core.EventSink) (http.Handler, error) {
	dispatcher := inbound.NewDispatcher(rt.claims)
	ttl, err := rt.config.dedupeTTL()
	if err != nil {
		return nil, err
	}
	if ttl > 0 {
		dispatcher.KeyTTL = ttl
	}

	normalizeOpts := core.NormalizeOptions{IncludeLeadDetails: rt.service.Config().IncludeLeadDetails}
	if err := dispatcher.Register(inbound.NewDeliveryHandler(rt.service, sink, normalizeOpts)); err != nil {
		return nil, err
	}
	if rt.client != nil {
		if err := dispatcher.Register(inbound.NewPollHandler(rt.service, sink)); err != nil {
			return nil, err
		}
	}

	httpOpts := []inbound.HTTPOption{inbound.WithLogger(rt.logger)}
	if limit := rt.config.Server.MaxBodyBytes; limit > 0 {
		httpOpts = append(httpOpts, inbound.WithMaxBodyBytes(limit))
	}

	mux := http.NewServeMux()
	mux.Handle("/webhook", inbound.NewHTTPHandler(dispatcher, inbound.SurfaceWebhook, httpOpts...))
	mux.Handle("/poll", inbound.NewHTTPHandler(dispatcher, inbound.SurfacePoll, httpOpts...))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	})
	if rt.config.Metrics.Enabled {
		path := strings.TrimSpace(rt.config.Metrics.Path)
		if path == "" {
			path = "/metrics"
		}
		mux.Handle(path, rt.recorder.Handler())
	}
	return mux, nil
}

func listenAndServe(ctx context.Context, rt *runtime, handler http.Handler) error {
	server := &http.Server{
		Addr:              rt.config.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		rt.logger.Info("leadtable receiver listening", "addr", server.Addr, "store", rt.config.Store.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		rt.logger.Info("leadtable receiver shutting down")
		return server.Shutdown(shutdownCtx)
	}
}

// jsonLineSink writes each event as one JSON document per line.
type jsonLineSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONLineSink(w io.Writer) *jsonLineSink {
	return &jsonLineSink{enc: json.NewEncoder(w)}
}

func (s *jsonLineSink) Emit(_ context.Context, event core.EnrichedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(event)
}

var _ core.EventSink = (*jsonLineSink)(nil)
