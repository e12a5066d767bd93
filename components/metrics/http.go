package metrics

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ThreeDotsLabs/relay"
)

// CreateRegistryAndServeHTTP establishes an HTTP server that exposes the /metrics endpoint for Prometheus at the given address.
// It returns a new prometheus registry (to register the metrics on) and a canceling function that ends the server.
func CreateRegistryAndServeHTTP(addr string, logger relay.LoggerAdapter) (registry *prometheus.Registry, cancel func()) {
	registry = prometheus.NewRegistry()
	return registry, ServeHTTP(addr, registry, logger)
}

// Handler returns the router serving the /metrics endpoint for the given registry.
func Handler(registry prometheus.Gatherer) http.Handler {
	router := chi.NewRouter()

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		handler.ServeHTTP(w, r)
	})

	return router
}

// ServeHTTP establishes an HTTP server that exposes the /metrics endpoint for Prometheus at the given address.
// It takes an existing Prometheus registry and returns a canceling function that ends the server.
func ServeHTTP(addr string, registry prometheus.Gatherer, logger relay.LoggerAdapter) (cancel func()) {
	if logger == nil {
		logger = relay.NopLogger{}
	}

	server := http.Server{
		Addr:    addr,
		Handler: Handler(registry),
	}

	go func() {
		logger.Info("Serving metrics", relay.LogFields{"addr": addr})

		err := server.ListenAndServe()
		if err != http.ErrServerClosed {
			logger.Error("Metrics server stopped", err, relay.LogFields{"addr": addr})
		}
	}()

	return func() { _ = server.Close() }
}
