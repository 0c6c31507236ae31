/*
Package observability provides the logging and metrics hooks used across modelstore.

Logger is a small structured logging interface with a no-op implementation and a
go.uber.org/zap adapter. Metrics is a counter/histogram interface with no-op, in-memory
(for tests) and Prometheus implementations.

	logger, err := observability.NewProductionZapLogger()
	if err != nil {
	    panic(err)
	}
	defer logger.Sync()

	metrics := observability.NewPrometheusMetrics(prometheus.NewRegistry())
	store := model.NewStore(engine, model.WithLogger(logger), model.WithMetrics(metrics))

Fields and tags are passed as alternating key/value pairs.
*/
package observability
