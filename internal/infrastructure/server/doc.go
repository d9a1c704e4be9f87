// Package server wires configuration, logging, metrics, tracing and the
// domain into a running HTTP service.
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Load the catalog: built-in, or files matching CATALOG_PATH
//  4. Select the generator: HTTP upstream, replayed trace or demo
//  5. Create the session manager and start the idle-session pruner
//  6. Setup HTTP routes, middleware and the /stream websocket
//  7. Start HTTP server
//  8. Graceful shutdown on signal
//
// Every generation is traced as one span from opening the stream until it
// ends; the span continues the trace of the request that started it.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.NewServer(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
