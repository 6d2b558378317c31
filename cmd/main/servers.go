package main

import (
	"context"

	"quote-charts/src/grpc_query"
	"quote-charts/src/logger"
	"quote-charts/src/server"
)

// -----------------------------------------------------------------------------

// startServers orchestrates the startup of all server components and returns
// the function that stops them
func startServers(
	srv *server.FastAPIServer,
	query *grpc_query.Server,
	appLogger *logger.Logger,
) func(context.Context) {

	// 1. HTTP + push hub
	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Critical("Server failed: %v", err)
		}
	}()

	// 2. gRPC Query Server
	if query != nil {
		go func() {
			if err := query.Start(); err != nil {
				appLogger.Critical("gRPC server failed: %v", err)
			}
		}()
	} else {
		appLogger.Info("gRPC query server disabled (grpc_port: 0)")
	}

	return func(ctx context.Context) {
		if err := srv.Stop(ctx); err != nil {
			appLogger.Error("HTTP shutdown: %v", err)
		}
		if query != nil {
			query.Stop()
		}
	}
}
