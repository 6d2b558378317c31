package main

import (
	"context"

	"quote-charts/src/analysis"
	"quote-charts/src/config"
	"quote-charts/src/grpc_query"
	"quote-charts/src/interfaces"
	"quote-charts/src/logger"
	"quote-charts/src/models"
	"quote-charts/src/pipeline"
	"quote-charts/src/storage"
	"quote-charts/src/store"
	"quote-charts/src/stream"
	"quote-charts/src/utils"
)

// -----------------------------------------------------------------------------

// setupStore creates the series store rendering labels in the configured timezone
func setupStore(conf *config.Config, appLogger *logger.Logger) (*store.SeriesStore, error) {
	loc, err := conf.Location()
	if err != nil {
		return nil, err
	}
	return store.NewSeriesStore(conf.Store.IntradayCapacity, loc, appLogger.Named("Store")), nil
}

// -----------------------------------------------------------------------------

// setupSession wires a feed client to the store
func setupSession(conf *models.MConfig, st *store.SeriesStore, appLogger *logger.Logger) *pipeline.Session {
	client := stream.NewClient(conf.Feed, appLogger.Named("Feed"))
	return pipeline.NewSession(conf, st, client, appLogger.Named("Session"))
}

// -----------------------------------------------------------------------------

// setupArchive opens the configured database. It returns nil when storage is disabled.
func setupArchive(conf *models.MConfig, appLogger *logger.Logger) (*storage.Archive, error) {
	if !conf.Storage.Enabled {
		return nil, nil
	}

	db, err := storage.NewDatabase(conf, appLogger.Named(conf.Storage.DBType))
	if err != nil {
		return nil, err
	}

	archive := storage.NewArchive(db, conf.Storage.RetentionDays, appLogger.Named("Archive"))
	if err := archive.Start(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return archive, nil
}

// -----------------------------------------------------------------------------

// setupAnalysis initializes the analysis facade
func setupAnalysis(conf *models.MConfig, st interfaces.ISeriesReader, appLogger *logger.Logger) *analysis.AnalysisFacade {
	return analysis.NewAnalysisFacade(conf, st, appLogger.Named("Analysis"))
}

// -----------------------------------------------------------------------------

// setupScheduler resolves market hours for the quote list
func setupScheduler(appLogger *logger.Logger) *utils.MarketScheduler {
	return utils.NewMarketScheduler(appLogger.Named("Calendar"))
}

// -----------------------------------------------------------------------------

// setupQueryServer builds the gRPC query server. It returns nil when grpc_port is 0.
func setupQueryServer(
	conf *models.MConfig,
	st interfaces.ISeriesReader,
	session interfaces.ISessionStatus,
	charts *analysis.AnalysisFacade,
	appLogger *logger.Logger,
) *grpc_query.Server {
	if conf.GrpcPort == 0 {
		return nil
	}
	queryLogger := appLogger.Named("QueryService")
	service := grpc_query.NewQueryService(st, session, charts, queryLogger)
	return grpc_query.NewServer(conf.GrpcHost, conf.GrpcPort, service, queryLogger)
}
