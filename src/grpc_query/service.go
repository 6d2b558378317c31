package grpc_query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"quote-charts/src/analysis"
	"quote-charts/src/helpers"
	"quote-charts/src/interfaces"
	"quote-charts/src/logger"
	"quote-charts/src/models"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// QueryService exposes the store read side to non-HTTP consumers
type QueryService struct {
	Store   interfaces.ISeriesReader
	Session interfaces.ISessionStatus
	Charts  *analysis.AnalysisFacade
	Logger  *logger.Logger
}

// NewQueryService creates a new instance of QueryService
func NewQueryService(
	store interfaces.ISeriesReader,
	session interfaces.ISessionStatus,
	charts *analysis.AnalysisFacade,
	log *logger.Logger,
) *QueryService {
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &QueryService{
		Store:   store,
		Session: session,
		Charts:  charts,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *QueryService) GetConnection(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	state := models.Disconnected
	stats := models.MSessionStats{}
	if s.Session != nil {
		state = s.Session.State()
		stats = s.Session.Stats()
	}

	return newStruct(map[string]interface{}{
		"connection":      state.String(),
		"session_id":      stats.SessionID,
		"symbols":         s.Store.SymbolCount(),
		"latest_update":   s.Store.LastApplied(),
		"events_consumed": stats.EventsConsumed,
		"ticks_applied":   stats.TicksApplied,
		"ticks_ignored":   stats.TicksIgnored,
	})
}

// -----------------------------------------------------------------------------

func (s *QueryService) ListQuotes(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	quotes := s.Store.LatestQuotes()

	list := make([]interface{}, 0, len(quotes))
	for _, q := range quotes {
		list = append(list, map[string]interface{}{
			"ticker":      q.Ticker,
			"price":       q.Price.String(),
			"last_update": q.LastUpdate,
		})
	}

	return newStruct(map[string]interface{}{
		"quotes":    list,
		"timestamp": time.Now().UnixMilli(),
	})
}

// -----------------------------------------------------------------------------

// GetChart reads ticker, range and width from the request struct
func (s *QueryService) GetChart(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()

	ticker := fields["ticker"].GetStringValue()
	if ticker == "" {
		return nil, status.Error(codes.InvalidArgument, "ticker is required")
	}
	rangeKey := fields["range"].GetStringValue()
	width := int(fields["width"].GetNumberValue())
	if width < 0 {
		return nil, status.Errorf(codes.InvalidArgument, "invalid width %d", width)
	}

	chart, err := s.Charts.Chart(ticker, rangeKey, width)
	if err != nil {
		if errors.Is(err, helpers.ErrUnknownRange) {
			return nil, status.Error(codes.InvalidArgument, err.Error())
		}
		s.Logger.Error("gRPC: chart %s failed: %v", ticker, err)
		return nil, status.Error(codes.Internal, "chart failed")
	}

	points := make([]interface{}, 0, len(chart.Points))
	for _, p := range chart.Points {
		points = append(points, map[string]interface{}{
			"value":   p.Value.String(),
			"label":   p.Label,
			"spacing": p.Spacing,
		})
	}

	var delta interface{}
	if chart.Delta != nil {
		d := map[string]interface{}{
			"absolute":    chart.Delta.AbsoluteText(),
			"percent":     nil,
			"is_positive": chart.Delta.IsPositive,
		}
		if chart.Delta.Percent.Valid {
			d["percent"] = chart.Delta.PercentText()
		}
		delta = d
	}

	return newStruct(map[string]interface{}{
		"ticker": chart.Ticker,
		"range":  chart.Range.Key,
		"label":  chart.Range.Label,
		"points": points,
		"delta":  delta,
	})
}

// -----------------------------------------------------------------------------

func newStruct(fields map[string]interface{}) (*structpb.Struct, error) {
	st, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Error(codes.Internal, fmt.Sprintf("encode response: %v", err))
	}
	return st, nil
}

// -----------------------------------------------------------------------------

// LoggingInterceptor logs every call at debug level and failures at warning
func LoggingInterceptor(log *logger.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		if err != nil {
			log.Warning("gRPC %s failed after %s: %v", info.FullMethod, time.Since(start), err)
		} else {
			log.Debug("gRPC %s took %s", info.FullMethod, time.Since(start))
		}
		return resp, err
	}
}
