package grpc_query

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are well-known protobuf types, so the service is described by hand
// instead of through generated stubs.

const ServiceName = "quotecharts.QueryService"

const (
	GetConnectionMethod = "/" + ServiceName + "/GetConnection"
	ListQuotesMethod    = "/" + ServiceName + "/ListQuotes"
	GetChartMethod      = "/" + ServiceName + "/GetChart"
)

// QueryServer is the server API for quotecharts.QueryService
type QueryServer interface {
	GetConnection(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListQuotes(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	GetChart(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// -----------------------------------------------------------------------------

// RegisterQueryServer attaches srv to s
func RegisterQueryServer(s grpc.ServiceRegistrar, srv QueryServer) {
	s.RegisterService(&QueryServiceDesc, srv)
}

// -----------------------------------------------------------------------------

var QueryServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*QueryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetConnection", Handler: getConnectionHandler},
		{MethodName: "ListQuotes", Handler: listQuotesHandler},
		{MethodName: "GetChart", Handler: getChartHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "quotecharts/query.proto",
}

// -----------------------------------------------------------------------------

func getConnectionHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetConnection(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetConnectionMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetConnection(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------

func listQuotesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).ListQuotes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: ListQuotesMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).ListQuotes(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------

func getChartHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(QueryServer).GetChart(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: GetChartMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(QueryServer).GetChart(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

type QueryClient struct {
	cc grpc.ClientConnInterface
}

func NewQueryClient(cc grpc.ClientConnInterface) *QueryClient {
	return &QueryClient{cc: cc}
}

func (c *QueryClient) GetConnection(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetConnectionMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *QueryClient) ListQuotes(ctx context.Context, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, ListQuotesMethod, &emptypb.Empty{}, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetChart requests ticker over rangeKey; "" and 0 select the server defaults
func (c *QueryClient) GetChart(ctx context.Context, ticker, rangeKey string, width int, opts ...grpc.CallOption) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{
		"ticker": ticker,
		"range":  rangeKey,
		"width":  width,
	})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, GetChartMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
