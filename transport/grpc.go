package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"energy_routing/protocol"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	GRPCServiceName = "energyrouting.RouteService"

	computePathsMethod = "/" + GRPCServiceName + "/ComputePaths"
	statusMethod       = "/" + GRPCServiceName + "/Status"
)

// Messages travel as google.protobuf.Struct holding the same JSON documents
// the TCP transport carries, so both transports share one schema.
type routeServiceServer interface {
	ComputePaths(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Status(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var routeServiceDesc = grpc.ServiceDesc{
	ServiceName: GRPCServiceName,
	HandlerType: (*routeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ComputePaths", Handler: computePathsHandler},
		{MethodName: "Status", Handler: statusHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "energy_routing.proto",
}

func computePathsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(routeServiceServer).ComputePaths(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: computePathsMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(routeServiceServer).ComputePaths(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func statusHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(routeServiceServer).Status(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: statusMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(routeServiceServer).Status(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func toStruct(v interface{}) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}

func fromStruct(in *structpb.Struct, v interface{}) error {
	b, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

var errorCodeToGRPC = map[protocol.ErrorCode]codes.Code{
	protocol.CodeNoPath:           codes.NotFound,
	protocol.CodeUnknownNode:      codes.InvalidArgument,
	protocol.CodeInvalidArgument:  codes.InvalidArgument,
	protocol.CodeTimeout:          codes.DeadlineExceeded,
	protocol.CodeUnknownTopology:  codes.NotFound,
	protocol.CodeUnknownAlgorithm: codes.Unimplemented,
	protocol.CodeInternal:         codes.Internal,
}

func grpcCode(code protocol.ErrorCode) codes.Code {
	if c, ok := errorCodeToGRPC[code]; ok {
		return c
	}
	return codes.Unknown
}

// responseStatus turns a failed response into a gRPC status that carries the
// whole response as a detail
func responseStatus(resp *protocol.RouteResponse) error {
	st := status.New(grpcCode(resp.ErrorCode), resp.Error)
	detail, err := toStruct(resp)
	if err != nil {
		return st.Err()
	}
	if withDetail, err := st.WithDetails(detail); err == nil {
		st = withDetail
	}
	return st.Err()
}

type grpcRouteService struct {
	handler RouteHandler
}

func (s *grpcRouteService) ComputePaths(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req protocol.RouteRequest
	if err := fromStruct(in, &req); err != nil {
		return nil, responseStatus(&protocol.RouteResponse{
			Paths:     [][]string{},
			ErrorCode: protocol.CodeInvalidArgument,
			Error:     fmt.Sprintf("decode request: %v", err),
		})
	}

	resp := s.handler.Compute(ctx, &req)
	if resp.ErrorCode != "" {
		return nil, responseStatus(resp)
	}
	out, err := toStruct(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func (s *grpcRouteService) Status(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	out, err := toStruct(s.handler.Status(ctx))
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode status: %v", err)
	}
	return out, nil
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	log.Debugf("gRPC: method=%s code=%s elapsed=%v", info.FullMethod, status.Code(err), time.Since(start))
	return resp, err
}

type GRPCServer struct {
	server *grpc.Server
	health *health.Server
}

func NewGRPCServer(handler RouteHandler, opts ...grpc.ServerOption) *GRPCServer {
	opts = append([]grpc.ServerOption{grpc.ChainUnaryInterceptor(loggingInterceptor)}, opts...)
	server := grpc.NewServer(opts...)
	server.RegisterService(&routeServiceDesc, &grpcRouteService{handler: handler})

	hs := health.NewServer()
	hs.SetServingStatus(GRPCServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, hs)

	return &GRPCServer{server: server, health: hs}
}

// Serve blocks until the server stops. It returns nil after GracefulStop or Stop.
func (s *GRPCServer) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

func (s *GRPCServer) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Infof("ListenAndServe: gRPC route server listening on %s", ln.Addr())
	return s.Serve(ln)
}

func (s *GRPCServer) GracefulStop() {
	s.health.Shutdown()
	s.server.GracefulStop()
}

func (s *GRPCServer) Stop() {
	s.health.Shutdown()
	s.server.Stop()
}

type GRPCClient struct {
	conn   *grpc.ClientConn
	health healthpb.HealthClient
}

// NewGRPCClient connects lazily to addr over plaintext
func NewGRPCClient(addr string, opts ...grpc.DialOption) (*GRPCClient, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpc client %s: %w", addr, err)
	}
	return &GRPCClient{conn: conn, health: healthpb.NewHealthClient(conn)}, nil
}

// Route mirrors TCPClient.Route: a failed route yields both the decoded
// response and a *protocol.RemoteError.
func (c *GRPCClient) Route(ctx context.Context, req *protocol.RouteRequest) (*protocol.RouteResponse, error) {
	in, err := toStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, computePathsMethod, in, out); err != nil {
		return c.routeError(err)
	}

	var resp protocol.RouteResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, resp.Err()
}

func (c *GRPCClient) routeError(err error) (*protocol.RouteResponse, error) {
	st, ok := status.FromError(err)
	if !ok {
		return nil, err
	}
	for _, d := range st.Details() {
		detail, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		var resp protocol.RouteResponse
		if err := fromStruct(detail, &resp); err == nil && resp.ErrorCode != "" {
			return &resp, resp.Err()
		}
	}
	// no response detail: the call failed before reaching the route service
	return nil, err
}

func (c *GRPCClient) Status(ctx context.Context) (*protocol.StatusResponse, error) {
	out := &structpb.Struct{}
	if err := c.conn.Invoke(ctx, statusMethod, &structpb.Struct{}, out); err != nil {
		return nil, err
	}
	var resp protocol.StatusResponse
	if err := fromStruct(out, &resp); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &resp, nil
}

func (c *GRPCClient) CheckHealth(ctx context.Context) (healthpb.HealthCheckResponse_ServingStatus, error) {
	resp, err := c.health.Check(ctx, &healthpb.HealthCheckRequest{Service: GRPCServiceName})
	if err != nil {
		return healthpb.HealthCheckResponse_UNKNOWN, err
	}
	return resp.GetStatus(), nil
}

func (c *GRPCClient) Close() error {
	return c.conn.Close()
}
