package grpccas

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name of the archive CAS.
const ServiceName = "setcore.storage.grpccas.v1.CAS"

// Method names of the CAS service.
const (
	MethodPut = "Put"
	MethodGet = "Get"
	MethodHas = "Has"
)

// FullMethod returns the invocation path of method, e.g. "/<ServiceName>/Put".
func FullMethod(method string) string { return "/" + ServiceName + "/" + method }

// CASServer is the server API for the CAS gRPC service.
//
// Messages are protobuf well-known wrapper types, so no generated code is needed:
// Put takes BytesValue and returns the CID as StringValue, Get takes the CID and
// returns BytesValue, Has takes the CID and returns BoolValue.
type CASServer interface {
	Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error)
	Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error)
	Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error)
}

// UnimplementedCASServer answers every method with codes.Unimplemented.
type UnimplementedCASServer struct{}

func (UnimplementedCASServer) Put(context.Context, *wrapperspb.BytesValue) (*wrapperspb.StringValue, error) {
	return nil, unimplemented(MethodPut)
}

func (UnimplementedCASServer) Get(context.Context, *wrapperspb.StringValue) (*wrapperspb.BytesValue, error) {
	return nil, unimplemented(MethodGet)
}

func (UnimplementedCASServer) Has(context.Context, *wrapperspb.StringValue) (*wrapperspb.BoolValue, error) {
	return nil, unimplemented(MethodHas)
}

func unimplemented(method string) error {
	return status.Errorf(codes.Unimplemented, "method %s not implemented", method)
}

// RegisterCASServer registers the CAS service on a gRPC server.
func RegisterCASServer(s grpc.ServiceRegistrar, srv CASServer) {
	s.RegisterService(&serviceDesc, srv)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CASServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod(MethodPut, CASServer.Put),
		unaryMethod(MethodGet, CASServer.Get),
		unaryMethod(MethodHas, CASServer.Has),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "setcore/storage/grpccas/v1/cas.proto",
}

// unaryMethod adapts a CASServer method expression to a grpc.MethodDesc.
func unaryMethod[Req, Resp proto.Message](name string, call func(CASServer, context.Context, Req) (Resp, error)) grpc.MethodDesc {
	full := FullMethod(name)
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := newMessage[Req]()
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(CASServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: full}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(CASServer), ctx, req.(Req))
			})
		},
	}
}

// newMessage allocates the message a nil pointer of type M points to.
func newMessage[M proto.Message]() M {
	var zero M
	return zero.ProtoReflect().New().Interface().(M)
}

// CASClient is the client API for the CAS gRPC service.
type CASClient interface {
	Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error)
	Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error)
	Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error)
}

type casClient struct{ cc grpc.ClientConnInterface }

func NewCASClient(cc grpc.ClientConnInterface) CASClient { return &casClient{cc: cc} }

func (c *casClient) Put(ctx context.Context, in *wrapperspb.BytesValue, opts ...grpc.CallOption) (*wrapperspb.StringValue, error) {
	return invoke[*wrapperspb.StringValue](ctx, c.cc, MethodPut, in, opts)
}

func (c *casClient) Get(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BytesValue, error) {
	return invoke[*wrapperspb.BytesValue](ctx, c.cc, MethodGet, in, opts)
}

func (c *casClient) Has(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*wrapperspb.BoolValue, error) {
	return invoke[*wrapperspb.BoolValue](ctx, c.cc, MethodHas, in, opts)
}

func invoke[Resp proto.Message](ctx context.Context, cc grpc.ClientConnInterface, method string, in proto.Message, opts []grpc.CallOption) (Resp, error) {
	out := newMessage[Resp]()
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		var zero Resp
		return zero, err
	}
	return out, nil
}
