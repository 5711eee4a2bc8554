package proto

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Catalog messages are well-known types, so the service is described by
// hand instead of by generated stubs.
const (
	CatalogServiceName = "recipes.v1.Catalog"

	methodListRecipes     = "/" + CatalogServiceName + "/ListRecipes"
	methodListTags        = "/" + CatalogServiceName + "/ListTags"
	methodListIngredients = "/" + CatalogServiceName + "/ListIngredients"
)

// CatalogServer is the read-only catalog of the caller's recipes, tags and
// ingredients.
type CatalogServer interface {
	ListRecipes(context.Context, *emptypb.Empty) (*structpb.Struct, error)
	ListTags(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListIngredients(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var CatalogServiceDesc = grpc.ServiceDesc{
	ServiceName: CatalogServiceName,
	HandlerType: (*CatalogServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListRecipes", Handler: listRecipesHandler},
		{MethodName: "ListTags", Handler: listTagsHandler},
		{MethodName: "ListIngredients", Handler: listIngredientsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "recipes/v1/catalog.proto",
}

func RegisterCatalogServer(s grpc.ServiceRegistrar, srv CatalogServer) {
	s.RegisterService(&CatalogServiceDesc, srv)
}

func listRecipesHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListRecipes(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListRecipes}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).ListRecipes(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func listTagsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListTags(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListTags}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).ListTags(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func listIngredientsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CatalogServer).ListIngredients(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: methodListIngredients}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(CatalogServer).ListIngredients(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

type CatalogClient struct {
	cc grpc.ClientConnInterface
}

func NewCatalogClient(cc grpc.ClientConnInterface) *CatalogClient {
	return &CatalogClient{cc: cc}
}

func (c *CatalogClient) ListRecipes(ctx context.Context, in *emptypb.Empty, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListRecipes, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) ListTags(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListTags, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CatalogClient) ListIngredients(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, methodListIngredients, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
