package proto

import (
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
)

const metadataAuthorization = "authorization"

type (
	CatalogServerImpl struct {
		users       *service.Users
		recipes     *service.Recipes
		tags        *service.Tags
		ingredients *service.Ingredients
		logger      *zap.SugaredLogger
	}

	userCtxKey struct{}
)

var _ CatalogServer = (*CatalogServerImpl)(nil)

func NewCatalogServer(
	users *service.Users,
	recipes *service.Recipes,
	tags *service.Tags,
	ingredients *service.Ingredients,
	logger *zap.SugaredLogger,
) *CatalogServerImpl {
	return &CatalogServerImpl{
		users:       users,
		recipes:     recipes,
		tags:        tags,
		ingredients: ingredients,
		logger:      logger.Named("grpc"),
	}
}

// NewServer returns a grpc server with the catalog registered behind token
// auth.
func (s *CatalogServerImpl) NewServer() *grpc.Server {
	grpcServer := grpc.NewServer(grpc.UnaryInterceptor(s.AuthInterceptor))
	RegisterCatalogServer(grpcServer, s)
	return grpcServer
}

func NewGRPCServer(lc fx.Lifecycle, cfg *config.Config, impl *CatalogServerImpl, logger *zap.SugaredLogger) *grpc.Server {
	grpcServer := impl.NewServer()

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			lis, err := net.Listen("tcp", cfg.GRPCListen())
			if err != nil {
				return errors.Wrap(err, "failed to listen")
			}

			go func() {
				if err := grpcServer.Serve(lis); err != nil {
					logger.Errorw("GRPC server stopped", "error", err)
				}
			}()

			logger.Infow("GRPC server started", "addr", lis.Addr().String())
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("Stopping GRPC server.")
			grpcServer.GracefulStop()
			return nil
		},
	})

	return grpcServer
}

// AuthInterceptor resolves the "authorization" metadata ("Token <key>" or
// "Bearer <key>") to its user and maps service errors to status codes.
func (s *CatalogServerImpl) AuthInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	token := metadataToken(ctx)
	if token == "" {
		return nil, status.Error(codes.Unauthenticated, "authentication credentials were not provided")
	}

	user, err := s.users.Authenticate(ctx, token)
	if err != nil {
		return nil, s.statusError(info.FullMethod, err)
	}

	resp, err := handler(context.WithValue(ctx, userCtxKey{}, user), req)
	if err != nil {
		return nil, s.statusError(info.FullMethod, err)
	}
	return resp, nil
}

func metadataToken(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(metadataAuthorization)
	if len(values) == 0 {
		return ""
	}

	scheme, key, ok := strings.Cut(values[0], " ")
	if !ok || !(strings.EqualFold(scheme, "Token") || strings.EqualFold(scheme, "Bearer")) {
		return ""
	}
	return strings.TrimSpace(key)
}

func (s *CatalogServerImpl) statusError(method string, err error) error {
	if _, ok := status.FromError(err); ok {
		return err
	}

	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, "invalid token")
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	}

	s.logger.Errorw("call failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal server error")
}

func userFromContext(ctx context.Context) (*db.User, error) {
	user, ok := ctx.Value(userCtxKey{}).(*db.User)
	if !ok || user == nil {
		return nil, status.Error(codes.Unauthenticated, "no user in context")
	}
	return user, nil
}

func (s *CatalogServerImpl) ListRecipes(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.List(ctx, user)
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, len(recipes))
	for i, r := range recipes {
		items[i] = map[string]interface{}{
			"id":           r.ID,
			"title":        r.Title,
			"time_minutes": r.TimeMinutes,
			"price":        r.Price.StringFixed(2),
			"link":         r.Link,
		}
	}
	return structpb.NewStruct(map[string]interface{}{"recipes": items})
}

func (s *CatalogServerImpl) ListTags(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return listAttrs(ctx, s.tags, in, "tags")
}

func (s *CatalogServerImpl) ListIngredients(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return listAttrs(ctx, s.ingredients, in, "ingredients")
}

func listAttrs[T db.Attr](ctx context.Context, svc *service.Attrs[T], in *structpb.Struct, key string) (*structpb.Struct, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}

	values, err := svc.List(ctx, user, assignedOnly(in))
	if err != nil {
		return nil, err
	}

	items := make([]interface{}, len(values))
	for i, v := range values {
		o := v.Owned()
		items[i] = map[string]interface{}{"id": o.ID, "name": o.Name}
	}
	return structpb.NewStruct(map[string]interface{}{key: items})
}

// assignedOnly reads the optional assigned_only flag; true or 1 enables it.
func assignedOnly(in *structpb.Struct) bool {
	v, ok := in.GetFields()["assigned_only"]
	if !ok {
		return false
	}
	switch k := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		return k.BoolValue
	case *structpb.Value_NumberValue:
		return k.NumberValue == 1
	case *structpb.Value_StringValue:
		return k.StringValue == "1" || strings.EqualFold(k.StringValue, "true")
	}
	return false
}
