package main

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"github.com/Rogue-Bear-Innovations/recipes-back/internal/config"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/db"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/logger"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/proto"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/service"
	"github.com/Rogue-Bear-Innovations/recipes-back/internal/transport"
)

func main() {
	fx.New(
		config.Module,
		logger.Module,
		db.Module,
		service.Module,
		transport.Module,
		proto.Module,
		fx.WithLogger(func(l *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: l.Desugar().Named("fx")}
		}),
		fx.Invoke(
			transport.Serve,
			func(*echo.Echo, *grpc.Server) {},
		),
	).Run()
}
