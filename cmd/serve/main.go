package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/odk-sre/webform-manager/internal/log"
	"github.com/odk-sre/webform-manager/internal/middleware"
	"github.com/odk-sre/webform-manager/internal/server"
	"github.com/odk-sre/webform-manager/pkg/config"
	"github.com/odk-sre/webform-manager/pkg/instance"
	"github.com/odk-sre/webform-manager/pkg/model"
	"github.com/odk-sre/webform-manager/pkg/openrosa"
	"github.com/odk-sre/webform-manager/pkg/storage"
	"github.com/odk-sre/webform-manager/pkg/survey"
	"github.com/odk-sre/webform-manager/pkg/transform"
	"github.com/odk-sre/webform-manager/pkg/webform"
)

func main() {
	if err := run(); err != nil {
		slog.Error("failed to run server", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := config.ProvideConfig()

	jsonHandler := log.NewPrettyJSONHandler(os.Stdout, &log.PrettyJSONHandlerOptions{
		PrettyPrint: cfg.PrettyLogging,
	})
	logger := slog.New(log.New(jsonHandler))
	slog.SetDefault(logger)

	redisClient, err := storage.NewRedis(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.Database)
	if err != nil {
		return err
	}

	surveyService := survey.NewService(logger, survey.NewRepository(redisClient))
	instanceService := instance.NewService(logger, instance.NewRepository(redisClient, cfg.InstanceTTL))

	client := openrosa.NewClient(logger, cfg.RequestTimeout, cfg.LinkedServer.LegacyProbe)
	transformer := transform.NewTransformer(logger, transform.NewFormStylesheet(), transform.NewModelStylesheet(), int64(cfg.TransformWorkers), cfg.TransformQueueWait)
	webformService := webform.NewService(logger, surveyService, client, transformer)

	credentials := model.Credentials{
		User:        cfg.LinkedServer.User,
		Pass:        cfg.LinkedServer.Pass,
		BearerToken: cfg.LinkedServer.BearerToken,
	}

	surveyHandler := survey.NewHandler(cfg.PublicURL, surveyService)
	instanceHandler := instance.NewHandler(cfg.PublicURL, instanceService, surveyService)
	webformHandler := webform.NewHandler(credentials, webformService, instanceService)
	authMiddleware := middleware.NewAuthentication(cfg.APIKey)

	r := server.GetEngine(logger, cfg.BasePath, surveyHandler, instanceHandler, webformHandler, authMiddleware)
	return r.Run(fmt.Sprintf(":%d", cfg.Port))
}
