package container

import (
	"context"
	"log/slog"

	"image-analyzer/config"
	app "image-analyzer/internal/application"
	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
	"image-analyzer/internal/infrastructure/secrets"
	"image-analyzer/internal/infrastructure/storage"
	"image-analyzer/internal/infrastructure/vision"
)

type Container struct {
	UserService     *app.UserService
	AnalysisService *app.AnalysisService
	InputLocation   string
	Destinations    []entity.Destination
}

// New получает секреты и собирает сервисы приложения.
// progress может быть nil.
func New(ctx context.Context, cfg *config.Config, progress port.ProgressReporter, logger *slog.Logger) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	provider := app.NewCredentialProvider(secrets.ReadEnvFile, openVault(logger), logger)
	creds, err := provider.Resolve(ctx, cfg.CredentialSource())
	if err != nil {
		return nil, err
	}

	destinations, err := cfg.Destinations()
	if err != nil {
		return nil, err
	}
	settings, err := cfg.AnalysisSettings()
	if err != nil {
		return nil, err
	}

	input := inputLocation(cfg)
	resultsLocation := remoteLocation(cfg.File.Containers.ResultsContainer)

	// Клиент S3 нужен только для удалённых адресов
	var s3api storage.S3API
	if storage.IsRemote(input) || containsDestination(destinations, entity.DestinationRemoteContainer) {
		client, err := storage.NewS3Client(ctx, creds.StorageConnection)
		if err != nil {
			return nil, err
		}
		s3api = client
	}

	writers := make(map[entity.Destination]port.ReportWriter, len(destinations))
	for _, d := range destinations {
		switch d {
		case entity.DestinationLocalFile:
			writers[d] = storage.NewLocalDir(cfg.File.Output.LocalDir)
		case entity.DestinationRemoteContainer:
			loc, err := storage.OpenLocation(resultsLocation, s3api)
			if err != nil {
				return nil, err
			}
			writers[d] = loc
		}
	}

	client := vision.NewClient(creds.VisionEndpoint, creds.VisionKey, vision.Options{
		Timeout:     cfg.VisionTimeout(),
		MaxAttempts: cfg.File.Vision.MaxAttempts,
		MaxInFlight: cfg.File.Vision.MaxInFlight,
	}, logger)

	pipeline := app.NewBatchPipeline(client, vision.NewInspector(), progress, logger)
	sink := app.NewResultSink(writers, logger)

	openSource := func(ctx context.Context) (port.ImageSource, error) {
		return storage.OpenLocation(input, s3api)
	}

	analysis := app.NewAnalysisService(pipeline, sink, openSource, app.RunConfig{
		Settings:         settings,
		Workers:          cfg.File.Vision.Workers,
		CredentialMethod: cfg.CredentialMethod,
	}, destinations, logger)

	return &Container{
		UserService:     app.NewUserService(storage.NewMemoryUserRepository()),
		AnalysisService: analysis,
		InputLocation:   input,
		Destinations:    destinations,
	}, nil
}

func openVault(logger *slog.Logger) app.VaultFactory {
	return func(ctx context.Context, url string) (port.SecretStore, error) {
		return secrets.OpenSecretsManager(ctx, url, logger)
	}
}

// inputLocation локальный каталог имеет приоритет над входным контейнером
func inputLocation(cfg *config.Config) string {
	if cfg.File.Input.LocalDir != "" {
		return cfg.File.Input.LocalDir
	}
	return remoteLocation(cfg.File.Containers.InputContainer)
}

// remoteLocation приводит имя контейнера к виду s3://bucket
func remoteLocation(name string) string {
	if name == "" || storage.IsRemote(name) {
		return name
	}
	return "s3://" + name
}

func containsDestination(list []entity.Destination, d entity.Destination) bool {
	for _, x := range list {
		if x == d {
			return true
		}
	}
	return false
}
