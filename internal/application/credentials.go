package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// Ключи локального файла с секретами
const (
	keyStorageConnection = "storage_connection_string"
	keyVisionEndpoint    = "vision_endpoint"
	keyVisionKey         = "vision_key"
)

// Имена секретов в хранилище
const (
	secretStorageConnection = "storage-connection-string"
	secretVisionEndpoint    = "vision-endpoint"
	secretVisionKey         = "vision-key"
)

// LocalReader читает key=value файл
type LocalReader func(path string) (map[string]string, error)

// VaultFactory открывает хранилище секретов по адресу
type VaultFactory func(ctx context.Context, url string) (port.SecretStore, error)

// CredentialProvider получает секреты из файла или хранилища.
// Повторных попыток нет.
type CredentialProvider struct {
	readLocal LocalReader
	openVault VaultFactory
	logger    *slog.Logger
}

// NewCredentialProvider создаёт провайдер секретов
func NewCredentialProvider(readLocal LocalReader, openVault VaultFactory, logger *slog.Logger) *CredentialProvider {
	if logger == nil {
		logger = slog.Default()
	}
	return &CredentialProvider{
		readLocal: readLocal,
		openVault: openVault,
		logger:    logger.With("component", "credentials"),
	}
}

// Resolve возвращает секреты согласно источнику
func (p *CredentialProvider) Resolve(ctx context.Context, src entity.CredentialSource) (entity.Credentials, error) {
	var (
		creds entity.Credentials
		err   error
	)
	switch src.Method {
	case entity.CredentialMethodLocal:
		creds, err = p.resolveLocal(src.Path)
	case entity.CredentialMethodVault:
		creds, err = p.resolveVault(ctx, src.VaultURL)
	default:
		return entity.Credentials{}, entity.NewError(entity.KindConfig, "credentials.resolve",
			fmt.Sprintf("unknown credential method %q", src.Method))
	}
	if err != nil {
		return entity.Credentials{}, err
	}

	creds.VisionEndpoint = strings.TrimRight(creds.VisionEndpoint, "/")
	p.logger.Info("credentials resolved", "method", src.Method, "endpoint", creds.VisionEndpoint)
	return creds, nil
}

func (p *CredentialProvider) resolveLocal(path string) (entity.Credentials, error) {
	required := []string{keyStorageConnection, keyVisionEndpoint, keyVisionKey}

	if p.readLocal == nil {
		return entity.Credentials{}, entity.NewError(entity.KindMissingCredential, "credentials.local",
			"local credential reader is not configured")
	}

	values, err := p.readLocal(path)
	if err != nil {
		return entity.Credentials{}, &entity.Error{
			Kind:    entity.KindMissingCredential,
			Op:      "credentials.local",
			Message: fmt.Sprintf("cannot read %s, missing keys: %s", path, strings.Join(required, ", ")),
			Cause:   err,
		}
	}

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(values[key]) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return entity.Credentials{}, entity.NewError(entity.KindMissingCredential, "credentials.local",
			fmt.Sprintf("%s is missing keys: %s", path, strings.Join(missing, ", ")))
	}

	return entity.Credentials{
		StorageConnection: strings.TrimSpace(values[keyStorageConnection]),
		VisionEndpoint:    strings.TrimSpace(values[keyVisionEndpoint]),
		VisionKey:         strings.TrimSpace(values[keyVisionKey]),
	}, nil
}

func (p *CredentialProvider) resolveVault(ctx context.Context, url string) (entity.Credentials, error) {
	if p.openVault == nil {
		return entity.Credentials{}, entity.NewError(entity.KindCredentialFetch, "credentials.vault",
			"secret store is not configured")
	}

	store, err := p.openVault(ctx, url)
	if err != nil {
		return entity.Credentials{}, fetchError("cannot open secret store", err)
	}

	get := func(name string) (string, error) {
		value, err := store.GetSecret(ctx, name)
		if err != nil {
			return "", fetchError("cannot fetch secret "+name, err)
		}
		if strings.TrimSpace(value) == "" {
			return "", entity.NewError(entity.KindCredentialFetch, "credentials.vault", "secret "+name+" is empty")
		}
		return strings.TrimSpace(value), nil
	}

	var creds entity.Credentials
	if creds.StorageConnection, err = get(secretStorageConnection); err != nil {
		return entity.Credentials{}, err
	}
	if creds.VisionEndpoint, err = get(secretVisionEndpoint); err != nil {
		return entity.Credentials{}, err
	}
	if creds.VisionKey, err = get(secretVisionKey); err != nil {
		return entity.Credentials{}, err
	}
	return creds, nil
}

// fetchError всегда даёт CredentialFetchError, даже если причина уже типизирована.
func fetchError(msg string, err error) error {
	return &entity.Error{Kind: entity.KindCredentialFetch, Op: "credentials.vault", Message: msg, Cause: err}
}
