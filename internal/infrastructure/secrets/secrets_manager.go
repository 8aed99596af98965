package secrets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"

	"image-analyzer/internal/domain/port"
)

// Коды ошибок Secrets Manager
const (
	resourceNotFoundException = "ResourceNotFoundException"
	accessDeniedException     = "AccessDeniedException"
)

var (
	ErrSecretNotFound = errors.New("secret not found")
	ErrSecretEmpty    = errors.New("secret value is empty")
	ErrAccessDenied   = errors.New("access denied to secret")
)

// ManagerAPI операции Secrets Manager, которые нужны хранилищу
type ManagerAPI interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// SecretsManager хранилище секретов на AWS Secrets Manager
type SecretsManager struct {
	api    ManagerAPI
	logger *slog.Logger
}

// NewSecretsManager оборачивает готовый клиент
func NewSecretsManager(api ManagerAPI, logger *slog.Logger) *SecretsManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &SecretsManager{api: api, logger: logger.With("component", "vault")}
}

// OpenSecretsManager создаёт клиента для адреса хранилища.
// Пустой url означает стандартный endpoint региона. Повторов нет.
func OpenSecretsManager(ctx context.Context, url string, logger *slog.Logger) (*SecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRetryMaxAttempts(1))
	if err != nil {
		return nil, err
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	client := secretsmanager.NewFromConfig(cfg, func(o *secretsmanager.Options) {
		if url != "" {
			o.BaseEndpoint = aws.String(url)
		}
	})
	return NewSecretsManager(client, logger), nil
}

// GetSecret возвращает строковое значение секрета. Значение в лог не пишется.
func (m *SecretsManager) GetSecret(ctx context.Context, name string) (string, error) {
	out, err := m.api.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case resourceNotFoundException:
				return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
			case accessDeniedException:
				return "", fmt.Errorf("%w: %s", ErrAccessDenied, name)
			}
		}
		m.logger.Error("secret fetch failed", "secret_name", name, "error", err)
		return "", err
	}

	value := aws.ToString(out.SecretString)
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrSecretEmpty, name)
	}
	m.logger.Debug("secret fetched", "secret_name", name)
	return value, nil
}

var _ port.SecretStore = (*SecretsManager)(nil)
