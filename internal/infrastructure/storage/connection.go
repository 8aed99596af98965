package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"image-analyzer/internal/domain/entity"
)

// ConnectionConfig разобранная строка подключения к хранилищу:
// Endpoint=..;Region=..;AccessKeyId=..;SecretAccessKey=..;SessionToken=..;ForcePathStyle=true
type ConnectionConfig struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	ForcePathStyle  bool
}

// ParseConnectionString разбирает строку подключения. Ключи без учёта регистра,
// все необязательны. Пустая строка означает стандартную цепочку AWS.
func ParseConnectionString(s string) (ConnectionConfig, error) {
	const op = "storage.connection"
	var cfg ConnectionConfig

	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return ConnectionConfig{}, entity.NewError(entity.KindConfig, op,
				fmt.Sprintf("malformed connection string segment %q", maskSegment(part)))
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "endpoint":
			cfg.Endpoint = value
		case "region":
			cfg.Region = value
		case "accesskeyid":
			cfg.AccessKeyID = value
		case "secretaccesskey":
			cfg.SecretAccessKey = value
		case "sessiontoken":
			cfg.SessionToken = value
		case "forcepathstyle":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return ConnectionConfig{}, entity.WrapError(entity.KindConfig, op, "ForcePathStyle must be a boolean", err)
			}
			cfg.ForcePathStyle = b
		default:
			return ConnectionConfig{}, entity.NewError(entity.KindConfig, op,
				fmt.Sprintf("unknown connection string key %q", key))
		}
	}

	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return ConnectionConfig{}, entity.NewError(entity.KindConfig, op,
			"AccessKeyId and SecretAccessKey must be set together")
	}
	return cfg, nil
}

// NewS3Client создаёт клиента S3 по строке подключения
func NewS3Client(ctx context.Context, connection string) (*s3.Client, error) {
	cfg, err := ParseConnectionString(connection)
	if err != nil {
		return nil, err
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.Region))
	}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, entity.WrapError(entity.KindConfig, "storage.client", "cannot load AWS configuration", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.ForcePathStyle
	}), nil
}

func maskSegment(s string) string {
	if len(s) > 12 {
		return s[:12] + "..."
	}
	return s
}
