package storage

import (
	"bytes"
	"context"
	"io"
	"path"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"image-analyzer/internal/domain/entity"
	"image-analyzer/internal/domain/port"
)

// S3API операции S3, которые использует контейнер. Позволяет подменять клиента в тестах.
type S3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Container удалённый контейнер: bucket и необязательный префикс
type S3Container struct {
	client S3API
	bucket string
	prefix string
}

// NewS3Container создаёт контейнер. prefix без ведущего и завершающего '/'.
func NewS3Container(client S3API, bucket, prefix string) *S3Container {
	return &S3Container{
		client: client,
		bucket: bucket,
		prefix: strings.Trim(prefix, "/"),
	}
}

func (c *S3Container) Location() string {
	if c.prefix == "" {
		return "s3://" + c.bucket
	}
	return "s3://" + c.bucket + "/" + c.prefix
}

func (c *S3Container) key(name string) string {
	if c.prefix == "" {
		return name
	}
	return c.prefix + "/" + name
}

// List возвращает имена изображений под префиксом, включая вложенные.
// Имена задаются относительно префикса, например "2024/a.jpg".
func (c *S3Container) List(ctx context.Context) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
	}
	keyPrefix := ""
	if c.prefix != "" {
		keyPrefix = c.prefix + "/"
		input.Prefix = aws.String(keyPrefix)
	}

	var names []string
	paginator := s3.NewListObjectsV2Paginator(c.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, entity.WrapError(entity.KindSourceUnavailable, "s3.list",
				"cannot list "+c.Location(), err)
		}
		for _, obj := range page.Contents {
			name := strings.TrimPrefix(aws.ToString(obj.Key), keyPrefix)
			if name == "" || strings.HasSuffix(name, "/") {
				continue
			}
			if IsImageName(path.Base(name)) {
				names = append(names, name)
			}
		}
	}

	sort.Strings(names)
	if names == nil {
		names = []string{}
	}
	return names, nil
}

// Read загружает объект целиком
func (c *S3Container) Read(ctx context.Context, name string) ([]byte, error) {
	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(name)),
	})
	if err != nil {
		return nil, entity.WrapError(entity.KindRead, "s3.read", "cannot get "+c.key(name), err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, entity.WrapError(entity.KindRead, "s3.read", "cannot read "+c.key(name), err)
	}
	return data, nil
}

// Write загружает объект, перезаписывая существующий
func (c *S3Container) Write(ctx context.Context, name string, data []byte) error {
	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.key(name)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimetype.Detect(data).String()),
	})
	if err != nil {
		return entity.WrapError(entity.KindSinkWrite, "s3.write", "cannot put "+c.key(name), err)
	}
	return nil
}

var (
	_ port.ImageSource  = (*S3Container)(nil)
	_ port.ReportWriter = (*S3Container)(nil)
)
