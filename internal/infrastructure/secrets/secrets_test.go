package secrets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"
)

type fakeManager struct {
	values map[string]string
	err    error
}

func (f *fakeManager) GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	v, ok := f.values[aws.ToString(params.SecretId)]
	if !ok {
		return nil, &smithy.GenericAPIError{Code: "ResourceNotFoundException", Message: "not found"}
	}
	return &secretsmanager.GetSecretValueOutput{SecretString: aws.String(v)}, nil
}

func TestSecretsManager_GetSecret(t *testing.T) {
	store := NewSecretsManager(&fakeManager{values: map[string]string{
		"vision-key": "abc",
		"empty":      "",
	}}, nil)
	ctx := context.Background()

	v, err := store.GetSecret(ctx, "vision-key")
	require.NoError(t, err)
	require.Equal(t, "abc", v)

	_, err = store.GetSecret(ctx, "missing")
	require.ErrorIs(t, err, ErrSecretNotFound)

	_, err = store.GetSecret(ctx, "empty")
	require.ErrorIs(t, err, ErrSecretEmpty)
}

func TestSecretsManager_GetSecretErrors(t *testing.T) {
	denied := NewSecretsManager(&fakeManager{
		err: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "nope"},
	}, nil)
	_, err := denied.GetSecret(context.Background(), "vision-key")
	require.ErrorIs(t, err, ErrAccessDenied)

	network := errors.New("dial tcp: connection refused")
	broken := NewSecretsManager(&fakeManager{err: network}, nil)
	_, err = broken.GetSecret(context.Background(), "vision-key")
	require.ErrorIs(t, err, network)
}

func TestReadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creds.txt")
	content := "# local credentials\n" +
		"storage_connection_string=Endpoint=http://localhost:9000;ForcePathStyle=true\n" +
		"VISION_ENDPOINT=https://vision.example.com/\n" +
		"vision_key = k123\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	values, err := ReadEnvFile(path)
	require.NoError(t, err)
	require.Equal(t, "Endpoint=http://localhost:9000;ForcePathStyle=true", values["storage_connection_string"])
	require.Equal(t, "https://vision.example.com/", values["vision_endpoint"])
	require.Equal(t, "k123", values["vision_key"])

	_, err = ReadEnvFile(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
}
