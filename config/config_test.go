package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"image-analyzer/internal/domain/entity"
)

func setBaseEnv(t *testing.T, configFile string) {
	t.Helper()
	t.Setenv("CONFIG_FILE", configFile)
	t.Setenv("CREDENTIAL_METHOD", "local")
	t.Setenv("APP_MODE", "")
	t.Setenv("KEY_VAULT_URL", "")
	t.Setenv("TELEGRAM_TOKEN", "")
	t.Setenv("HTTP_ADDR", "")
	t.Setenv("PORT", "")
	t.Setenv("LOG_LEVEL", "")
}

func TestLoad_WritesDefaultFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	setBaseEnv(t, path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ModeBatch, cfg.Mode)
	require.Equal(t, entity.CredentialMethodLocal, cfg.CredentialMethod)
	require.Equal(t, "creds.txt", cfg.CredentialsFile)
	require.Equal(t, ":8000", cfg.HTTPAddr)
	require.Equal(t, slog.LevelInfo, cfg.LogLevel)

	_, err = os.Stat(path)
	require.NoError(t, err)

	settings, err := cfg.AnalysisSettings()
	require.NoError(t, err)
	require.Equal(t, entity.DefaultAnalysisSettings(), settings)

	// повторная загрузка читает записанный файл
	again, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, cfg.File, again)
}

func TestLoadFile_PartialJSONKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
  "analysis_settings": {"target_keywords": ["cat", "dog"], "confidence_threshold": 0.7},
  "containers": {"input_container": "s3://photos/incoming"},
  "vision": {"workers": 3}
}`), 0o644))

	file, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, []string{"cat", "dog"}, file.AnalysisSettings.TargetKeywords)
	require.Equal(t, 0.7, file.AnalysisSettings.ConfidenceThreshold)
	require.Equal(t, 10, file.AnalysisSettings.MaxTags)
	require.Equal(t, "s3://photos/incoming", file.Containers.InputContainer)
	require.Equal(t, "analysis-results", file.Containers.ResultsContainer)
	require.Equal(t, 3, file.Vision.Workers)
	require.Equal(t, 30, file.Vision.TimeoutSeconds)
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	written, err := LoadFile(path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "analysis_settings:")

	again, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, written, again)
}

func TestLoad_Errors(t *testing.T) {
	cases := map[string]map[string]string{
		"bad method":        {"CREDENTIAL_METHOD": "env"},
		"vault without url": {"CREDENTIAL_METHOD": "keyvault"},
		"bot without token": {"APP_MODE": "bot"},
		"unknown mode":      {"APP_MODE": "daemon"},
		"bad log level":     {"LOG_LEVEL": "loud"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			setBaseEnv(t, filepath.Join(t.TempDir(), "config.json"))
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.True(t, entity.IsKind(err, entity.KindConfig), "got %v", err)
		})
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"analysis_settings": {"confidence_threshold": 2}}`), 0o644))
	setBaseEnv(t, path)

	_, err := Load()
	require.True(t, entity.IsKind(err, entity.KindConfig))

	require.NoError(t, os.WriteFile(path, []byte(`{"analysis_settings": {"features": ["faces"]}}`), 0o644))
	_, err = Load()
	require.True(t, entity.IsKind(err, entity.KindConfig))
}

func TestConfig_Helpers(t *testing.T) {
	setBaseEnv(t, filepath.Join(t.TempDir(), "config.json"))
	t.Setenv("PORT", "9090")
	t.Setenv("CREDENTIAL_METHOD", "keyvault")
	t.Setenv("KEY_VAULT_URL", "https://secretsmanager.eu-west-1.amazonaws.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.HTTPAddr)
	require.Equal(t, entity.VaultCredentials("https://secretsmanager.eu-west-1.amazonaws.com"), cfg.CredentialSource())

	dests, err := cfg.Destinations()
	require.NoError(t, err)
	require.Equal(t, []entity.Destination{entity.DestinationLocalFile, entity.DestinationRemoteContainer}, dests)
	require.Equal(t, 30.0, cfg.VisionTimeout().Seconds())
}
