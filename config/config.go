package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"image-analyzer/internal/domain/entity"
)

// Mode режим запуска процесса
type Mode string

const (
	ModeBatch  Mode = "batch"  // один пакетный запуск и выход
	ModeBot    Mode = "bot"    // telegram-бот оператора
	ModeServer Mode = "server" // HTTP-интерфейс
)

// Config настройки процесса: окружение плюс файл конфигурации
type Config struct {
	Mode             Mode
	CredentialMethod entity.CredentialMethod
	KeyVaultURL      string
	CredentialsFile  string
	ConfigFile       string
	TelegramToken    string
	HTTPAddr         string
	LogLevel         slog.Level

	File FileConfig
}

// FileConfig содержимое файла конфигурации
type FileConfig struct {
	AnalysisSettings AnalysisSection   `yaml:"analysis_settings" json:"analysis_settings"`
	Containers       ContainersSection `yaml:"containers" json:"containers"`
	Input            InputSection      `yaml:"input" json:"input"`
	Output           OutputSection     `yaml:"output" json:"output"`
	Vision           VisionSection     `yaml:"vision" json:"vision"`
}

type AnalysisSection struct {
	TargetKeywords      []string `yaml:"target_keywords" json:"target_keywords"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold" json:"confidence_threshold"`
	MaxTags             int      `yaml:"max_tags" json:"max_tags"`
	Features            []string `yaml:"features" json:"features"`
}

// ContainersSection имена удалённых контейнеров: bucket или s3://bucket/prefix
type ContainersSection struct {
	InputContainer   string `yaml:"input_container" json:"input_container"`
	ResultsContainer string `yaml:"results_container" json:"results_container"`
}

// InputSection если задан local_dir, изображения читаются с диска
type InputSection struct {
	LocalDir string `yaml:"local_dir" json:"local_dir"`
}

type OutputSection struct {
	LocalDir     string   `yaml:"local_dir" json:"local_dir"`
	Destinations []string `yaml:"destinations" json:"destinations"`
}

type VisionSection struct {
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
	MaxAttempts    int `yaml:"max_attempts" json:"max_attempts"`
	Workers        int `yaml:"workers" json:"workers"`
	MaxInFlight    int `yaml:"max_in_flight" json:"max_in_flight"`
}

// DefaultFileConfig содержимое файла, который создаётся при его отсутствии
func DefaultFileConfig() FileConfig {
	def := entity.DefaultAnalysisSettings()
	features := make([]string, len(def.Features))
	for i, f := range def.Features {
		features[i] = string(f)
	}

	return FileConfig{
		AnalysisSettings: AnalysisSection{
			TargetKeywords:      def.TargetKeywords,
			ConfidenceThreshold: def.ConfidenceThreshold,
			MaxTags:             def.MaxTags,
			Features:            features,
		},
		Containers: ContainersSection{
			InputContainer:   "input-images",
			ResultsContainer: "analysis-results",
		},
		Output: OutputSection{
			LocalDir:     ".",
			Destinations: []string{string(entity.DestinationLocalFile), string(entity.DestinationRemoteContainer)},
		},
		Vision: VisionSection{
			TimeoutSeconds: 30,
			MaxAttempts:    4,
			Workers:        1,
			MaxInFlight:    4,
		},
	}
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	method, err := entity.ParseCredentialMethod(getEnv("CREDENTIAL_METHOD", string(entity.CredentialMethodVault)))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode:             Mode(strings.ToLower(getEnv("APP_MODE", string(ModeBatch)))),
		CredentialMethod: method,
		KeyVaultURL:      os.Getenv("KEY_VAULT_URL"),
		CredentialsFile:  getEnv("CREDENTIALS_FILE", "creds.txt"),
		ConfigFile:       getEnv("CONFIG_FILE", "config.json"),
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		HTTPAddr:         httpAddr(),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(getEnv("LOG_LEVEL", "info"))); err != nil {
		return nil, configError("LOG_LEVEL", err)
	}

	file, err := LoadFile(cfg.ConfigFile)
	if err != nil {
		return nil, err
	}
	cfg.File = file

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile читает файл конфигурации. Если файла нет, записывает значения по умолчанию.
// JSON разбирается тем же YAML-парсером.
func LoadFile(path string) (FileConfig, error) {
	cfg := DefaultFileConfig()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		if err := writeDefault(path, cfg); err != nil {
			return FileConfig{}, err
		}
		slog.Info("default configuration created", "path", path)
		return cfg, nil
	}
	if err != nil {
		return FileConfig{}, configError(path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return FileConfig{}, configError(path, err)
	}
	return cfg, nil
}

func writeDefault(path string, cfg FileConfig) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(cfg)
	default:
		data, err = json.MarshalIndent(cfg, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return configError(path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return configError(path, err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return configError(path, err)
	}
	return nil
}

// Validate проверяет согласованность настроек
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeBatch, ModeServer:
	case ModeBot:
		if c.TelegramToken == "" {
			return entity.NewError(entity.KindConfig, "config.validate", "TELEGRAM_TOKEN is required in bot mode")
		}
	default:
		return entity.NewError(entity.KindConfig, "config.validate",
			fmt.Sprintf("APP_MODE must be one of batch, bot, server, got %q", c.Mode))
	}

	if c.CredentialMethod == entity.CredentialMethodVault && c.KeyVaultURL == "" {
		return entity.NewError(entity.KindConfig, "config.validate",
			"KEY_VAULT_URL is required when CREDENTIAL_METHOD is keyvault")
	}

	if _, err := c.AnalysisSettings(); err != nil {
		return err
	}
	if _, err := c.Destinations(); err != nil {
		return err
	}

	v := c.File.Vision
	if v.TimeoutSeconds <= 0 || v.MaxAttempts <= 0 || v.Workers <= 0 || v.MaxInFlight <= 0 {
		return entity.NewError(entity.KindConfig, "config.validate",
			"vision timeout_seconds, max_attempts, workers and max_in_flight must be positive")
	}
	if c.File.Input.LocalDir == "" && c.File.Containers.InputContainer == "" {
		return entity.NewError(entity.KindConfig, "config.validate", "input_container or input.local_dir is required")
	}
	return nil
}

// AnalysisSettings переводит секцию файла в неизменяемые настройки анализа
func (c *Config) AnalysisSettings() (entity.AnalysisSettings, error) {
	sec := c.File.AnalysisSettings

	features := make([]entity.Feature, 0, len(sec.Features))
	for _, name := range sec.Features {
		f, err := entity.ParseFeature(name)
		if err != nil {
			return entity.AnalysisSettings{}, err
		}
		features = append(features, f)
	}

	keywords := make([]string, 0, len(sec.TargetKeywords))
	for _, k := range sec.TargetKeywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}

	settings := entity.AnalysisSettings{
		TargetKeywords:      keywords,
		ConfidenceThreshold: sec.ConfidenceThreshold,
		MaxTags:             sec.MaxTags,
		Features:            features,
	}
	if err := settings.Validate(); err != nil {
		return entity.AnalysisSettings{}, err
	}
	return settings, nil
}

// Destinations назначения отчёта
func (c *Config) Destinations() ([]entity.Destination, error) {
	out := make([]entity.Destination, 0, len(c.File.Output.Destinations))
	for _, name := range c.File.Output.Destinations {
		d, err := entity.ParseDestination(name)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// CredentialSource источник секретов по выбранному методу
func (c *Config) CredentialSource() entity.CredentialSource {
	if c.CredentialMethod == entity.CredentialMethodLocal {
		return entity.LocalCredentials(c.CredentialsFile)
	}
	return entity.VaultCredentials(c.KeyVaultURL)
}

// VisionTimeout таймаут одного запроса к сервису анализа
func (c *Config) VisionTimeout() time.Duration {
	return time.Duration(c.File.Vision.TimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func httpAddr() string {
	if addr := os.Getenv("HTTP_ADDR"); addr != "" {
		return addr
	}
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8000"
}

func configError(what string, err error) error {
	return &entity.Error{Kind: entity.KindConfig, Op: "config.load", Message: "invalid " + what, Cause: err}
}
