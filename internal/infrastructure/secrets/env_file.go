package secrets

import (
	"strings"

	"github.com/joho/godotenv"
)

// ReadEnvFile читает key=value файл с секретами. Строки с # игнорируются.
// Ключи приводятся к нижнему регистру.
func ReadEnvFile(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}

	out := make(map[string]string, len(values))
	for k, v := range values {
		out[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	return out, nil
}
