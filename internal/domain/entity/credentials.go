package entity

import (
	"fmt"
	"strings"
)

// CredentialMethod способ получения секретов
type CredentialMethod string

const (
	CredentialMethodLocal CredentialMethod = "local"    // key=value файл
	CredentialMethodVault CredentialMethod = "keyvault" // удалённое хранилище секретов
)

// ParseCredentialMethod принимает ровно два значения: local и keyvault.
func ParseCredentialMethod(s string) (CredentialMethod, error) {
	switch CredentialMethod(strings.ToLower(strings.TrimSpace(s))) {
	case CredentialMethodLocal:
		return CredentialMethodLocal, nil
	case CredentialMethodVault:
		return CredentialMethodVault, nil
	default:
		return "", NewError(KindConfig, "credentials.method",
			fmt.Sprintf("credential method must be %q or %q, got %q", CredentialMethodLocal, CredentialMethodVault, s))
	}
}

// CredentialSource описывает, откуда брать секреты: Local(path) или Vault(url)
type CredentialSource struct {
	Method   CredentialMethod
	Path     string // путь к файлу для local
	VaultURL string // адрес хранилища для keyvault
}

// LocalCredentials источник секретов из локального файла
func LocalCredentials(path string) CredentialSource {
	return CredentialSource{Method: CredentialMethodLocal, Path: path}
}

// VaultCredentials источник секретов из удалённого хранилища
func VaultCredentials(url string) CredentialSource {
	return CredentialSource{Method: CredentialMethodVault, VaultURL: url}
}

// Credentials секреты, необходимые для запуска. Не изменяются после получения.
type Credentials struct {
	StorageConnection string
	VisionEndpoint    string
	VisionKey         string
}

// String скрывает значения секретов, чтобы они не попали в лог.
func (c Credentials) String() string {
	return fmt.Sprintf("Credentials{storage=%s endpoint=%s key=%s}",
		mask(c.StorageConnection), c.VisionEndpoint, mask(c.VisionKey))
}

func mask(s string) string {
	if s == "" {
		return "<empty>"
	}
	return "***"
}
