package storage

import (
	"path"
	"strings"
)

// imageExtensions поддерживаемые расширения изображений
var imageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".bmp":  {},
	".tiff": {},
	".gif":  {},
}

// IsImageName проверяет расширение без учёта регистра
func IsImageName(name string) bool {
	_, ok := imageExtensions[strings.ToLower(path.Ext(name))]
	return ok
}
