package entity

// ImageInfo результат локальной проверки изображения
type ImageInfo struct {
	Format   string // формат по содержимому (jpeg, png, ...)
	MIMEType string // MIME-тип по сигнатуре
	Width    int    // ширина в пикселях
	Height   int    // высота в пикселях
	Size     int    // размер в байтах
}
