package entity

import "time"

// Tag метка изображения с уверенностью
type Tag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// BoundingBox область объекта на изображении
type BoundingBox struct {
	X int `json:"x"` // координата X левого верхнего угла
	Y int `json:"y"` // координата Y левого верхнего угла
	W int `json:"w"` // ширина в пикселях
	H int `json:"h"` // высота в пикселях
}

// Center возвращает координаты центра области
func (b BoundingBox) Center() (x, y int) {
	return b.X + b.W/2, b.Y + b.H/2
}

// DetectedObject найденный объект
type DetectedObject struct {
	Label       string      `json:"object"`
	Confidence  float64     `json:"confidence"`
	BoundingBox BoundingBox `json:"bounding_box"`
}

// AnalysisRequest одно изображение для анализа
type AnalysisRequest struct {
	Filename string
	Data     []byte
}

// AnalysisResponse нормализованный ответ сервиса анализа.
// Отсутствующие поля заменяются пустыми значениями.
type AnalysisResponse struct {
	Caption           string
	CaptionConfidence float64
	Tags              []Tag
	Objects           []DetectedObject
	Width             int
	Height            int
	ModelVersion      string
}

// MatchSource откуда взят совпавший термин
type MatchSource string

const (
	MatchSourceTag    MatchSource = "tag"
	MatchSourceObject MatchSource = "object"
)

// TargetMatch совпадение термина с ключевым словом
type TargetMatch struct {
	Keyword    string      `json:"keyword"`
	Term       string      `json:"term"`
	Source     MatchSource `json:"source"`
	Confidence float64     `json:"confidence"`
}

// AnalysisRecord результат анализа одного изображения
type AnalysisRecord struct {
	Filename          string           `json:"filename"`
	AnalyzedAt        time.Time        `json:"analyzed_at"`
	Caption           string           `json:"caption"`
	CaptionConfidence float64          `json:"confidence"`
	Tags              []Tag            `json:"tags"`
	Objects           []DetectedObject `json:"objects"`
	MatchedKeywords   []string         `json:"target_objects_detected"`
	Matches           []TargetMatch    `json:"target_matches"`
}

// HasTargets сообщает, найдено ли хотя бы одно ключевое слово
func (r AnalysisRecord) HasTargets() bool {
	return len(r.MatchedKeywords) > 0
}

// FailureRecord изображение, которое не удалось проанализировать
type FailureRecord struct {
	Filename string    `json:"filename"`
	Kind     ErrorKind `json:"error_kind"`
	Message  string    `json:"message"`
}

// NewFailure строит запись об ошибке по err.
func NewFailure(filename string, err error) FailureRecord {
	return FailureRecord{
		Filename: filename,
		Kind:     KindOf(err),
		Message:  err.Error(),
	}
}

// Outcome итог обработки одного изображения: заполнено ровно одно поле
type Outcome struct {
	Record  *AnalysisRecord
	Failure *FailureRecord
}

// Succeeded сообщает, успешен ли результат
func (o Outcome) Succeeded() bool {
	return o.Record != nil
}
