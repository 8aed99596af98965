package vision

import (
	"encoding/json"
	"strings"

	"image-analyzer/internal/domain/entity"
)

// analyzeResponse тело ответа imageanalysis:analyze. Все секции необязательны.
type analyzeResponse struct {
	ModelVersion  string         `json:"modelVersion"`
	CaptionResult *captionResult `json:"captionResult"`
	TagsResult    *tagsResult    `json:"tagsResult"`
	ObjectsResult *objectsResult `json:"objectsResult"`
	Metadata      *imageMetadata `json:"metadata"`
}

type captionResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

type wireTag struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

type tagsResult struct {
	Values []wireTag `json:"values"`
}

type wireBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type wireObject struct {
	BoundingBox wireBox   `json:"boundingBox"`
	Tags        []wireTag `json:"tags"`
}

type objectsResult struct {
	Values []wireObject `json:"values"`
}

type imageMetadata struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// decodeResponse разбирает тело ответа и приводит его к entity.AnalysisResponse.
// Метка объекта берётся из первого тега объекта.
func decodeResponse(body []byte) (*entity.AnalysisResponse, error) {
	var wire analyzeResponse
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}

	resp := &entity.AnalysisResponse{
		ModelVersion: wire.ModelVersion,
		Tags:         make([]entity.Tag, 0),
		Objects:      make([]entity.DetectedObject, 0),
	}

	if wire.CaptionResult != nil {
		resp.Caption = strings.TrimSpace(wire.CaptionResult.Text)
		resp.CaptionConfidence = wire.CaptionResult.Confidence
	}

	if wire.TagsResult != nil {
		for _, t := range wire.TagsResult.Values {
			if t.Name == "" {
				continue
			}
			resp.Tags = append(resp.Tags, entity.Tag{Name: t.Name, Confidence: t.Confidence})
		}
	}

	if wire.ObjectsResult != nil {
		for _, o := range wire.ObjectsResult.Values {
			if len(o.Tags) == 0 {
				continue
			}
			resp.Objects = append(resp.Objects, entity.DetectedObject{
				Label:      o.Tags[0].Name,
				Confidence: o.Tags[0].Confidence,
				BoundingBox: entity.BoundingBox{
					X: o.BoundingBox.X,
					Y: o.BoundingBox.Y,
					W: o.BoundingBox.W,
					H: o.BoundingBox.H,
				},
			})
		}
	}

	if wire.Metadata != nil {
		resp.Width = wire.Metadata.Width
		resp.Height = wire.Metadata.Height
	}

	return resp, nil
}
