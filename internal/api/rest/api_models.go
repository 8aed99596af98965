package rest

import (
	"time"

	app "image-analyzer/internal/application"
	"image-analyzer/internal/domain/entity"
)

type healthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

type containerInfo struct {
	CredentialMethod string `json:"credential_method"`
	KeyVaultURLSet   bool   `json:"key_vault_url_set"`
	Addr             string `json:"addr"`
}

type configurationInfo struct {
	ConfigFile    string               `json:"config_file"`
	InputLocation string               `json:"input_location"`
	Destinations  []entity.Destination `json:"destinations"`
}

type statusResponse struct {
	Status        string            `json:"status"`
	Analysis      string            `json:"analysis"`
	Container     containerInfo     `json:"container_info"`
	Configuration configurationInfo `json:"configuration"`
	LastRun       app.ServiceStatus `json:"last_run"`
	Timestamp     time.Time         `json:"timestamp"`
}

type sinkInfo struct {
	Destination entity.Destination `json:"destination"`
	Location    string             `json:"location,omitempty"`
	Error       string             `json:"error,omitempty"`
}

type analyzeResponse struct {
	Status            string           `json:"status"`
	Message           string           `json:"message"`
	RunID             string           `json:"run_id,omitempty"`
	TotalImages       int              `json:"total_images,omitempty"`
	ImagesWithTargets int              `json:"images_with_targets,omitempty"`
	Failures          int              `json:"failures,omitempty"`
	Saved             []sinkInfo       `json:"saved,omitempty"`
	Error             string           `json:"error,omitempty"`
	ErrorKind         entity.ErrorKind `json:"error_kind,omitempty"`
	Timestamp         time.Time        `json:"timestamp"`
}

func newAnalyzeResponse(res *app.RunResult, now time.Time) analyzeResponse {
	out := analyzeResponse{
		Status:            "success",
		Message:           "Image analysis completed",
		RunID:             res.Report.Metadata.RunID,
		TotalImages:       res.Report.Metadata.TotalImages,
		ImagesWithTargets: res.Report.Metadata.ImagesWithTargets,
		Failures:          len(res.Report.Failures),
		Timestamp:         now,
	}
	for _, s := range res.Sinks {
		info := sinkInfo{Destination: s.Destination, Location: s.Location}
		if s.Err != nil {
			info.Error = s.Err.Error()
			out.Status = "partial"
			out.Message = "Image analysis completed, some results were not saved"
		}
		out.Saved = append(out.Saved, info)
	}
	return out
}

type resultsResponse struct {
	Metadata            entity.ReportMetadata    `json:"analysis_metadata"`
	Summary             entity.SummaryStatistics `json:"summary_statistics"`
	SampleResults       []entity.AnalysisRecord  `json:"sample_results"`
	TotalDetailedResult int                      `json:"total_detailed_results"`
	TotalFailures       int                      `json:"total_failures"`
}

type infoResponse struct {
	Service     string            `json:"service"`
	Version     string            `json:"version"`
	Endpoints   map[string]string `json:"endpoints"`
	Description string            `json:"description"`
}
