package docqa

import (
	"context"
	"sort"

	"docqa/src/fsutil"
)

type ComponentStatus string

const (
	StatusUp   ComponentStatus = "up"
	StatusDown ComponentStatus = "down"
)

type HealthStatus struct {
	Status         string                     `json:"status"`
	Sessions       int                        `json:"sessions"`
	PendingUploads fsutil.Stat                `json:"pending_uploads"`
	Components     map[string]ComponentStatus `json:"components"`
}

type SystemService struct {
	pipeline *Pipeline
	files    fsutil.FileStore
	pingers  map[string]Pinger
}

// NewSystemService reports on the pipeline's store and upload directory and
// pings every named component.
func NewSystemService(pipeline *Pipeline, files fsutil.FileStore, pingers map[string]Pinger) *SystemService {
	return &SystemService{
		pipeline: pipeline,
		files:    files,
		pingers:  pingers,
	}
}

func (s *SystemService) CheckHealth(ctx context.Context) (*HealthStatus, error) {
	status := &HealthStatus{
		Status:     "healthy",
		Sessions:   s.pipeline.Store().Len(),
		Components: make(map[string]ComponentStatus, len(s.pingers)),
	}

	pending, err := s.files.GetFileStats(s.pipeline.UploadDir())
	if err != nil {
		return nil, err
	}
	status.PendingUploads = pending

	names := make([]string, 0, len(s.pingers))
	for name := range s.pingers {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		status.Components[name] = StatusUp
		if err := s.pingers[name].Ping(ctx); err != nil {
			status.Components[name] = StatusDown
			status.Status = "unhealthy"
		}
	}

	return status, nil
}
