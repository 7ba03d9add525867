package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/heyrat/heyrat-server/internal/corpus"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// CorpusHealth describes the loaded corpus snapshot.
type CorpusHealth struct {
	ComponentHealth
	LoadedAt time.Time     `json:"loadedAt,omitzero" doc:"When the current snapshot was loaded"`
	Stats    *corpus.Stats `json:"stats,omitempty" doc:"Snapshot size"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
	Corpus     CorpusHealth               `json:"corpus" doc:"Corpus snapshot status"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := make(map[string]ComponentHealth)
	overall := "healthy"

	merge := func(status string) {
		switch {
		case status == "unhealthy":
			overall = "unhealthy"
		case status == "degraded" && overall == "healthy":
			overall = "degraded"
		}
	}

	dbHealth := s.checkDatabase(ctx)
	components["database"] = dbHealth
	merge(dbHealth.Status)

	searchHealth := s.checkSearchIndex()
	components["search"] = searchHealth
	merge(searchHealth.Status)

	corpusHealth := s.checkCorpus()
	merge(corpusHealth.Status)

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
			Corpus:     corpusHealth,
		},
	}, nil
}

// checkDatabase pings SQLite.
func (s *Server) checkDatabase(ctx context.Context) ComponentHealth {
	if s.store == nil {
		return ComponentHealth{Status: "degraded", Message: "database not configured"}
	}

	start := time.Now()
	err := s.store.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Error("health check database ping failed", "error", err)
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "database ping failed",
		}
	}
	return ComponentHealth{Status: "healthy", Latency: latency.String()}
}

// checkSearchIndex verifies the Bleve index is accessible.
func (s *Server) checkSearchIndex() ComponentHealth {
	if s.search == nil {
		return ComponentHealth{Status: "degraded", Message: "search index not configured"}
	}

	start := time.Now()
	docCount, err := s.search.DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  "unhealthy",
			Latency: latency.String(),
			Message: "search index unreachable",
		}
	}
	if docCount == 0 {
		return ComponentHealth{
			Status:  "degraded",
			Latency: latency.String(),
			Message: "search index empty",
		}
	}
	return ComponentHealth{
		Status:  "healthy",
		Latency: latency.String(),
		Message: fmt.Sprintf("%d documents", docCount),
	}
}

func (s *Server) checkCorpus() CorpusHealth {
	if s.library == nil {
		return CorpusHealth{ComponentHealth: ComponentHealth{Status: "degraded", Message: "corpus not configured"}}
	}

	snap := s.library.Snapshot()
	stats := snap.Stats()
	h := CorpusHealth{
		ComponentHealth: ComponentHealth{Status: "healthy"},
		LoadedAt:        snap.LoadedAt,
		Stats:           &stats,
	}
	if stats.Poets == 0 {
		h.Status = "degraded"
		h.Message = "corpus is empty"
	}
	return h
}
