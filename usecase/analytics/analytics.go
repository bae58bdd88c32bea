package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/repository"
)

// ProjectReport is the project dashboard: the SQL aggregates plus the
// header numbers derived from the project record itself.
type ProjectReport struct {
	repository.ProjectAnalytics
	ProjectID   string  `json:"project_id"`
	Name        string  `json:"name"`
	MemberCount int     `json:"member_count"`
	Progress    float64 `json:"progress"`
}

type UseCase struct {
	analytics repository.AnalyticsRepository
	projects  repository.ProjectRepository
	logger    *zap.Logger
}

func New(analytics repository.AnalyticsRepository, projects repository.ProjectRepository, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		analytics: analytics,
		projects:  projects,
		logger:    logger,
	}
}

// Project builds the dashboard for a project the actor participates in.
func (uc *UseCase) Project(ctx context.Context, actor domain.Identity, projectID string) (*ProjectReport, error) {
	project, err := uc.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if !project.HasMember(actor.ID) {
		return nil, domain.ErrProjectNotFound
	}

	stats, err := uc.analytics.ProjectStats(ctx, projectID, time.Now())
	if err != nil {
		return nil, err
	}

	progress := 0.0
	if project.TotalTasks > 0 {
		progress = float64(project.CompletedTasks) / float64(project.TotalTasks) * 100
	}

	return &ProjectReport{
		ProjectAnalytics: *stats,
		ProjectID:        project.ID,
		Name:             project.Name,
		MemberCount:      project.MemberCount(),
		Progress:         progress,
	}, nil
}

// Me builds the actor's personal dashboard.
func (uc *UseCase) Me(ctx context.Context, actor domain.Identity) (*repository.UserAnalytics, error) {
	return uc.analytics.UserStats(ctx, actor.ID, time.Now())
}

// Platform builds the instance-wide rollup.
func (uc *UseCase) Platform(ctx context.Context) (*repository.PlatformAnalytics, error) {
	return uc.analytics.PlatformStats(ctx, time.Now())
}
