package service

import (
	"context"
	"time"

	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/repository"
)

// RecentWindow bounds the "recent" query count and the registrations
// chart.
const RecentWindow = 30 * 24 * time.Hour

type AdminService struct {
	stats repository.StatsRepository
	now   func() time.Time
}

func NewAdminService(stats repository.StatsRepository) *AdminService {
	return &AdminService{stats: stats, now: time.Now}
}

func (s *AdminService) Stats(ctx context.Context) (*models.UsageStats, error) {
	return s.stats.Usage(ctx, s.now().Add(-RecentWindow))
}

func (s *AdminService) Users(ctx context.Context) ([]models.UserActivity, error) {
	return s.stats.UserActivity(ctx)
}

func (s *AdminService) Registrations(ctx context.Context) ([]models.DailyRegistrations, error) {
	return s.stats.Registrations(ctx, s.now().Add(-RecentWindow))
}
