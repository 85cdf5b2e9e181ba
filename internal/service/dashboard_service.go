package service

import (
	"context"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const (
	recentVerificationLimit = 5
	recentActivityLimit     = 10
)

type IDashboardService interface {
	Overview(ctx context.Context, userId uuid.UUID) (*dto.DashboardResponse, error)
}

type dashboardService struct {
	uowFactory unitofwork.RepositoryFactory
}

func NewDashboardService(uowFactory unitofwork.RepositoryFactory) IDashboardService {
	return &dashboardService{uowFactory: uowFactory}
}

func (s *dashboardService) Overview(ctx context.Context, userId uuid.UUID) (*dto.DashboardResponse, error) {
	repo := s.uowFactory.NewUnitOfWork(ctx).VerificationRepository()

	stats, err := repo.StatsByUser(ctx, userId)
	if err != nil {
		return nil, err
	}
	recent, err := repo.FindAll(ctx,
		specification.UserOwnedBy{UserID: userId},
		specification.OrderBy{Field: "submitted_at", Desc: true},
		specification.Pagination{Limit: recentVerificationLimit},
	)
	if err != nil {
		return nil, err
	}

	res := &dto.DashboardResponse{
		Stats:               dto.DashboardStats(stats),
		RecentVerifications: make([]dto.VerificationResponse, len(recent)),
		RecentActivity:      []dto.ActivityResponse{},
	}
	for i, v := range recent {
		res.RecentVerifications[i] = toVerificationResponse(v)
	}

	all, err := repo.FindAll(ctx, specification.UserOwnedBy{UserID: userId})
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return res, nil
	}
	byId := make(map[uuid.UUID]*entity.Verification, len(all))
	ids := make([]uuid.UUID, len(all))
	for i, v := range all {
		byId[v.Id] = v
		ids[i] = v.Id
	}
	trail, err := repo.FindAuditEvents(ctx,
		specification.ByVerifications{VerificationIDs: ids},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: recentActivityLimit},
	)
	if err != nil {
		return nil, err
	}
	for _, e := range trail {
		v := byId[e.VerificationId]
		if v == nil {
			continue
		}
		res.RecentActivity = append(res.RecentActivity, dto.ActivityResponse{
			Id:               e.Id,
			VerificationCode: v.Code,
			DocumentName:     v.DocumentName,
			Type:             string(e.Type),
			Title:            e.Title,
			Description:      e.Description,
			Timestamp:        e.CreatedAt,
		})
	}
	return res, nil
}
