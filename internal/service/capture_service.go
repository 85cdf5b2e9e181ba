package service

import (
	"context"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/pkg/capture"

	"github.com/google/uuid"
)

type ICaptureService interface {
	Acquire(ctx context.Context, userId uuid.UUID, req *dto.AcquireCaptureRequest) (*capture.Lease, error)
	Renew(ctx context.Context, userId uuid.UUID, leaseId string) (*capture.Lease, error)
	Release(ctx context.Context, userId uuid.UUID, leaseId string) error
	Current(ctx context.Context, userId uuid.UUID) (*capture.Lease, bool)
	PermissionError(ctx context.Context, userId uuid.UUID, req *dto.CapturePermissionErrorRequest) *dto.CapturePermissionErrorResponse
}

type captureService struct {
	leases *capture.Manager
	logger logger.ILogger
}

func NewCaptureService(leases *capture.Manager, log logger.ILogger) ICaptureService {
	return &captureService{leases: leases, logger: log}
}

// Acquire ties the lease to the process lifetime, not the request that
// asked for it.
func (s *captureService) Acquire(ctx context.Context, userId uuid.UUID, req *dto.AcquireCaptureRequest) (*capture.Lease, error) {
	return s.leases.Acquire(context.Background(), userId.String(), capture.View(req.View))
}

func (s *captureService) Renew(ctx context.Context, userId uuid.UUID, leaseId string) (*capture.Lease, error) {
	return s.leases.Renew(userId.String(), leaseId)
}

func (s *captureService) Release(ctx context.Context, userId uuid.UUID, leaseId string) error {
	return s.leases.Release(userId.String(), leaseId)
}

func (s *captureService) Current(ctx context.Context, userId uuid.UUID) (*capture.Lease, bool) {
	return s.leases.Current(userId.String())
}

// PermissionError only reports; submission state is left untouched.
func (s *captureService) PermissionError(ctx context.Context, userId uuid.UUID, req *dto.CapturePermissionErrorRequest) *dto.CapturePermissionErrorResponse {
	s.logger.Warn("CAPTURE", "Media acquisition failed", map[string]interface{}{"user_id": userId, "reason": req.Reason})
	return &dto.CapturePermissionErrorResponse{Message: capture.PermissionMessage(req.Reason)}
}
