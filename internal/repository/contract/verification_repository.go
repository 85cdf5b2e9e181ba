package contract

import (
	"context"
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/repository/specification"

	"github.com/google/uuid"
)

// MonthlyCount is one month of queue decisions.
type MonthlyCount struct {
	Month    time.Time
	Approved int
	Rejected int
	Pending  int
}

type TypeCount struct {
	DocumentType string
	Count        int
}

type VerificationRepository interface {
	Create(ctx context.Context, v *entity.Verification) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.VerificationStatus, verifiedAt *time.Time) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Verification, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Verification, error)
	Count(ctx context.Context, specs ...specification.Specification) (int64, error)
	StatsByUser(ctx context.Context, userId uuid.UUID) (entity.VerificationStats, error)
	// NextSequence returns the next free serial number for codes issued in year.
	NextSequence(ctx context.Context, year int) (int, error)

	CreateAuditEvents(ctx context.Context, events []*entity.AuditEvent) error
	FindAuditEvents(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditEvent, error)

	CreateRequest(ctx context.Context, r *entity.VerificationRequest) error
	UpdateRequestStatus(ctx context.Context, id uuid.UUID, status entity.RequestStatus, reviewer uuid.UUID) error
	FindRequest(ctx context.Context, specs ...specification.Specification) (*entity.VerificationRequest, error)
	FindRequests(ctx context.Context, specs ...specification.Specification) ([]*entity.VerificationRequest, error)
	CountRequests(ctx context.Context, specs ...specification.Specification) (int64, error)

	MonthlyRequestCounts(ctx context.Context, institutionId uuid.UUID, since time.Time) ([]MonthlyCount, error)
	RequestTypeCounts(ctx context.Context, institutionId uuid.UUID, since time.Time) ([]TypeCount, error)
	// AvgDecisionDays averages submitted-to-decided time of decided requests,
	// grouped by ISO week start.
	AvgDecisionDays(ctx context.Context, institutionId uuid.UUID, since time.Time) (map[time.Time]float64, error)
}
