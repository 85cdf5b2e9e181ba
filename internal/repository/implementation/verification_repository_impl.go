package implementation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/mapper"
	"academic-auth-be/internal/model"
	"academic-auth-be/internal/repository/contract"
	"academic-auth-be/internal/repository/scope"
	"academic-auth-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type VerificationRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.VerificationMapper
}

func NewVerificationRepository(db *gorm.DB) contract.VerificationRepository {
	return &VerificationRepositoryImpl{db: db, mapper: mapper.NewVerificationMapper()}
}

func (r *VerificationRepositoryImpl) Create(ctx context.Context, v *entity.Verification) error {
	m := r.mapper.ToModel(v)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*v = *r.mapper.ToEntity(m)
	return nil
}

func (r *VerificationRepositoryImpl) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.VerificationStatus, verifiedAt *time.Time) error {
	res := r.db.WithContext(ctx).Model(&model.Verification{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "verified_at": verifiedAt})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *VerificationRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Verification, error) {
	var m model.Verification
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *VerificationRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Verification, error) {
	var ms []*model.Verification
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(ms), nil
}

func (r *VerificationRepositoryImpl) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx).Model(&model.Verification{}), specs...).Count(&count).Error
	return count, err
}

func (r *VerificationRepositoryImpl) StatsByUser(ctx context.Context, userId uuid.UUID) (entity.VerificationStats, error) {
	var rows []struct {
		Status string
		Count  int64
	}
	err := r.db.WithContext(ctx).Model(&model.Verification{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userId).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return entity.VerificationStats{}, err
	}

	var stats entity.VerificationStats
	for _, row := range rows {
		stats.Total += row.Count
		switch entity.VerificationStatus(row.Status) {
		case entity.VerificationVerified:
			stats.Verified = row.Count
		case entity.VerificationProcessing:
			stats.Processing = row.Count
		case entity.VerificationPending:
			stats.Pending = row.Count
		case entity.VerificationRejected:
			stats.Rejected = row.Count
		}
	}
	return stats, nil
}

func (r *VerificationRepositoryImpl) NextSequence(ctx context.Context, year int) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Verification{}).
		Where("code LIKE ?", fmt.Sprintf("VER-%d-%%", year)).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count) + 1, nil
}

func (r *VerificationRepositoryImpl) CreateAuditEvents(ctx context.Context, events []*entity.AuditEvent) error {
	if len(events) == 0 {
		return nil
	}
	ms := make([]*model.AuditEvent, len(events))
	for i, e := range events {
		ms[i] = r.mapper.AuditToModel(e)
	}
	if err := r.db.WithContext(ctx).Create(&ms).Error; err != nil {
		return err
	}
	for i, m := range ms {
		*events[i] = *r.mapper.AuditToEntity(m)
	}
	return nil
}

func (r *VerificationRepositoryImpl) FindAuditEvents(ctx context.Context, specs ...specification.Specification) ([]*entity.AuditEvent, error) {
	var ms []*model.AuditEvent
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.AuditEvent, len(ms))
	for i, m := range ms {
		out[i] = r.mapper.AuditToEntity(m)
	}
	return out, nil
}

func (r *VerificationRepositoryImpl) CreateRequest(ctx context.Context, req *entity.VerificationRequest) error {
	m := r.mapper.RequestToModel(req)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*req = *r.mapper.RequestToEntity(m)
	return nil
}

func (r *VerificationRepositoryImpl) UpdateRequestStatus(ctx context.Context, id uuid.UUID, status entity.RequestStatus, reviewer uuid.UUID) error {
	res := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": string(status), "reviewed_by": reviewer})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *VerificationRepositoryImpl) FindRequest(ctx context.Context, specs ...specification.Specification) (*entity.VerificationRequest, error) {
	var m model.VerificationRequest
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.RequestToEntity(&m), nil
}

func (r *VerificationRepositoryImpl) FindRequests(ctx context.Context, specs ...specification.Specification) ([]*entity.VerificationRequest, error) {
	var ms []*model.VerificationRequest
	query := applySpecifications(r.db.WithContext(ctx), specs...).Scopes(scope.OrderBySubmittedDesc)
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.VerificationRequest, len(ms))
	for i, m := range ms {
		out[i] = r.mapper.RequestToEntity(m)
	}
	return out, nil
}

func (r *VerificationRepositoryImpl) CountRequests(ctx context.Context, specs ...specification.Specification) (int64, error) {
	var count int64
	err := applySpecifications(r.db.WithContext(ctx).Model(&model.VerificationRequest{}), specs...).Count(&count).Error
	return count, err
}

func (r *VerificationRepositoryImpl) MonthlyRequestCounts(ctx context.Context, institutionId uuid.UUID, since time.Time) ([]contract.MonthlyCount, error) {
	var rows []struct {
		Month    time.Time
		Approved int
		Rejected int
		Pending  int
	}
	err := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Select(`date_trunc('month', submitted_at) AS month,
			COUNT(*) FILTER (WHERE status = 'approved') AS approved,
			COUNT(*) FILTER (WHERE status = 'rejected') AS rejected,
			COUNT(*) FILTER (WHERE status IN ('pending', 'in-review')) AS pending`).
		Where("institution_id = ? AND submitted_at >= ?", institutionId, since).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]contract.MonthlyCount, len(rows))
	for i, row := range rows {
		out[i] = contract.MonthlyCount(row)
	}
	return out, nil
}

func (r *VerificationRepositoryImpl) RequestTypeCounts(ctx context.Context, institutionId uuid.UUID, since time.Time) ([]contract.TypeCount, error) {
	var rows []contract.TypeCount
	err := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Select("document_type, COUNT(*) AS count").
		Where("institution_id = ? AND submitted_at >= ?", institutionId, since).
		Group("document_type").
		Order("count DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *VerificationRepositoryImpl) AvgDecisionDays(ctx context.Context, institutionId uuid.UUID, since time.Time) (map[time.Time]float64, error) {
	var rows []struct {
		Week    time.Time
		AvgDays float64
	}
	err := r.db.WithContext(ctx).Model(&model.VerificationRequest{}).
		Select(`date_trunc('week', submitted_at) AS week,
			AVG(EXTRACT(EPOCH FROM (updated_at - submitted_at)) / 86400.0) AS avg_days`).
		Where("institution_id = ? AND submitted_at >= ? AND status IN ?", institutionId, since,
			[]string{string(entity.RequestApproved), string(entity.RequestRejected)}).
		Group("week").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]float64, len(rows))
	for _, row := range rows {
		out[row.Week] = row.AvgDays
	}
	return out, nil
}
