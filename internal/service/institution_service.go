package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/pkg/blob"
	"academic-auth-be/pkg/docinfo"
	"academic-auth-be/pkg/events"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"github.com/google/uuid"
)

var (
	ErrInstitutionNotFound = errors.New("institution not found")
	ErrRequestNotFound     = errors.New("verification request not found")
	ErrDocumentNotFound    = errors.New("document not found")
)

type IInstitutionService interface {
	ListRequests(ctx context.Context, institutionId uuid.UUID, req *dto.ListRequestsRequest) ([]*dto.VerificationRequestResponse, int64, error)
	GetRequest(ctx context.Context, institutionId, id uuid.UUID) (*dto.RequestDetailResponse, error)
	UpdateRequest(ctx context.Context, reviewerId, institutionId uuid.UUID, req *dto.UpdateRequestStatusRequest) (*dto.VerificationRequestResponse, error)
	BulkUpdate(ctx context.Context, reviewerId, institutionId uuid.UUID, req *dto.BulkUpdateRequestStatusRequest) (*dto.BulkUpdateResponse, error)

	ListDocuments(ctx context.Context, institutionId uuid.UUID) ([]*dto.InstitutionDocumentResponse, error)
	UploadDocument(ctx context.Context, institutionId uuid.UUID, req *dto.UploadInstitutionDocumentRequest, file processing.File) (*dto.InstitutionDocumentResponse, error)
	DeleteDocument(ctx context.Context, institutionId, id uuid.UUID) error

	GetProfile(ctx context.Context, institutionId uuid.UUID) (*dto.InstitutionProfileResponse, error)
	UpdateProfile(ctx context.Context, institutionId uuid.UUID, req *dto.UpdateInstitutionProfileRequest) (*dto.InstitutionProfileResponse, error)

	Analytics(ctx context.Context, institutionId uuid.UUID, rangeStr string) (*provider.Analytics, error)
	Logs(ctx context.Context, req *dto.LogListRequest) ([]logger.LogEntry, error)
	Log(ctx context.Context, id string) (*logger.LogEntry, error)
}

type institutionService struct {
	uowFactory     unitofwork.RepositoryFactory
	blobs          blob.Store
	analytics      provider.AnalyticsSource
	eventPublisher events.Publisher
	logger         logger.ILogger
}

func NewInstitutionService(
	uowFactory unitofwork.RepositoryFactory,
	blobs blob.Store,
	analytics provider.AnalyticsSource,
	eventPublisher events.Publisher,
	log logger.ILogger,
) IInstitutionService {
	return &institutionService{
		uowFactory:     uowFactory,
		blobs:          blobs,
		analytics:      analytics,
		eventPublisher: eventPublisher,
		logger:         log,
	}
}

func (s *institutionService) ListRequests(ctx context.Context, institutionId uuid.UUID, req *dto.ListRequestsRequest) ([]*dto.VerificationRequestResponse, int64, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	filters := []specification.Specification{
		specification.ByInstitution{InstitutionID: institutionId},
		specification.ByStatus{Status: req.Status},
		specification.ByDocumentType{Type: req.Type},
	}
	total, err := uow.VerificationRepository().CountRequests(ctx, filters...)
	if err != nil {
		return nil, 0, err
	}
	list, err := uow.VerificationRepository().FindRequests(ctx, append(filters,
		specification.Pagination{Limit: limit, Offset: req.Offset})...)
	if err != nil {
		return nil, 0, err
	}

	codes, err := s.verificationCodes(ctx, uow, list)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*dto.VerificationRequestResponse, len(list))
	for i, r := range list {
		res := toRequestResponse(r)
		res.VerificationCode = codes[r.VerificationId]
		out[i] = &res
	}
	return out, total, nil
}

func (s *institutionService) verificationCodes(ctx context.Context, uow unitofwork.UnitOfWork, list []*entity.VerificationRequest) (map[uuid.UUID]string, error) {
	codes := make(map[uuid.UUID]string, len(list))
	if len(list) == 0 {
		return codes, nil
	}
	ids := make([]uuid.UUID, len(list))
	for i, r := range list {
		ids[i] = r.VerificationId
	}
	vs, err := uow.VerificationRepository().FindAll(ctx, specification.ByIDs{IDs: ids})
	if err != nil {
		return nil, err
	}
	for _, v := range vs {
		codes[v.Id] = v.Code
	}
	return codes, nil
}

func (s *institutionService) GetRequest(ctx context.Context, institutionId, id uuid.UUID) (*dto.RequestDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	r, err := s.findRequest(ctx, uow, institutionId, id)
	if err != nil {
		return nil, err
	}
	v, err := uow.VerificationRepository().FindOne(ctx, specification.ByID{ID: r.VerificationId})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVerificationNotFound
	}
	trail, err := uow.VerificationRepository().FindAuditEvents(ctx,
		specification.ByVerification{VerificationID: v.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}
	inst, err := uow.InstitutionRepository().FindOne(ctx, specification.ByID{ID: institutionId})
	if err != nil {
		return nil, err
	}

	res := &dto.RequestDetailResponse{
		Request: toRequestResponse(r),
		Verification: dto.VerificationDetailResponse{
			VerificationResponse: toVerificationResponse(v),
			ExtractedText:        v.ExtractedText,
			Fields:               v.Fields,
			Files:                v.Files,
			Institution:          institutionalDetails(v, inst),
			AuditTrail:           toAuditResponses(trail),
		},
	}
	res.Request.VerificationCode = v.Code
	return res, nil
}

func (s *institutionService) findRequest(ctx context.Context, uow unitofwork.UnitOfWork, institutionId, id uuid.UUID) (*entity.VerificationRequest, error) {
	r, err := uow.VerificationRepository().FindRequest(ctx,
		specification.ByID{ID: id},
		specification.ByInstitution{InstitutionID: institutionId},
	)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrRequestNotFound
	}
	return r, nil
}

func (s *institutionService) UpdateRequest(ctx context.Context, reviewerId, institutionId uuid.UUID, req *dto.UpdateRequestStatusRequest) (*dto.VerificationRequestResponse, error) {
	r, v, err := s.applyStatus(ctx, reviewerId, institutionId, req.Id, entity.RequestStatus(req.Status), req.Note)
	if err != nil {
		return nil, err
	}
	s.publishDecision(ctx, r, v)
	res := toRequestResponse(r)
	res.VerificationCode = v.Code
	return &res, nil
}

func (s *institutionService) BulkUpdate(ctx context.Context, reviewerId, institutionId uuid.UUID, req *dto.BulkUpdateRequestStatusRequest) (*dto.BulkUpdateResponse, error) {
	res := &dto.BulkUpdateResponse{Updated: []uuid.UUID{}}
	for _, id := range req.Ids {
		r, v, err := s.applyStatus(ctx, reviewerId, institutionId, id, entity.RequestStatus(req.Status), "")
		if err != nil {
			s.logger.Warn("INSTITUTION", "Bulk update skipped a request", map[string]interface{}{"request_id": id, "error": err.Error()})
			res.Failed = append(res.Failed, id)
			continue
		}
		s.publishDecision(ctx, r, v)
		res.Updated = append(res.Updated, id)
	}
	return res, nil
}

// applyStatus moves one queue entry and its verification to the status the
// decision implies, recording a review audit event.
func (s *institutionService) applyStatus(ctx context.Context, reviewerId, institutionId, id uuid.UUID, status entity.RequestStatus, note string) (*entity.VerificationRequest, *entity.Verification, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	r, err := s.findRequest(ctx, uow, institutionId, id)
	if err != nil {
		return nil, nil, err
	}
	reviewer, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: reviewerId})
	if err != nil {
		return nil, nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, nil, err
	}
	defer uow.Rollback()

	repo := uow.VerificationRepository()
	v, err := repo.FindOne(ctx, specification.ByID{ID: r.VerificationId})
	if err != nil {
		return nil, nil, err
	}
	if v == nil {
		return nil, nil, ErrVerificationNotFound
	}

	now := time.Now()
	if err := repo.UpdateRequestStatus(ctx, r.Id, status, reviewerId); err != nil {
		return nil, nil, err
	}
	vStatus := entity.StatusForRequest(status)
	var verifiedAt *time.Time
	if vStatus == entity.VerificationVerified {
		verifiedAt = &now
	}
	if err := repo.UpdateStatus(ctx, v.Id, vStatus, verifiedAt); err != nil {
		return nil, nil, err
	}

	performer := "Institution"
	if reviewer != nil {
		performer = reviewer.FullName()
	}
	description := fmt.Sprintf("Request marked %s", status)
	if note = strings.TrimSpace(note); note != "" {
		description += ": " + note
	}
	event := &entity.AuditEvent{
		Id:             uuid.New(),
		VerificationId: v.Id,
		Type:           entity.AuditReview,
		Title:          reviewTitle(status),
		Description:    description,
		Performer:      performer,
		Details:        map[string]string{"status": string(status), "previous": string(r.Status)},
		CreatedAt:      now,
	}
	if err := repo.CreateAuditEvents(ctx, []*entity.AuditEvent{event}); err != nil {
		return nil, nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, nil, err
	}

	r.Status = status
	r.ReviewedBy = &reviewerId
	r.UpdatedAt = now
	v.Status = vStatus
	v.VerifiedAt = verifiedAt

	s.logger.Info("INSTITUTION", "Request status updated", map[string]interface{}{
		"request_id": r.Id,
		"code":       v.Code,
		"status":     status,
	})
	return r, v, nil
}

func reviewTitle(status entity.RequestStatus) string {
	switch status {
	case entity.RequestApproved:
		return "Verification Approved"
	case entity.RequestRejected:
		return "Verification Rejected"
	case entity.RequestInReview:
		return "Review Started"
	}
	return "Returned to Queue"
}

func (s *institutionService) publishDecision(ctx context.Context, r *entity.VerificationRequest, v *entity.Verification) {
	var eventType string
	switch r.Status {
	case entity.RequestApproved:
		eventType = events.VerificationApproved
	case entity.RequestRejected:
		eventType = events.VerificationRejected
	default:
		return
	}
	if s.eventPublisher == nil {
		return
	}
	data := map[string]interface{}{
		"user_id":         v.UserId.String(),
		"code":            v.Code,
		"document_name":   v.DocumentName,
		"document_type":   v.DocumentType,
		"institution":     v.InstitutionName,
		"institution_id":  r.InstitutionId.String(),
		"status":          string(v.Status),
		"score":           v.Score,
		"entity_type":     "verification",
		"entity_id":       v.Id.String(),
		"verification_id": v.Id.String(),
	}
	if r.ReviewedBy != nil {
		data["actor_id"] = r.ReviewedBy.String()
	}
	if err := s.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		s.logger.Warn("INSTITUTION", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}

func (s *institutionService) ListDocuments(ctx context.Context, institutionId uuid.UUID) ([]*dto.InstitutionDocumentResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	docs, err := uow.InstitutionRepository().FindDocuments(ctx,
		specification.ByInstitution{InstitutionID: institutionId},
		specification.OrderBy{Field: "uploaded_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.InstitutionDocumentResponse, len(docs))
	for i, d := range docs {
		res := toDocumentResponse(d)
		out[i] = &res
	}
	return out, nil
}

func (s *institutionService) UploadDocument(ctx context.Context, institutionId uuid.UUID, req *dto.UploadInstitutionDocumentRequest, file processing.File) (*dto.InstitutionDocumentResponse, error) {
	if err := processing.ValidateFile(file.Name, file.Size); err != nil {
		return nil, err
	}
	info, err := docinfo.Inspect(file.Name, file.Data)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	doc := &entity.InstitutionDocument{
		Id:            id,
		InstitutionId: institutionId,
		Name:          file.Name,
		Type:          req.Type,
		BatchName:     strings.TrimSpace(req.BatchName),
		Description:   strings.TrimSpace(req.Description),
		Size:          info.Size,
		ContentType:   info.ContentType,
		Pages:         info.Pages,
		BlobKey:       fmt.Sprintf("institutions/%s/%s.%s", institutionId, id, strings.ToLower(info.Extension)),
		Status:        entity.InstitutionDocumentProcessing,
		UploadedAt:    time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.InstitutionRepository().CreateDocument(ctx, doc); err != nil {
		return nil, err
	}
	if err := s.blobs.Put(ctx, doc.BlobKey, file.Data, info.ContentType); err != nil {
		if delErr := uow.InstitutionRepository().DeleteDocument(ctx, doc.Id); delErr != nil {
			s.logger.Error("INSTITUTION", "Failed to remove document record", map[string]interface{}{"document_id": doc.Id, "error": delErr.Error()})
		}
		return nil, err
	}
	if err := uow.InstitutionRepository().UpdateDocumentStatus(ctx, doc.Id, entity.InstitutionDocumentActive); err != nil {
		return nil, err
	}
	doc.Status = entity.InstitutionDocumentActive

	s.logger.Info("INSTITUTION", "Document uploaded", map[string]interface{}{"document_id": doc.Id, "pages": doc.Pages})
	res := toDocumentResponse(doc)
	return &res, nil
}

func (s *institutionService) DeleteDocument(ctx context.Context, institutionId, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.InstitutionRepository().FindDocument(ctx,
		specification.ByID{ID: id},
		specification.ByInstitution{InstitutionID: institutionId},
	)
	if err != nil {
		return err
	}
	if doc == nil {
		return ErrDocumentNotFound
	}
	if err := s.blobs.Delete(ctx, doc.BlobKey); err != nil && !errors.Is(err, blob.ErrNotFound) {
		return err
	}
	return uow.InstitutionRepository().DeleteDocument(ctx, doc.Id)
}

func (s *institutionService) GetProfile(ctx context.Context, institutionId uuid.UUID) (*dto.InstitutionProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	inst, err := uow.InstitutionRepository().FindOne(ctx, specification.ByID{ID: institutionId})
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrInstitutionNotFound
	}
	res := toProfileResponse(inst)
	return &res, nil
}

func (s *institutionService) UpdateProfile(ctx context.Context, institutionId uuid.UUID, req *dto.UpdateInstitutionProfileRequest) (*dto.InstitutionProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	inst, err := uow.InstitutionRepository().FindOne(ctx, specification.ByID{ID: institutionId})
	if err != nil {
		return nil, err
	}
	if inst == nil {
		return nil, ErrInstitutionNotFound
	}

	inst.Name = strings.TrimSpace(req.Name)
	inst.Type = req.Type
	inst.EstablishedYear = req.EstablishedYear
	inst.Accreditation = req.Accreditation
	inst.Website = req.Website
	inst.Email = req.Email
	inst.Phone = req.Phone
	inst.RegistrarEmail = req.RegistrarEmail
	inst.Address = entity.Address(req.Address)
	inst.Settings = entity.InstitutionSettings(req.Settings)
	inst.UpdatedAt = time.Now()

	if err := uow.InstitutionRepository().Update(ctx, inst); err != nil {
		return nil, err
	}
	res := toProfileResponse(inst)
	return &res, nil
}

func (s *institutionService) Analytics(ctx context.Context, institutionId uuid.UUID, rangeStr string) (*provider.Analytics, error) {
	r, err := provider.ParseRange(rangeStr)
	if err != nil {
		return nil, err
	}
	a, err := s.analytics.Analytics(ctx, institutionId.String(), r)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *institutionService) Logs(ctx context.Context, req *dto.LogListRequest) ([]logger.LogEntry, error) {
	return s.logger.GetLogs(logger.LogQuery{
		Level:  req.Level,
		Module: req.Module,
		Limit:  req.Limit,
		Offset: req.Offset,
	})
}

func (s *institutionService) Log(ctx context.Context, id string) (*logger.LogEntry, error) {
	return s.logger.GetLogById(id)
}

func toRequestResponse(r *entity.VerificationRequest) dto.VerificationRequestResponse {
	return dto.VerificationRequestResponse{
		Id:             r.Id,
		VerificationId: r.VerificationId,
		StudentName:    r.StudentName,
		StudentID:      r.StudentID,
		DocumentName:   r.DocumentName,
		DocumentType:   r.DocumentType,
		Priority:       string(r.Priority),
		Status:         string(r.Status),
		ReviewedBy:     r.ReviewedBy,
		SubmittedAt:    r.SubmittedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func toDocumentResponse(d *entity.InstitutionDocument) dto.InstitutionDocumentResponse {
	return dto.InstitutionDocumentResponse{
		Id:          d.Id,
		Name:        d.Name,
		Type:        d.Type,
		BatchName:   d.BatchName,
		Description: d.Description,
		Size:        d.Size,
		ContentType: d.ContentType,
		Pages:       d.Pages,
		Status:      string(d.Status),
		UploadedAt:  d.UploadedAt,
	}
}

func toProfileResponse(inst *entity.Institution) dto.InstitutionProfileResponse {
	return dto.InstitutionProfileResponse{
		Id:              inst.Id,
		Code:            inst.Code,
		Name:            inst.Name,
		Type:            inst.Type,
		EstablishedYear: inst.EstablishedYear,
		Accreditation:   inst.Accreditation,
		Website:         inst.Website,
		Email:           inst.Email,
		Phone:           inst.Phone,
		RegistrarName:   inst.RegistrarName,
		RegistrarEmail:  inst.RegistrarEmail,
		Address:         dto.AddressDto(inst.Address),
		Settings:        dto.InstitutionSettingsDto(inst.Settings),
	}
}
