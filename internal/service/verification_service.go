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
	"academic-auth-be/internal/pkg/mailer"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/pkg/events"
	"academic-auth-be/pkg/settings"

	"github.com/google/uuid"
)

var (
	ErrVerificationNotFound = errors.New("verification not found")
	ErrDisputeNotAllowed    = errors.New("only rejected verifications with an institution review can be disputed")
)

// Viewer describes who is reading a public verification. The zero value is
// an anonymous visitor.
type Viewer struct {
	Role string
}

type IVerificationService interface {
	List(ctx context.Context, userId uuid.UUID, req *dto.ListVerificationsRequest) ([]*dto.VerificationResponse, int64, error)
	Detail(ctx context.Context, userId uuid.UUID, code string) (*dto.VerificationDetailResponse, error)
	ShareLink(ctx context.Context, userId uuid.UUID, code string) (*dto.ShareLinkResponse, error)
	ShareByEmail(ctx context.Context, userId uuid.UUID, code string, req *dto.ShareByEmailRequest) (*dto.ShareByEmailResponse, error)
	Dispute(ctx context.Context, userId uuid.UUID, code string, req *dto.DisputeRequest) (*dto.VerificationResponse, error)
	Lookup(ctx context.Context, viewer Viewer, code string) (*dto.PublicVerificationResponse, error)
}

type verificationService struct {
	uowFactory     unitofwork.RepositoryFactory
	settings       *settings.Manager
	mail           mailer.IEmailService
	eventPublisher events.Publisher
	logger         logger.ILogger
	clientURL      string
}

func NewVerificationService(
	uowFactory unitofwork.RepositoryFactory,
	settingsManager *settings.Manager,
	mail mailer.IEmailService,
	eventPublisher events.Publisher,
	log logger.ILogger,
	clientURL string,
) IVerificationService {
	return &verificationService{
		uowFactory:     uowFactory,
		settings:       settingsManager,
		mail:           mail,
		eventPublisher: eventPublisher,
		logger:         log,
		clientURL:      clientURL,
	}
}

func (s *verificationService) List(ctx context.Context, userId uuid.UUID, req *dto.ListVerificationsRequest) ([]*dto.VerificationResponse, int64, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	filters := []specification.Specification{
		specification.UserOwnedBy{UserID: userId},
		specification.ByStatus{Status: req.Status},
	}
	total, err := uow.VerificationRepository().Count(ctx, filters...)
	if err != nil {
		return nil, 0, err
	}
	list, err := uow.VerificationRepository().FindAll(ctx, append(filters,
		specification.OrderBy{Field: "submitted_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: req.Offset},
	)...)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*dto.VerificationResponse, len(list))
	for i, v := range list {
		res := toVerificationResponse(v)
		out[i] = &res
	}
	return out, total, nil
}

func (s *verificationService) Detail(ctx context.Context, userId uuid.UUID, code string) (*dto.VerificationDetailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	v, err := uow.VerificationRepository().FindOne(ctx,
		specification.ByCode{Code: code},
		specification.UserOwnedBy{UserID: userId},
	)
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

	var inst *entity.Institution
	if v.InstitutionId != nil {
		if inst, err = uow.InstitutionRepository().FindOne(ctx, specification.ByID{ID: *v.InstitutionId}); err != nil {
			return nil, err
		}
	}
	holder, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: v.UserId})
	if err != nil {
		return nil, err
	}

	res := &dto.VerificationDetailResponse{
		VerificationResponse: toVerificationResponse(v),
		ExtractedText:        v.ExtractedText,
		Fields:               v.Fields,
		Files:                v.Files,
		Institution:          institutionalDetails(v, inst),
		AuditTrail:           toAuditResponses(trail),
		Certificate: dto.Certificate{
			Code:           v.Code,
			DocumentCode:   v.DocumentCode,
			Institution:    v.InstitutionName,
			Degree:         v.Degree,
			GraduationDate: v.GraduationDate,
			Status:         string(v.Status),
			Verifier:       v.Verifier,
			VerifiedAt:     v.VerifiedAt,
			ShareURL:       mailer.ResultLink(s.clientURL, v.Code),
		},
	}
	if holder != nil {
		res.Certificate.IssuedTo = holder.FullName()
	}
	return res, nil
}

func (s *verificationService) owned(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID, code string) (*entity.Verification, error) {
	v, err := uow.VerificationRepository().FindOne(ctx,
		specification.ByCode{Code: code},
		specification.UserOwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVerificationNotFound
	}
	return v, nil
}

func (s *verificationService) privacy(ctx context.Context, userId uuid.UUID) (settings.Privacy, error) {
	st, err := s.settings.Load(ctx, userId.String())
	if err != nil {
		return settings.Privacy{}, err
	}
	return st.Privacy, nil
}

func (s *verificationService) ShareLink(ctx context.Context, userId uuid.UUID, code string) (*dto.ShareLinkResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	v, err := s.owned(ctx, uow, userId, code)
	if err != nil {
		return nil, err
	}
	p, err := s.privacy(ctx, userId)
	if err != nil {
		return nil, err
	}
	return &dto.ShareLinkResponse{Code: v.Code, URL: mailer.ResultLink(s.clientURL, v.Code), Public: p.ShareVerificationStatus}, nil
}

// ShareByEmail mails the result summary and link to recipient and records
// the share on the audit trail.
func (s *verificationService) ShareByEmail(ctx context.Context, userId uuid.UUID, code string, req *dto.ShareByEmailRequest) (*dto.ShareByEmailResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	v, err := s.owned(ctx, uow, userId, code)
	if err != nil {
		return nil, err
	}
	p, err := s.privacy(ctx, userId)
	if err != nil {
		return nil, err
	}
	holder, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if holder == nil {
		return nil, ErrUserNotFound
	}

	recipient := strings.ToLower(strings.TrimSpace(req.Email))
	if err := s.mail.SendVerificationResult(recipient, mailer.VerificationMail{
		StudentName:  holder.FullName(),
		Code:         v.Code,
		DocumentType: v.DocumentType,
		Institution:  v.InstitutionName,
		Status:       string(v.Status),
		Confidence:   v.Confidence,
	}); err != nil {
		return nil, fmt.Errorf("share %s: %w", v.Code, err)
	}

	event := &entity.AuditEvent{
		Id:             uuid.New(),
		VerificationId: v.Id,
		Type:           entity.AuditShared,
		Title:          "Results Shared",
		Description:    "Verification results sent by email",
		Performer:      holder.FullName(),
		Details:        map[string]string{"recipient": recipient},
		CreatedAt:      time.Now(),
	}
	if err := uow.VerificationRepository().CreateAuditEvents(ctx, []*entity.AuditEvent{event}); err != nil {
		s.logger.Warn("VERIFICATION", "Failed to record share", map[string]interface{}{"code": v.Code, "error": err.Error()})
	}

	s.logger.Info("VERIFICATION", "Results shared by email", map[string]interface{}{"code": v.Code, "user_id": userId})
	return &dto.ShareByEmailResponse{
		ShareLinkResponse: dto.ShareLinkResponse{Code: v.Code, URL: mailer.ResultLink(s.clientURL, v.Code), Public: p.ShareVerificationStatus},
		Recipient:         recipient,
	}, nil
}

// Dispute sends a rejected verification back to its institution queue as
// pending, keeping the reason on the audit trail.
func (s *verificationService) Dispute(ctx context.Context, userId uuid.UUID, code string, req *dto.DisputeRequest) (*dto.VerificationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	v, err := s.owned(ctx, uow, userId, code)
	if err != nil {
		return nil, err
	}
	if v.Status != entity.VerificationRejected {
		return nil, fmt.Errorf("%w: %s is %s", ErrDisputeNotAllowed, v.Code, v.Status)
	}
	repo := uow.VerificationRepository()
	r, err := repo.FindRequest(ctx, specification.ByVerification{VerificationID: v.Id})
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: %s has no institution review", ErrDisputeNotAllowed, v.Code)
	}
	holder, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	reviewer := userId
	if r.ReviewedBy != nil {
		reviewer = *r.ReviewedBy
	}
	if err := repo.UpdateRequestStatus(ctx, r.Id, entity.RequestPending, reviewer); err != nil {
		return nil, err
	}
	if err := repo.UpdateStatus(ctx, v.Id, entity.VerificationPending, nil); err != nil {
		return nil, err
	}
	performer := "Student"
	if holder != nil {
		performer = holder.FullName()
	}
	reason := strings.TrimSpace(req.Reason)
	event := &entity.AuditEvent{
		Id:             uuid.New(),
		VerificationId: v.Id,
		Type:           entity.AuditDispute,
		Title:          "Dispute Submitted",
		Description:    reason,
		Performer:      performer,
		Details:        map[string]string{"previous": string(v.Status), "request_id": r.Id.String()},
		CreatedAt:      time.Now(),
	}
	if err := repo.CreateAuditEvents(ctx, []*entity.AuditEvent{event}); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	v.Status = entity.VerificationPending
	v.VerifiedAt = nil
	s.logger.Info("VERIFICATION", "Verification disputed", map[string]interface{}{"code": v.Code, "request_id": r.Id})

	if s.eventPublisher != nil {
		err := s.eventPublisher.Publish(ctx, events.New(events.VerificationDisputed, map[string]interface{}{
			"user_id":         userId.String(),
			"actor_id":        userId.String(),
			"code":            v.Code,
			"document_name":   v.DocumentName,
			"document_type":   v.DocumentType,
			"institution":     v.InstitutionName,
			"institution_id":  r.InstitutionId.String(),
			"status":          string(v.Status),
			"reason":          reason,
			"entity_type":     "verification",
			"entity_id":       v.Id.String(),
			"verification_id": v.Id.String(),
		}))
		if err != nil {
			s.logger.Warn("VERIFICATION", "Failed to publish event", map[string]interface{}{"type": events.VerificationDisputed, "error": err.Error()})
		}
	}

	res := toVerificationResponse(v)
	return &res, nil
}

// Lookup resolves a shared code. Holders who do not share their
// verification status are indistinguishable from unknown codes, and the
// holder name follows their profile visibility.
func (s *verificationService) Lookup(ctx context.Context, viewer Viewer, code string) (*dto.PublicVerificationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	v, err := uow.VerificationRepository().FindOne(ctx, specification.ByCode{Code: code})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, ErrVerificationNotFound
	}
	p, err := s.privacy(ctx, v.UserId)
	if err != nil {
		return nil, err
	}
	if !p.ShareVerificationStatus {
		return nil, ErrVerificationNotFound
	}

	res := &dto.PublicVerificationResponse{
		Code:            v.Code,
		Status:          string(v.Status),
		DocumentType:    v.DocumentType,
		InstitutionName: v.InstitutionName,
		Degree:          v.Degree,
		GraduationDate:  v.GraduationDate,
		VerifiedAt:      v.VerifiedAt,
	}
	if !nameVisible(p.ProfileVisibility, viewer) {
		return res, nil
	}
	holder, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: v.UserId})
	if err != nil {
		return nil, err
	}
	if holder != nil {
		res.HolderName = holder.FullName()
	}
	return res, nil
}

func nameVisible(visibility string, viewer Viewer) bool {
	switch visibility {
	case "public":
		return true
	case "institutions":
		return viewer.Role == string(entity.UserRoleInstitution)
	}
	return false
}

func toVerificationResponse(v *entity.Verification) dto.VerificationResponse {
	return dto.VerificationResponse{
		Id:              v.Id,
		Code:            v.Code,
		DocumentCode:    v.DocumentCode,
		Status:          string(v.Status),
		Source:          v.Source,
		DocumentName:    v.DocumentName,
		DocumentType:    v.DocumentType,
		InstitutionName: v.InstitutionName,
		Degree:          v.Degree,
		GraduationDate:  v.GraduationDate,
		Confidence:      v.Confidence,
		Score:           v.Score,
		SubmittedAt:     v.SubmittedAt,
		VerifiedAt:      v.VerifiedAt,
	}
}

func toAuditResponses(events []*entity.AuditEvent) []dto.AuditEventResponse {
	out := make([]dto.AuditEventResponse, len(events))
	for i, e := range events {
		out[i] = dto.AuditEventResponse{
			Id:          e.Id,
			Type:        string(e.Type),
			Title:       e.Title,
			Description: e.Description,
			Performer:   e.Performer,
			Details:     e.Details,
			Timestamp:   e.CreatedAt,
		}
	}
	return out
}

func institutionalDetails(v *entity.Verification, inst *entity.Institution) dto.InstitutionalDetails {
	d := dto.InstitutionalDetails{
		Name:           v.InstitutionName,
		Registrar:      v.Registrar,
		RegistrarEmail: v.RegistrarEmail,
		Response:       v.InstitutionResponse,
		Method:         v.Method,
		FieldsMatched:  v.FieldsMatched,
		FieldsTotal:    v.FieldsTotal,
	}
	if v.FieldsTotal > 0 {
		d.MatchRate = float64(v.FieldsMatched) * 100 / float64(v.FieldsTotal)
	}
	if inst != nil {
		d.Location = inst.Location()
		d.Website = inst.Website
		d.Accreditation = inst.Accreditation
	}
	return d
}
