package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/pkg/events"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const qrMethod = "Digital QR Credential"

type IConsumerService interface {
	Consume(ctx context.Context) error
}

type consumerService struct {
	subscriber           message.Subscriber
	topicName            string
	uowFactory           unitofwork.RepositoryFactory
	eventPublisher       events.Publisher
	logger               logger.ILogger
	autoApproveThreshold int
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	eventPublisher events.Publisher,
	log logger.ILogger,
	autoApproveThreshold int,
) IConsumerService {
	return &consumerService{
		subscriber:           subscriber,
		topicName:            topicName,
		uowFactory:           uowFactory,
		eventPublisher:       eventPublisher,
		logger:               log,
		autoApproveThreshold: autoApproveThreshold,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.SubmissionCompletedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		cs.logger.Error("CONSUMER", "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // poison message, never retry
		return
	}

	v, err := cs.persist(ctx, &payload)
	if err != nil {
		cs.logger.Error("CONSUMER", "Failed to persist verification", map[string]interface{}{
			"submission_id": payload.SubmissionId,
			"run_id":        payload.RunId,
			"error":         err.Error(),
		})
		msg.Nack()
		return
	}
	msg.Ack()
	if v == nil {
		return
	}

	cs.publish(ctx, v)
}

// persist writes the verification with its audit trail and queue entry. It
// returns nil when the run was already recorded.
func (cs *consumerService) persist(ctx context.Context, p *dto.SubmissionCompletedMessage) (*entity.Verification, error) {
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.VerificationRepository().FindOne(ctx, specification.ByRun{RunID: p.RunId})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		cs.logger.Info("CONSUMER", "Run already recorded", map[string]interface{}{"run_id": p.RunId, "code": existing.Code})
		return nil, nil
	}

	student, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: p.UserId})
	if err != nil {
		return nil, err
	}
	institution, err := uow.InstitutionRepository().FindOne(ctx, specification.InstitutionLookup{Value: p.Extraction.Institution})
	if err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	year := p.CompletedAt.Year()
	seq, err := uow.VerificationRepository().NextSequence(ctx, year)
	if err != nil {
		return nil, err
	}

	outcome := cs.outcomeOf(p)
	v := buildVerification(p, outcome, institution, year, seq)

	autoApproved := institution != nil && institution.Settings.AutoApprove && outcome.Score >= cs.autoApproveThreshold
	if autoApproved {
		verifiedAt := p.CompletedAt
		v.Status = entity.VerificationVerified
		v.VerifiedAt = &verifiedAt
	}

	if err := uow.VerificationRepository().Create(ctx, v); err != nil {
		return nil, err
	}

	trail := auditTrail(v, p, outcome, student, autoApproved)
	if err := uow.VerificationRepository().CreateAuditEvents(ctx, trail); err != nil {
		return nil, err
	}

	if institution != nil {
		req := &entity.VerificationRequest{
			Id:             uuid.New(),
			VerificationId: v.Id,
			InstitutionId:  institution.Id,
			DocumentName:   v.DocumentName,
			DocumentType:   v.DocumentType,
			Priority:       entity.PriorityForScore(outcome.Score),
			Status:         entity.RequestPending,
			SubmittedAt:    v.SubmittedAt,
			UpdatedAt:      v.SubmittedAt,
		}
		if autoApproved {
			req.Status = entity.RequestApproved
		}
		if student != nil {
			req.StudentName = student.FullName()
			req.StudentID = student.StudentID
		}
		if req.StudentID == "" {
			req.StudentID = v.Fields["studentId"]
		}
		if err := uow.VerificationRepository().CreateRequest(ctx, req); err != nil {
			return nil, err
		}
	} else {
		cs.logger.Warn("CONSUMER", "No institution matches the credential, queue entry skipped", map[string]interface{}{
			"institution": p.Extraction.Institution,
			"code":        v.Code,
		})
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	cs.logger.Info("CONSUMER", "Verification recorded", map[string]interface{}{
		"code":   v.Code,
		"status": v.Status,
		"score":  outcome.Score,
	})
	return v, nil
}

// outcomeOf returns the cross-reference result of the run. A QR credential
// that skipped validation is signed by its issuer and counts as a full
// match.
func (cs *consumerService) outcomeOf(p *dto.SubmissionCompletedMessage) provider.VerificationOutcome {
	if p.Outcome != nil {
		return *p.Outcome
	}
	total := 0
	for _, v := range p.Extraction.Fields {
		if v != "" {
			total++
		}
	}
	return provider.VerificationOutcome{
		Score:               100,
		FieldsMatched:       total,
		FieldsTotal:         total,
		Method:              qrMethod,
		InstitutionResponse: "Credential signature verified from QR code",
		CheckedAt:           p.CompletedAt,
	}
}

func buildVerification(p *dto.SubmissionCompletedMessage, o provider.VerificationOutcome, inst *entity.Institution, year, seq int) *entity.Verification {
	e := p.Extraction
	v := &entity.Verification{
		Id:                  uuid.New(),
		Code:                fmt.Sprintf("VER-%d-%06d", year, seq),
		DocumentCode:        fmt.Sprintf("DOC-%d-%06d", year, seq),
		UserId:              p.UserId,
		SubmissionId:        p.SubmissionId,
		RunId:               p.RunId,
		Status:              entity.VerificationPending,
		Source:              string(p.Source),
		DocumentName:        documentName(p),
		DocumentType:        e.DocumentType,
		InstitutionName:     e.Institution,
		Degree:              e.Degree,
		GraduationDate:      e.GraduationDate,
		ExtractedText:       e.Text(),
		Confidence:          e.Confidence,
		Score:               o.Score,
		FieldsMatched:       o.FieldsMatched,
		FieldsTotal:         o.FieldsTotal,
		Method:              o.Method,
		Verifier:            o.Verifier,
		InstitutionResponse: o.InstitutionResponse,
		Registrar:           o.Registrar,
		RegistrarEmail:      o.RegistrarEmail,
		Fields:              e.Fields,
		Files:               p.Files,
		SubmittedAt:         p.CompletedAt,
		UpdatedAt:           p.CompletedAt,
	}
	if o.InstitutionName != "" {
		v.InstitutionName = o.InstitutionName
	}
	if inst != nil {
		id := inst.Id
		v.InstitutionId = &id
		v.InstitutionName = inst.Name
		if v.Registrar == "" {
			v.Registrar = inst.RegistrarName
		}
		if v.RegistrarEmail == "" {
			v.RegistrarEmail = inst.RegistrarEmail
		}
	}
	if v.Fields == nil {
		v.Fields = map[string]string{}
	}
	return v
}

func documentName(p *dto.SubmissionCompletedMessage) string {
	if len(p.Files) > 0 {
		return p.Files[0].Name
	}
	if p.QR != nil && p.QR.DocumentID != "" {
		return p.QR.DocumentID
	}
	return p.Extraction.DocumentType
}

func auditTrail(v *entity.Verification, p *dto.SubmissionCompletedMessage, o provider.VerificationOutcome, student *entity.User, autoApproved bool) []*entity.AuditEvent {
	performer := "Student"
	if student != nil {
		performer = student.FullName()
	}
	at := v.SubmittedAt
	next := func() time.Time {
		at = at.Add(time.Millisecond)
		return at
	}

	processingTitle, processingDesc := "OCR Processing", fmt.Sprintf("Text extracted with %d%% confidence", v.Confidence)
	if p.Source == processing.SourceQR {
		processingTitle, processingDesc = "QR Code Decoded", "Credential payload read from the issuer QR code"
	}

	out := []*entity.AuditEvent{
		{
			Type:        entity.AuditSubmission,
			Title:       "Document Submitted",
			Description: fmt.Sprintf("%s submitted via %s", v.DocumentName, v.Source),
			Performer:   performer,
			Details:     map[string]string{"files": strconv.Itoa(len(v.Files)), "source": v.Source},
			CreatedAt:   v.SubmittedAt,
		},
		{
			Type:        entity.AuditProcessing,
			Title:       processingTitle,
			Description: processingDesc,
			Performer:   "System",
			Details:     map[string]string{"confidence": strconv.Itoa(v.Confidence)},
			CreatedAt:   next(),
		},
		{
			Type:        entity.AuditProcessing,
			Title:       "Database Cross-Reference",
			Description: fmt.Sprintf("%d of %d fields matched institutional records", o.FieldsMatched, o.FieldsTotal),
			Performer:   "System",
			Details:     map[string]string{"method": o.Method, "score": strconv.Itoa(o.Score)},
			CreatedAt:   next(),
		},
		{
			Type:        entity.AuditInstitutionalResponse,
			Title:       "Institutional Response",
			Description: o.InstitutionResponse,
			Performer:   v.InstitutionName,
			Details:     map[string]string{"registrar": v.Registrar},
			CreatedAt:   next(),
		},
	}
	if autoApproved {
		out = append(out, &entity.AuditEvent{
			Type:        entity.AuditVerificationComplete,
			Title:       "Verification Complete",
			Description: fmt.Sprintf("Automatically approved with a score of %d", o.Score),
			Performer:   "System",
			CreatedAt:   next(),
		})
	} else {
		out = append(out, &entity.AuditEvent{
			Type:        entity.AuditReview,
			Title:       "Awaiting Review",
			Description: "Queued for institutional review",
			Performer:   "System",
			CreatedAt:   next(),
		})
	}

	for _, e := range out {
		e.Id = uuid.New()
		e.VerificationId = v.Id
		if e.Details == nil {
			e.Details = map[string]string{}
		}
	}
	return out
}

func (cs *consumerService) publish(ctx context.Context, v *entity.Verification) {
	if cs.eventPublisher == nil {
		return
	}
	eventType := events.VerificationSubmitted
	if v.Status == entity.VerificationVerified {
		eventType = events.VerificationCompleted
	}
	data := map[string]interface{}{
		"user_id":         v.UserId.String(),
		"code":            v.Code,
		"document_name":   v.DocumentName,
		"document_type":   v.DocumentType,
		"institution":     v.InstitutionName,
		"status":          string(v.Status),
		"score":           v.Score,
		"entity_type":     "verification",
		"entity_id":       v.Id.String(),
		"verification_id": v.Id.String(),
	}
	if v.InstitutionId != nil {
		data["institution_id"] = v.InstitutionId.String()
	}
	if err := cs.eventPublisher.Publish(ctx, events.New(eventType, data)); err != nil {
		cs.logger.Warn("CONSUMER", "Failed to publish event", map[string]interface{}{"type": eventType, "error": err.Error()})
	}
}
