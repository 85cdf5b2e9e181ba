package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"strings"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/repository/memory"
	"academic-auth-be/internal/tracer"
	"academic-auth-be/pkg/blob"
	"academic-auth-be/pkg/docinfo"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

var (
	ErrSubmissionNotFound = errors.New("submission not found")
	ErrDraftNotReady      = errors.New("text extraction has not finished")
	ErrInvalidSource      = errors.New("source must be upload or camera")
)

// RealtimeDelivery pushes typed messages to connected users. The websocket
// hub implements it.
type RealtimeDelivery interface {
	Send(userID uuid.UUID, msgType string, payload interface{})
	Broadcast(msgType string, payload interface{})
}

const MsgSubmissionProgress = "submission_progress"

type ISubmissionService interface {
	Create(ctx context.Context, userId uuid.UUID) (*dto.CreateSubmissionResponse, error)
	SubmitFiles(ctx context.Context, userId, id uuid.UUID, source processing.Source, files []processing.File) (*dto.SubmitFilesResponse, error)
	Get(ctx context.Context, userId, id uuid.UUID) (*dto.SubmissionResponse, error)
	GetDraft(ctx context.Context, userId, id uuid.UUID) (*processing.Extraction, error)
	ConfirmExtraction(ctx context.Context, userId uuid.UUID, req *dto.ConfirmExtractionRequest) (*dto.SubmissionResponse, error)
	DetectQR(ctx context.Context, userId uuid.UUID, req *dto.DetectQRRequest) (*dto.SubmissionResponse, error)
	Retry(ctx context.Context, userId, id uuid.UUID) (*dto.SubmissionResponse, error)
	Abandon(ctx context.Context, userId, id uuid.UUID) error
	Options(ctx context.Context) *dto.SubmissionOptionsResponse
	Shutdown()
}

type SubmissionServiceConfig struct {
	Machine          processing.Config
	StoreConcurrency int
}

type submissionService struct {
	repo      *memory.SubmissionRepository
	providers provider.Set
	blobs     blob.Store
	publisher IPublisherService
	delivery  RealtimeDelivery
	logger    logger.ILogger
	cfg       SubmissionServiceConfig
	sanitizer *bluemonday.Policy

	// runners outlive the request that started them
	baseCtx context.Context
	cancel  context.CancelFunc
}

func NewSubmissionService(
	repo *memory.SubmissionRepository,
	providers provider.Set,
	blobs blob.Store,
	publisher IPublisherService,
	delivery RealtimeDelivery,
	log logger.ILogger,
	cfg SubmissionServiceConfig,
) ISubmissionService {
	ctx, cancel := context.WithCancel(context.Background())
	return &submissionService{
		repo:      repo,
		providers: providers,
		blobs:     blobs,
		publisher: publisher,
		delivery:  delivery,
		logger:    log,
		cfg:       cfg,
		sanitizer: bluemonday.StrictPolicy(),
		baseCtx:   ctx,
		cancel:    cancel,
	}
}

func (s *submissionService) Create(ctx context.Context, userId uuid.UUID) (*dto.CreateSubmissionResponse, error) {
	sub := s.newSubmission(userId)
	s.repo.Save(sub)
	s.logger.Info("SUBMISSION", "Submission created", map[string]interface{}{"submission_id": sub.Id, "user_id": userId})
	return &dto.CreateSubmissionResponse{Id: sub.Id}, nil
}

func (s *submissionService) newSubmission(userId uuid.UUID) *entity.Submission {
	sub := &entity.Submission{
		Id:        uuid.New(),
		UserId:    userId,
		CreatedAt: time.Now(),
	}
	m := processing.NewMachine(s.cfg.Machine,
		processing.WithStep(func(ctx context.Context, phase processing.Phase, progress int) error {
			return s.step(ctx, sub, phase, progress)
		}),
		processing.WithListener(func(snap processing.Snapshot) {
			s.onChange(sub, snap)
		}),
	)
	sub.Runner = processing.NewRunner(m)
	return sub
}

func (s *submissionService) find(userId, id uuid.UUID) (*entity.Submission, error) {
	sub, ok := s.repo.Get(id)
	if !ok || sub.UserId != userId {
		return nil, ErrSubmissionNotFound
	}
	return sub, nil
}

func (s *submissionService) SubmitFiles(ctx context.Context, userId, id uuid.UUID, source processing.Source, files []processing.File) (*dto.SubmitFilesResponse, error) {
	if source == "" {
		source = processing.SourceUpload
	}
	if source != processing.SourceUpload && source != processing.SourceCamera {
		return nil, ErrInvalidSource
	}
	sub, err := s.find(userId, id)
	if err != nil {
		return nil, err
	}

	valid, rejected := processing.FilterFiles(files)
	if len(valid) == 0 {
		msgs := make([]string, 0, len(rejected))
		for _, r := range rejected {
			msgs = append(msgs, r.Message)
		}
		if len(msgs) == 0 {
			return nil, processing.ErrNoFiles
		}
		return nil, fmt.Errorf("%w: %s", processing.ErrNoFiles, strings.Join(msgs, "; "))
	}

	err = sub.Exclusive(func() error {
		if st := sub.Machine().Snapshot().Status; st != processing.StatusIdle {
			return fmt.Errorf("%w: cannot submit while %s", processing.ErrInvalidTransition, st)
		}
		sub.NewRun()
		if err := sub.Machine().Submit(source, valid); err != nil {
			return err
		}
		sub.Runner.Start(s.baseCtx)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SUBMISSION", "Files submitted", map[string]interface{}{
		"submission_id": sub.Id,
		"source":        source,
		"files":         len(valid),
		"rejected":      len(rejected),
	})
	return &dto.SubmitFilesResponse{
		Submission: s.response(sub),
		Rejected:   rejected,
	}, nil
}

func (s *submissionService) Get(ctx context.Context, userId, id uuid.UUID) (*dto.SubmissionResponse, error) {
	sub, err := s.find(userId, id)
	if err != nil {
		return nil, err
	}
	res := s.response(sub)
	return &res, nil
}

func (s *submissionService) GetDraft(ctx context.Context, userId, id uuid.UUID) (*processing.Extraction, error) {
	sub, err := s.find(userId, id)
	if err != nil {
		return nil, err
	}
	draft := sub.Draft()
	if draft == nil {
		return nil, ErrDraftNotReady
	}
	return draft, nil
}

func (s *submissionService) ConfirmExtraction(ctx context.Context, userId uuid.UUID, req *dto.ConfirmExtractionRequest) (*dto.SubmissionResponse, error) {
	sub, err := s.find(userId, req.Id)
	if err != nil {
		return nil, err
	}
	draft := sub.Draft()
	if draft == nil {
		return nil, ErrDraftNotReady
	}

	e := processing.Extraction{
		OriginalText:   draft.OriginalText,
		EditedText:     s.sanitize(req.EditedText),
		Institution:    strings.TrimSpace(req.Institution),
		DocumentType:   strings.TrimSpace(req.DocumentType),
		GraduationDate: strings.TrimSpace(req.GraduationDate),
		Degree:         strings.TrimSpace(req.Degree),
		Confidence:     draft.Confidence,
		Fields:         mergeFields(draft.Fields, req.Fields),
	}
	if err := sub.Machine().ConfirmExtraction(e); err != nil {
		return nil, err
	}
	sub.Runner.Wake()

	s.logger.Info("SUBMISSION", "Extraction confirmed", map[string]interface{}{"submission_id": sub.Id})
	res := s.response(sub)
	return &res, nil
}

// sanitize strips markup from user-edited text while keeping it plain
// text rather than HTML entities.
func (s *submissionService) sanitize(text string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(text)))
}

func mergeFields(base, override map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(override))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range override {
		out[k] = strings.TrimSpace(v)
	}
	return out
}

func (s *submissionService) DetectQR(ctx context.Context, userId uuid.UUID, req *dto.DetectQRRequest) (*dto.SubmissionResponse, error) {
	payload, err := s.providers.QR.Decode(ctx, req.Payload)
	if err != nil {
		return nil, err
	}

	var sub *entity.Submission
	if req.SubmissionId != nil {
		if sub, err = s.find(userId, *req.SubmissionId); err != nil {
			return nil, err
		}
	} else {
		sub = s.newSubmission(userId)
		s.repo.Save(sub)
	}

	err = sub.Exclusive(func() error {
		st := sub.Machine().Snapshot().Status
		if st != processing.StatusIdle && st != processing.StatusComplete {
			return fmt.Errorf("%w: cannot accept QR payload while %s", processing.ErrInvalidTransition, st)
		}
		sub.NewRun()
		if err := sub.Machine().DetectQR(payload); err != nil {
			return err
		}
		if sub.Machine().Snapshot().Status.IsActive() {
			sub.Runner.Start(s.baseCtx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("SUBMISSION", "QR credential detected", map[string]interface{}{
		"submission_id": sub.Id,
		"institution":   payload.Institution,
		"document_id":   payload.DocumentID,
	})
	res := s.response(sub)
	return &res, nil
}

func (s *submissionService) Retry(ctx context.Context, userId, id uuid.UUID) (*dto.SubmissionResponse, error) {
	sub, err := s.find(userId, id)
	if err != nil {
		return nil, err
	}
	err = sub.Exclusive(func() error {
		if st := sub.Machine().Snapshot().Status; !st.IsTerminal() {
			return fmt.Errorf("%w: cannot retry while %s", processing.ErrInvalidTransition, st)
		}
		sub.Reset()
		return sub.Machine().Retry()
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("SUBMISSION", "Submission reset for retry", map[string]interface{}{"submission_id": sub.Id})
	res := s.response(sub)
	return &res, nil
}

func (s *submissionService) Abandon(ctx context.Context, userId, id uuid.UUID) error {
	sub, err := s.find(userId, id)
	if err != nil {
		return err
	}
	sub.Machine().Abandon()
	s.repo.Delete(sub.Id)
	s.logger.Info("SUBMISSION", "Submission abandoned", map[string]interface{}{"submission_id": sub.Id})
	return nil
}

func (s *submissionService) Options(ctx context.Context) *dto.SubmissionOptionsResponse {
	return &dto.SubmissionOptionsResponse{
		Institutions:  s.providers.Catalog.Institutions(),
		DocumentTypes: s.providers.Catalog.DocumentTypes(),
	}
}

func (s *submissionService) Shutdown() {
	s.cancel()
	s.repo.Flush()
}

func (s *submissionService) response(sub *entity.Submission) dto.SubmissionResponse {
	return dto.SubmissionResponse{
		Id:        sub.Id,
		Snapshot:  sub.Machine().Snapshot(),
		Draft:     sub.Draft(),
		Outcome:   sub.Outcome(),
		CreatedAt: sub.CreatedAt,
	}
}

// step does the real work of a phase on its first tick; later ticks only
// advance progress.
func (s *submissionService) step(ctx context.Context, sub *entity.Submission, phase processing.Phase, progress int) error {
	if progress != 0 {
		return nil
	}
	ctx, end := tracer.Start(ctx, "submission."+string(phase))
	defer end()

	switch phase {
	case processing.PhaseUpload:
		return s.storeFiles(ctx, sub)
	case processing.PhaseOCR:
		return s.extract(ctx, sub)
	case processing.PhaseValidate:
		return s.crossReference(ctx, sub)
	}
	return nil
}

func (s *submissionService) storeFiles(ctx context.Context, sub *entity.Submission) error {
	files := sub.Machine().Files()
	objects := make([]blob.Object, 0, len(files))
	stored := make([]entity.StoredFile, 0, len(files))
	for _, f := range files {
		info, err := docinfo.Inspect(f.Name, f.Data)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("submissions/%s/%s.%s", sub.Id, info.SHA256, strings.ToLower(info.Extension))
		objects = append(objects, blob.Object{Key: key, ContentType: info.ContentType, Data: f.Data})
		stored = append(stored, entity.StoredFile{
			Name:        f.Name,
			Key:         key,
			Size:        info.Size,
			ContentType: info.ContentType,
			Pages:       info.Pages,
			SHA256:      info.SHA256,
		})
	}
	if err := blob.PutAll(ctx, s.blobs, objects, s.cfg.StoreConcurrency); err != nil {
		s.logger.Error("SUBMISSION", "Failed to store files", map[string]interface{}{"submission_id": sub.Id, "error": err.Error()})
		return errors.New("upload failed, please try again")
	}
	sub.SetStoredFiles(stored)
	return nil
}

func (s *submissionService) extract(ctx context.Context, sub *entity.Submission) error {
	draft, err := s.providers.Extraction.Extract(ctx, sub.Machine().Files())
	if err != nil {
		s.logger.Error("SUBMISSION", "Text extraction failed", map[string]interface{}{
			"submission_id": sub.Id,
			"provider":      s.providers.Extraction.Name(),
			"error":         err.Error(),
		})
		return errors.New("text extraction failed")
	}
	sub.SetDraft(&draft)
	return nil
}

func (s *submissionService) crossReference(ctx context.Context, sub *entity.Submission) error {
	snap := sub.Machine().Snapshot()
	if snap.Extraction == nil {
		return processing.ErrIncompleteExtraction
	}
	e := *snap.Extraction
	outcome, err := s.providers.Verifier.CrossReference(ctx, provider.VerificationInput{
		Institution:    e.Institution,
		DocumentType:   e.DocumentType,
		Degree:         e.Degree,
		GraduationDate: e.GraduationDate,
		StudentName:    e.Fields["studentName"],
		StudentID:      e.Fields["studentId"],
		Confidence:     e.Confidence,
		Source:         snap.Source,
		Fields:         e.Fields,
	})
	if err != nil {
		s.logger.Error("SUBMISSION", "Institutional cross-reference failed", map[string]interface{}{"submission_id": sub.Id, "error": err.Error()})
		return errors.New("institutional verification failed")
	}
	sub.SetOutcome(&outcome)
	return nil
}

func (s *submissionService) onChange(sub *entity.Submission, snap processing.Snapshot) {
	if s.delivery != nil {
		s.delivery.Send(sub.UserId, MsgSubmissionProgress, dto.SubmissionResponse{
			Id:        sub.Id,
			Snapshot:  snap,
			Draft:     sub.Draft(),
			Outcome:   sub.Outcome(),
			CreatedAt: sub.CreatedAt,
		})
	}

	switch snap.Status {
	case processing.StatusComplete:
		s.publishCompleted(sub, snap)
	case processing.StatusFailed:
		s.logger.Warn("SUBMISSION", "Submission failed", map[string]interface{}{"submission_id": sub.Id, "reason": snap.ErrorMessage})
	}
}

func (s *submissionService) publishCompleted(sub *entity.Submission, snap processing.Snapshot) {
	msg := dto.SubmissionCompletedMessage{
		SubmissionId: sub.Id,
		RunId:        sub.RunId(),
		UserId:       sub.UserId,
		Source:       snap.Source,
		QR:           snap.QR,
		Outcome:      sub.Outcome(),
		Files:        sub.StoredFiles(),
		CompletedAt:  time.Now(),
	}
	switch {
	case snap.Extraction != nil:
		msg.Extraction = *snap.Extraction
	case snap.QR != nil:
		msg.Extraction = snap.QR.Extraction()
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		s.logger.Error("SUBMISSION", "Failed to encode completion", map[string]interface{}{"submission_id": sub.Id, "error": err.Error()})
		return
	}
	if err := s.publisher.Publish(context.Background(), payload); err != nil {
		s.logger.Error("SUBMISSION", "Failed to publish completion", map[string]interface{}{"submission_id": sub.Id, "error": err.Error()})
		return
	}
	s.logger.Info("SUBMISSION", "Submission completed", map[string]interface{}{"submission_id": sub.Id, "run_id": msg.RunId})
}
