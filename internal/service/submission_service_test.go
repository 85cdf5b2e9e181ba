package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/repository/memory"
	"academic-auth-be/pkg/blob"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider/fixture"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type capturedCompletions struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (c *capturedCompletions) Publish(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *capturedCompletions) messages(t *testing.T) []dto.SubmissionCompletedMessage {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]dto.SubmissionCompletedMessage, len(c.payloads))
	for i, p := range c.payloads {
		require.NoError(t, json.Unmarshal(p, &out[i]))
	}
	return out
}

type capturedDelivery struct {
	mu    sync.Mutex
	sends map[uuid.UUID]int
}

func (d *capturedDelivery) Send(userID uuid.UUID, msgType string, payload interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sends == nil {
		d.sends = map[uuid.UUID]int{}
	}
	d.sends[userID]++
}

func (d *capturedDelivery) Broadcast(msgType string, payload interface{}) {}

func (d *capturedDelivery) count(userID uuid.UUID) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sends[userID]
}

type failingStore struct{}

func (failingStore) Put(context.Context, string, []byte, string) error {
	return errors.New("bucket unavailable")
}
func (failingStore) Get(context.Context, string) ([]byte, error) { return nil, blob.ErrNotFound }
func (failingStore) Delete(context.Context, string) error        { return nil }

type submissionFixture struct {
	svc         ISubmissionService
	blobs       blob.Store
	completions *capturedCompletions
	delivery    *capturedDelivery
}

func newSubmissionFixture(t *testing.T, blobs blob.Store, qrValidation bool) *submissionFixture {
	t.Helper()
	fx, err := fixture.New()
	require.NoError(t, err)
	if blobs == nil {
		blobs, err = blob.NewLocalStore(t.TempDir())
		require.NoError(t, err)
	}
	fast := processing.StepConfig{Increment: 50, Interval: time.Millisecond}
	f := &submissionFixture{
		blobs:       blobs,
		completions: &capturedCompletions{},
		delivery:    &capturedDelivery{},
	}
	f.svc = NewSubmissionService(
		memory.NewSubmissionRepository(time.Minute),
		fx.Set(),
		blobs,
		f.completions,
		f.delivery,
		logger.NewNopLogger(),
		SubmissionServiceConfig{
			Machine: processing.Config{
				Steps: map[processing.Phase]processing.StepConfig{
					processing.PhaseUpload:   fast,
					processing.PhaseOCR:      fast,
					processing.PhaseValidate: fast,
				},
				QRRequiresValidation: qrValidation,
			},
			StoreConcurrency: 2,
		},
	)
	t.Cleanup(f.svc.Shutdown)
	return f
}

func diploma() processing.File {
	return processing.File{Name: "diploma.png", Size: int64(len(pngHeader)), ContentType: "image/png", Data: pngHeader}
}

func waitForStatus(t *testing.T, svc ISubmissionService, userId, id uuid.UUID, cond func(processing.Snapshot) bool) *dto.SubmissionResponse {
	t.Helper()
	var last *dto.SubmissionResponse
	require.Eventually(t, func() bool {
		res, err := svc.Get(context.Background(), userId, id)
		if err != nil {
			return false
		}
		last = res
		return cond(res.Snapshot)
	}, 3*time.Second, 5*time.Millisecond)
	return last
}

func TestSubmissionUploadFlow(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()

	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)

	res, err := f.svc.SubmitFiles(ctx, userId, created.Id, "", []processing.File{
		diploma(),
		{Name: "notes.txt", Size: 10, Data: []byte("plain text")},
	})
	require.NoError(t, err)
	assert.Equal(t, processing.SourceUpload, res.Submission.Snapshot.Source)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "notes.txt", res.Rejected[0].Name)

	awaiting := waitForStatus(t, f.svc, userId, created.Id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusOCR && s.Progress.OCR == 100
	})
	require.NotNil(t, awaiting.Draft)
	assert.Equal(t, "stanford", awaiting.Draft.Institution)
	assert.Equal(t, 100, awaiting.Snapshot.Progress.Upload)

	draft, err := f.svc.GetDraft(ctx, userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, 94, draft.Confidence)

	_, err = f.svc.ConfirmExtraction(ctx, userId, &dto.ConfirmExtractionRequest{
		Id:             created.Id,
		EditedText:     "<b>Sarah</b> Johnson",
		Institution:    " stanford ",
		DocumentType:   "transcript",
		GraduationDate: "2024-06-15",
		Degree:         "Bachelor of Science in Computer Science",
		Fields:         map[string]string{"gpa": " 3.80/4.00 "},
	})
	require.NoError(t, err)

	done := waitForStatus(t, f.svc, userId, created.Id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusComplete
	})
	require.NotNil(t, done.Outcome)
	assert.Equal(t, 96, done.Outcome.Score)

	require.Eventually(t, func() bool { return len(f.completions.messages(t)) == 1 }, time.Second, 5*time.Millisecond)
	msg := f.completions.messages(t)[0]
	assert.Equal(t, created.Id, msg.SubmissionId)
	assert.Equal(t, userId, msg.UserId)
	assert.NotEqual(t, uuid.Nil, msg.RunId)
	assert.Equal(t, "Sarah Johnson", msg.Extraction.EditedText)
	assert.Equal(t, "stanford", msg.Extraction.Institution)
	assert.Equal(t, "3.80/4.00", msg.Extraction.Fields["gpa"])
	assert.Equal(t, "Sarah Johnson", msg.Extraction.Fields["studentName"])
	require.Len(t, msg.Files, 1)

	stored, err := f.blobs.Get(ctx, msg.Files[0].Key)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, stored)

	assert.Positive(t, f.delivery.count(userId))
}

func TestSubmitFilesErrors(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()
	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)

	tests := []struct {
		name    string
		userId  uuid.UUID
		source  processing.Source
		files   []processing.File
		wantErr error
	}{
		{name: "qr is not a file source", userId: userId, source: processing.SourceQR, files: []processing.File{diploma()}, wantErr: ErrInvalidSource},
		{name: "nothing supplied", userId: userId, source: processing.SourceCamera, wantErr: processing.ErrNoFiles},
		{name: "every file rejected", userId: userId, files: []processing.File{{Name: "notes.txt", Size: 4}}, wantErr: processing.ErrNoFiles},
		{name: "someone else's submission", userId: uuid.New(), files: []processing.File{diploma()}, wantErr: ErrSubmissionNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SubmitFiles(ctx, tt.userId, created.Id, tt.source, tt.files)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err = f.svc.GetDraft(ctx, userId, created.Id)
	assert.ErrorIs(t, err, ErrDraftNotReady)
}

func TestSubmissionFailsWhenStorageFails(t *testing.T) {
	f := newSubmissionFixture(t, failingStore{}, false)
	ctx := context.Background()
	userId := uuid.New()
	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)

	_, err = f.svc.SubmitFiles(ctx, userId, created.Id, processing.SourceCamera, []processing.File{diploma()})
	require.NoError(t, err)

	failed := waitForStatus(t, f.svc, userId, created.Id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusFailed
	})
	assert.Equal(t, "upload failed, please try again", failed.Snapshot.ErrorMessage)
	assert.Empty(t, f.completions.messages(t))

	retried, err := f.svc.Retry(ctx, userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, processing.StatusIdle, retried.Snapshot.Status)
	assert.Empty(t, retried.Snapshot.Files)

	_, err = f.svc.Retry(ctx, userId, created.Id)
	assert.ErrorIs(t, err, processing.ErrInvalidTransition)
}

func TestDetectQRCompletesImmediately(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()

	res, err := f.svc.DetectQR(ctx, userId, &dto.DetectQRRequest{Payload: "ACADEMIC-CREDENTIAL"})
	require.NoError(t, err)
	assert.Equal(t, processing.StatusComplete, res.Snapshot.Status)
	assert.Equal(t, processing.SourceQR, res.Snapshot.Source)
	require.NotNil(t, res.Snapshot.QR)
	assert.Equal(t, "DOC-2024-001", res.Snapshot.QR.DocumentID)

	msgs := f.completions.messages(t)
	require.Len(t, msgs, 1)
	assert.Nil(t, msgs[0].Outcome)
	assert.Equal(t, "Stanford University", msgs[0].Extraction.Institution)

	// a second scan on the completed submission starts a new run
	again, err := f.svc.DetectQR(ctx, userId, &dto.DetectQRRequest{SubmissionId: &res.Id, Payload: "ACADEMIC-CREDENTIAL"})
	require.NoError(t, err)
	assert.Equal(t, res.Id, again.Id)
	msgs = f.completions.messages(t)
	require.Len(t, msgs, 2)
	assert.NotEqual(t, msgs[0].RunId, msgs[1].RunId)
}

func TestDetectQRWithValidation(t *testing.T) {
	f := newSubmissionFixture(t, nil, true)
	ctx := context.Background()
	userId := uuid.New()

	res, err := f.svc.DetectQR(ctx, userId, &dto.DetectQRRequest{Payload: "ACADEMIC-CREDENTIAL"})
	require.NoError(t, err)
	assert.Equal(t, processing.StatusValidate, res.Snapshot.Status)

	done := waitForStatus(t, f.svc, userId, res.Id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusComplete
	})
	require.NotNil(t, done.Outcome)
	require.Eventually(t, func() bool { return len(f.completions.messages(t)) == 1 }, time.Second, 5*time.Millisecond)
	assert.NotNil(t, f.completions.messages(t)[0].Outcome)
}

func TestDetectQRRejectsActiveSubmission(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()
	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)

	_, err = f.svc.SubmitFiles(ctx, userId, created.Id, processing.SourceUpload, []processing.File{diploma()})
	require.NoError(t, err)
	waitForStatus(t, f.svc, userId, created.Id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusOCR
	})

	_, err = f.svc.DetectQR(ctx, userId, &dto.DetectQRRequest{SubmissionId: &created.Id, Payload: "x"})
	assert.ErrorIs(t, err, processing.ErrInvalidTransition)
}

func TestAbandonRemovesSubmission(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()
	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)

	require.NoError(t, f.svc.Abandon(ctx, userId, created.Id))
	_, err = f.svc.Get(ctx, userId, created.Id)
	assert.ErrorIs(t, err, ErrSubmissionNotFound)
	assert.ErrorIs(t, f.svc.Abandon(ctx, userId, created.Id), ErrSubmissionNotFound)
}

func TestSubmissionOptions(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	opts := f.svc.Options(context.Background())
	assert.NotEmpty(t, opts.Institutions)
	assert.NotEmpty(t, opts.DocumentTypes)
}

func completeUpload(t *testing.T, f *submissionFixture, userId, id uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	_, err := f.svc.SubmitFiles(ctx, userId, id, processing.SourceUpload, []processing.File{diploma()})
	require.NoError(t, err)
	waitForStatus(t, f.svc, userId, id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusOCR && s.Progress.OCR == 100
	})
	_, err = f.svc.ConfirmExtraction(ctx, userId, &dto.ConfirmExtractionRequest{
		Id:             id,
		EditedText:     "Sarah Johnson",
		Institution:    "stanford",
		DocumentType:   "transcript",
		GraduationDate: "2024-06-15",
		Degree:         "Bachelor of Science in Computer Science",
	})
	require.NoError(t, err)
	waitForStatus(t, f.svc, userId, id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusComplete
	})
}

func TestRetryAfterCompleteClearsResults(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()
	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)
	completeUpload(t, f, userId, created.Id)

	retried, err := f.svc.Retry(ctx, userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, processing.StatusIdle, retried.Snapshot.Status)
	assert.Nil(t, retried.Draft)
	assert.Nil(t, retried.Outcome)
	assert.Nil(t, retried.Snapshot.Extraction)
	assert.Empty(t, retried.Snapshot.Files)

	got, err := f.svc.Get(ctx, userId, created.Id)
	require.NoError(t, err)
	assert.Nil(t, got.Draft)
	assert.Nil(t, got.Outcome)

	_, err = f.svc.GetDraft(ctx, userId, created.Id)
	assert.ErrorIs(t, err, ErrDraftNotReady)

	// the submission accepts a fresh run afterwards
	completeUpload(t, f, userId, created.Id)
	require.Eventually(t, func() bool { return len(f.completions.messages(t)) == 2 }, time.Second, 5*time.Millisecond)
	msgs := f.completions.messages(t)
	assert.NotEqual(t, msgs[0].RunId, msgs[1].RunId)
}

func TestRetryAfterQRBypass(t *testing.T) {
	tests := []struct {
		name       string
		validation bool
	}{
		{name: "immediate completion", validation: false},
		{name: "with validation", validation: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubmissionFixture(t, nil, tt.validation)
			ctx := context.Background()
			userId := uuid.New()

			res, err := f.svc.DetectQR(ctx, userId, &dto.DetectQRRequest{Payload: "ACADEMIC-CREDENTIAL"})
			require.NoError(t, err)
			waitForStatus(t, f.svc, userId, res.Id, func(s processing.Snapshot) bool {
				return s.Status == processing.StatusComplete
			})

			retried, err := f.svc.Retry(ctx, userId, res.Id)
			require.NoError(t, err)
			assert.Equal(t, processing.StatusIdle, retried.Snapshot.Status)
			assert.Nil(t, retried.Snapshot.QR)
			assert.Empty(t, retried.Snapshot.Source)
			assert.Nil(t, retried.Outcome)
			assert.Nil(t, retried.Draft)
		})
	}
}

func TestRetryRejectsActiveSubmission(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()
	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)

	_, err = f.svc.SubmitFiles(ctx, userId, created.Id, processing.SourceUpload, []processing.File{diploma()})
	require.NoError(t, err)
	waitForStatus(t, f.svc, userId, created.Id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusOCR && s.Progress.OCR == 100
	})

	_, err = f.svc.Retry(ctx, userId, created.Id)
	assert.ErrorIs(t, err, processing.ErrInvalidTransition)

	draft, err := f.svc.GetDraft(ctx, userId, created.Id)
	require.NoError(t, err)
	assert.Equal(t, "stanford", draft.Institution)
}

func TestConcurrentSubmitsStartOneRun(t *testing.T) {
	f := newSubmissionFixture(t, nil, false)
	ctx := context.Background()
	userId := uuid.New()
	created, err := f.svc.Create(ctx, userId)
	require.NoError(t, err)

	const workers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted []*dto.SubmitFilesResponse
		refused  int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.SubmitFiles(ctx, userId, created.Id, processing.SourceUpload, []processing.File{diploma()})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.ErrorIs(t, err, processing.ErrInvalidTransition)
				refused++
				return
			}
			accepted = append(accepted, res)
		}()
	}
	wg.Wait()

	require.Len(t, accepted, 1)
	assert.Equal(t, workers-1, refused)

	// the winning run keeps its draft
	waitForStatus(t, f.svc, userId, created.Id, func(s processing.Snapshot) bool {
		return s.Status == processing.StatusOCR && s.Progress.OCR == 100
	})
	_, err = f.svc.GetDraft(ctx, userId, created.Id)
	assert.NoError(t, err)
}
