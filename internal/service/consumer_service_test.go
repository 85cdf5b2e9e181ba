package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/pkg/events"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedMessage(userId uuid.UUID, institution string, score int) dto.SubmissionCompletedMessage {
	return dto.SubmissionCompletedMessage{
		SubmissionId: uuid.New(),
		RunId:        uuid.New(),
		UserId:       userId,
		Source:       processing.SourceUpload,
		Extraction: processing.Extraction{
			OriginalText:   "STANFORD UNIVERSITY",
			Institution:    institution,
			DocumentType:   "transcript",
			GraduationDate: "2024-06-15",
			Degree:         "Bachelor of Science in Computer Science",
			Confidence:     94,
			Fields:         map[string]string{"studentName": "Sarah Johnson"},
		},
		Outcome: &provider.VerificationOutcome{
			Score:               score,
			FieldsMatched:       11,
			FieldsTotal:         12,
			Method:              "Automated Database Cross-Reference",
			InstitutionResponse: "Verified against official records",
		},
		Files:       []entity.StoredFile{{Name: "transcript.pdf", Key: "submissions/x/abc.pdf", Size: 2048}},
		CompletedAt: time.Date(2024, 9, 7, 10, 0, 0, 0, time.UTC),
	}
}

func newTestConsumer(store *memStore, pub events.Publisher, threshold int) *consumerService {
	return NewConsumerService(nil, SubmissionCompletedTopic, store, pub, logger.NewNopLogger(), threshold).(*consumerService)
}

func deliver(t *testing.T, cs *consumerService, payload interface{}) *message.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	msg := message.NewMessage(watermill.NewUUID(), raw)
	cs.processMessage(context.Background(), msg)
	return msg
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func TestConsumerRecordsVerification(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	inst := seedInstitution(store, "stanford", "Stanford University", false)
	pub := &recordingPublisher{}
	cs := newTestConsumer(store, pub, 95)

	msg := deliver(t, cs, completedMessage(student.Id, "stanford", 86))
	assert.True(t, acked(msg))

	require.Len(t, store.verifications, 1)
	v := store.verifications[0]
	assert.Equal(t, "VER-2024-000001", v.Code)
	assert.Equal(t, "DOC-2024-000001", v.DocumentCode)
	assert.Equal(t, entity.VerificationPending, v.Status)
	assert.Equal(t, "transcript.pdf", v.DocumentName)
	assert.Equal(t, "Stanford University", v.InstitutionName)
	assert.Equal(t, "Dr. Michael Chen", v.Registrar)
	require.NotNil(t, v.InstitutionId)
	assert.Equal(t, inst.Id, *v.InstitutionId)
	assert.Nil(t, v.VerifiedAt)

	require.Len(t, store.requests, 1)
	req := store.requests[0]
	assert.Equal(t, entity.RequestPending, req.Status)
	assert.Equal(t, entity.PriorityMedium, req.Priority)
	assert.Equal(t, "Sarah Johnson", req.StudentName)
	assert.Equal(t, "STU-2024-001", req.StudentID)

	require.Len(t, store.audit, 5)
	assert.Equal(t, entity.AuditSubmission, store.audit[0].Type)
	assert.Equal(t, entity.AuditReview, store.audit[4].Type)
	assert.Equal(t, "Sarah Johnson", store.audit[0].Performer)

	assert.Equal(t, []string{events.VerificationSubmitted}, pub.Types())
	assert.Equal(t, inst.Id.String(), pub.Last().Payload()["institution_id"])
}

func TestConsumerAutoApproves(t *testing.T) {
	tests := []struct {
		name        string
		autoApprove bool
		score       int
		want        entity.VerificationStatus
		wantEvent   string
	}{
		{name: "enabled and above threshold", autoApprove: true, score: 96, want: entity.VerificationVerified, wantEvent: events.VerificationCompleted},
		{name: "enabled but below threshold", autoApprove: true, score: 90, want: entity.VerificationPending, wantEvent: events.VerificationSubmitted},
		{name: "disabled", autoApprove: false, score: 99, want: entity.VerificationPending, wantEvent: events.VerificationSubmitted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			student := seedStudent(store)
			seedInstitution(store, "stanford", "Stanford University", tt.autoApprove)
			pub := &recordingPublisher{}

			deliver(t, newTestConsumer(store, pub, 95), completedMessage(student.Id, "Stanford University", tt.score))

			require.Len(t, store.verifications, 1)
			v := store.verifications[0]
			assert.Equal(t, tt.want, v.Status)
			assert.Equal(t, []string{tt.wantEvent}, pub.Types())

			require.Len(t, store.requests, 1)
			last := store.audit[len(store.audit)-1]
			if tt.want == entity.VerificationVerified {
				assert.NotNil(t, v.VerifiedAt)
				assert.Equal(t, entity.RequestApproved, store.requests[0].Status)
				assert.Equal(t, entity.AuditVerificationComplete, last.Type)
			} else {
				assert.Equal(t, entity.RequestPending, store.requests[0].Status)
				assert.Equal(t, entity.AuditReview, last.Type)
			}
		})
	}
}

func TestConsumerIgnoresDuplicateRun(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)
	pub := &recordingPublisher{}
	cs := newTestConsumer(store, pub, 95)

	payload := completedMessage(student.Id, "stanford", 96)
	first := deliver(t, cs, payload)
	second := deliver(t, cs, payload)

	assert.True(t, acked(first))
	assert.True(t, acked(second))
	assert.Len(t, store.verifications, 1)
	assert.Len(t, store.requests, 1)
	assert.Len(t, pub.Types(), 1)

	payload.RunId = uuid.New()
	deliver(t, cs, payload)
	require.Len(t, store.verifications, 2)
	assert.Equal(t, "VER-2024-000002", store.verifications[1].Code)
}

func TestConsumerUnknownInstitution(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	pub := &recordingPublisher{}

	deliver(t, newTestConsumer(store, pub, 95), completedMessage(student.Id, "Unseen College", 96))

	require.Len(t, store.verifications, 1)
	v := store.verifications[0]
	assert.Nil(t, v.InstitutionId)
	assert.Equal(t, "Unseen College", v.InstitutionName)
	assert.Empty(t, store.requests)
	assert.NotContains(t, pub.Last().Payload(), "institution_id")
}

func TestConsumerQRCredential(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)

	qr := processing.QRPayload{
		Type:        "academic_credential",
		Institution: "Stanford University",
		StudentID:   "STU123456789",
		DocumentID:  "DOC-2024-001",
		IssueDate:   "2024-06-15",
		Degree:      "Bachelor of Science in Computer Science",
	}
	payload := dto.SubmissionCompletedMessage{
		SubmissionId: uuid.New(),
		RunId:        uuid.New(),
		UserId:       student.Id,
		Source:       processing.SourceQR,
		Extraction:   qr.Extraction(),
		QR:           &qr,
		CompletedAt:  time.Date(2024, 6, 20, 0, 0, 0, 0, time.UTC),
	}

	deliver(t, newTestConsumer(store, &recordingPublisher{}, 95), payload)

	require.Len(t, store.verifications, 1)
	v := store.verifications[0]
	assert.Equal(t, 100, v.Score)
	assert.Equal(t, qrMethod, v.Method)
	assert.Equal(t, "DOC-2024-001", v.DocumentName)
	assert.Equal(t, v.FieldsMatched, v.FieldsTotal)
	assert.Equal(t, "QR Code Decoded", store.audit[1].Title)
	require.Len(t, store.requests, 1)
	assert.Equal(t, entity.PriorityLow, store.requests[0].Priority)
}

func TestConsumerAcksPoisonMessage(t *testing.T) {
	store := newMemStore()
	cs := newTestConsumer(store, &recordingPublisher{}, 95)

	msg := message.NewMessage(watermill.NewUUID(), []byte("{not json"))
	cs.processMessage(context.Background(), msg)

	assert.True(t, acked(msg))
	assert.Empty(t, store.verifications)
}

func TestConsumeFromChannel(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)

	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cs := NewConsumerService(pubSub, SubmissionCompletedTopic, store, &recordingPublisher{}, logger.NewNopLogger(), 95)
	require.NoError(t, cs.Consume(ctx))

	raw, err := json.Marshal(completedMessage(student.Id, "stanford", 96))
	require.NoError(t, err)
	require.NoError(t, NewPublisherService(pubSub, SubmissionCompletedTopic).Publish(ctx, raw))

	assert.Eventually(t, func() bool {
		store.mu.Lock()
		defer store.mu.Unlock()
		return len(store.verifications) == 1
	}, 2*time.Second, 10*time.Millisecond)
}
