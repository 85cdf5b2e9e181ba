package service

import (
	"context"
	"testing"
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"
	"academic-auth-be/pkg/provider/fixture"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRequest(m *memStore, institutionId uuid.UUID, docType string, status entity.RequestStatus, submitted time.Time) *entity.VerificationRequest {
	r := &entity.VerificationRequest{
		Id:             uuid.New(),
		VerificationId: uuid.New(),
		InstitutionId:  institutionId,
		DocumentType:   docType,
		Status:         status,
		SubmittedAt:    submitted,
		UpdatedAt:      submitted,
	}
	m.requests = append(m.requests, r)
	return r
}

func claim() provider.VerificationInput {
	return provider.VerificationInput{
		Institution:    "Stanford University",
		DocumentType:   "transcript",
		Degree:         "Bachelor of Science in Computer Science",
		GraduationDate: "2024-06-15",
		StudentName:    "Sarah Johnson",
		StudentID:      "STU-2024-001",
		Confidence:     94,
		Source:         processing.SourceUpload,
	}
}

func TestRecordsVerifierCrossReference(t *testing.T) {
	fx, err := fixture.New()
	require.NoError(t, err)

	tests := []struct {
		name              string
		mutate            func(*provider.VerificationInput)
		wantMatched       int
		wantScore         int
		wantDiscrepancies []string
	}{
		{name: "every field on record", mutate: func(*provider.VerificationInput) {}, wantMatched: 6, wantScore: 98},
		{
			name:        "qr payloads count as exact",
			mutate:      func(in *provider.VerificationInput) { in.Source = processing.SourceQR },
			wantMatched: 6,
			wantScore:   100,
		},
		{
			name: "unknown student and future date",
			mutate: func(in *provider.VerificationInput) {
				in.StudentID = "STU-0000-000"
				in.GraduationDate = time.Now().AddDate(1, 0, 0).Format(processing.GraduationDateLayout)
			},
			wantMatched:       4,
			wantScore:         74,
			wantDiscrepancies: []string{"graduationDate", "studentId"},
		},
		{
			name:              "unlisted document type",
			mutate:            func(in *provider.VerificationInput) { in.DocumentType = "passport" },
			wantMatched:       5,
			wantScore:         86,
			wantDiscrepancies: []string{"documentType"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			seedStudent(store)
			seedInstitution(store, "stanford", "Stanford University", false)
			in := claim()
			tt.mutate(&in)

			out, err := NewRecordsVerifier(store, fx).CrossReference(context.Background(), in)
			require.NoError(t, err)
			assert.Equal(t, 6, out.FieldsTotal)
			assert.Equal(t, tt.wantMatched, out.FieldsMatched)
			assert.Equal(t, tt.wantScore, out.Score)
			assert.Equal(t, tt.wantDiscrepancies, out.Discrepancies)
			assert.Equal(t, "Dr. Michael Chen", out.Registrar)
			assert.Equal(t, recordsMethod, out.Method)
		})
	}
}

func TestRecordsVerifierUnregisteredInstitution(t *testing.T) {
	store := newMemStore()
	seedStudent(store)

	in := claim()
	in.Institution = "Unseen College"
	out, err := NewRecordsVerifier(store, nil).CrossReference(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, "Unseen College", out.InstitutionName)
	assert.Equal(t, "Institution is not registered for verification", out.InstitutionResponse)
	assert.Contains(t, out.Discrepancies, "institution")
	assert.Contains(t, out.Discrepancies, "studentId")
	assert.Empty(t, out.Registrar)
}

func TestRecordsVerifierSuccessRate(t *testing.T) {
	store := newMemStore()
	inst := seedInstitution(store, "stanford", "Stanford University", false)
	now := time.Now()
	for i := 0; i < 3; i++ {
		seedRequest(store, inst.Id, "transcript", entity.RequestApproved, now)
	}
	seedRequest(store, inst.Id, "transcript", entity.RequestRejected, now)
	seedRequest(store, inst.Id, "transcript", entity.RequestPending, now)

	out, err := NewRecordsVerifier(store, nil).CrossReference(context.Background(), claim())
	require.NoError(t, err)
	assert.InDelta(t, 75.0, out.SuccessRate, 0.001)
}

func TestRecordsAnalytics(t *testing.T) {
	store := newMemStore()
	inst := seedInstitution(store, "stanford", "Stanford University", false)
	other := seedInstitution(store, "mit", "Massachusetts Institute of Technology", false)
	recent := time.Now().Add(-24 * time.Hour)

	seedRequest(store, inst.Id, "transcript", entity.RequestApproved, recent)
	seedRequest(store, inst.Id, "transcript", entity.RequestApproved, recent)
	seedRequest(store, inst.Id, "transcript", entity.RequestApproved, recent)
	seedRequest(store, inst.Id, "diploma", entity.RequestRejected, recent)
	seedRequest(store, inst.Id, "diploma", entity.RequestPending, recent)
	seedRequest(store, inst.Id, "certificate", entity.RequestInReview, recent)
	seedRequest(store, inst.Id, "transcript", entity.RequestApproved, time.Now().AddDate(0, -6, 0))
	seedRequest(store, other.Id, "transcript", entity.RequestPending, recent)

	a, err := NewRecordsAnalytics(store).Analytics(context.Background(), inst.Id.String(), provider.Range7Days)
	require.NoError(t, err)

	assert.Equal(t, provider.Range7Days, a.Range)
	assert.Equal(t, 6, a.Stats.TotalVerifications)
	assert.Equal(t, 2, a.Stats.PendingRequests)
	assert.InDelta(t, 75.0, a.Stats.SuccessRate, 0.001)
	require.NotEmpty(t, a.DocumentTypes)
	assert.Equal(t, provider.Share{Name: "transcript", Value: 3}, a.DocumentTypes[0])
	assert.Empty(t, a.ProcessingTime)
}

func TestRecordsAnalyticsRejectsBadID(t *testing.T) {
	_, err := NewRecordsAnalytics(newMemStore()).Analytics(context.Background(), "not-a-uuid", provider.Range30Days)
	assert.Error(t, err)
}
