package service

import (
	"context"
	"testing"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/pkg/events"
	"academic-auth-be/pkg/settings"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorded runs completed submissions through the consumer so the store
// holds verifications the way production writes them.
func recorded(t *testing.T, store *memStore, userId uuid.UUID, n int) {
	t.Helper()
	cs := newTestConsumer(store, &recordingPublisher{}, 95)
	for i := 0; i < n; i++ {
		msg := completedMessage(userId, "stanford", 86)
		msg.CompletedAt = msg.CompletedAt.Add(time.Duration(i) * time.Hour)
		deliver(t, cs, msg)
	}
}

type verificationFixture struct {
	svc       IVerificationService
	prefs     *memSettings
	mail      *fakeMailer
	publisher *recordingPublisher
}

func newVerificationFixture(t *testing.T, store *memStore, clientURL string) *verificationFixture {
	t.Helper()
	cfg, err := settings.LoadConfig("")
	require.NoError(t, err)
	f := &verificationFixture{
		prefs:     newMemSettings(),
		mail:      &fakeMailer{},
		publisher: &recordingPublisher{},
	}
	f.svc = NewVerificationService(store, settings.NewManager(f.prefs, cfg), f.mail, f.publisher, logger.NewNopLogger(), clientURL)
	return f
}

// sharing stores privacy settings for userId before the manager first
// loads them.
func (f *verificationFixture) sharing(userId uuid.UUID, share bool, visibility string) {
	st := settings.Defaults()
	st.Privacy.ShareVerificationStatus = share
	st.Privacy.ProfileVisibility = visibility
	f.prefs.data[userId.String()] = st
}

func TestVerificationDetail(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)
	recorded(t, store, student.Id, 1)
	svc := newVerificationFixture(t, store, "https://academicauth.example").svc
	ctx := context.Background()

	res, err := svc.Detail(ctx, student.Id, "ver-2024-000001")
	require.NoError(t, err)
	assert.Equal(t, "VER-2024-000001", res.Code)
	assert.Equal(t, "Sarah Johnson", res.Certificate.IssuedTo)
	assert.Equal(t, "https://academicauth.example/verification-results?code=VER-2024-000001", res.Certificate.ShareURL)
	require.Len(t, res.AuditTrail, 5)
	assert.Equal(t, "Document Submitted", res.AuditTrail[0].Title)
	for i := 1; i < len(res.AuditTrail); i++ {
		assert.True(t, res.AuditTrail[i].Timestamp.After(res.AuditTrail[i-1].Timestamp))
	}

	_, err = svc.Detail(ctx, uuid.New(), "VER-2024-000001")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationList(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)
	recorded(t, store, student.Id, 3)
	store.verifications[0].Status = entity.VerificationVerified
	recorded(t, store, uuid.New(), 1)
	svc := newVerificationFixture(t, store, "").svc

	tests := []struct {
		name      string
		req       dto.ListVerificationsRequest
		wantTotal int64
		wantFirst string
	}{
		{name: "newest first", req: dto.ListVerificationsRequest{}, wantTotal: 3, wantFirst: "VER-2024-000003"},
		{name: "by status", req: dto.ListVerificationsRequest{Status: "verified"}, wantTotal: 1, wantFirst: "VER-2024-000001"},
		{name: "paged", req: dto.ListVerificationsRequest{Limit: 1, Offset: 1}, wantTotal: 3, wantFirst: "VER-2024-000002"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, total, err := svc.List(context.Background(), student.Id, &tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, total)
			require.NotEmpty(t, list)
			assert.Equal(t, tt.wantFirst, list[0].Code)
		})
	}
}

func TestVerificationLookupAndShare(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)
	recorded(t, store, student.Id, 1)
	f := newVerificationFixture(t, store, "http://localhost:5173")
	f.sharing(student.Id, true, "public")
	ctx := context.Background()

	pub, err := f.svc.Lookup(ctx, Viewer{}, " VER-2024-000001 ")
	require.NoError(t, err)
	assert.Equal(t, "Sarah Johnson", pub.HolderName)
	assert.Equal(t, "pending", pub.Status)

	_, err = f.svc.Lookup(ctx, Viewer{}, "VER-1999-000001")
	assert.ErrorIs(t, err, ErrVerificationNotFound)

	link, err := f.svc.ShareLink(ctx, student.Id, "VER-2024-000001")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173/verification-results?code=VER-2024-000001", link.URL)
	assert.True(t, link.Public)

	_, err = f.svc.ShareLink(ctx, uuid.New(), "VER-2024-000001")
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestVerificationLookupHonoursPrivacy(t *testing.T) {
	staff := Viewer{Role: string(entity.UserRoleInstitution)}
	student := Viewer{Role: string(entity.UserRoleStudent)}

	tests := []struct {
		name       string
		share      bool
		visibility string
		viewer     Viewer
		wantErr    error
		wantName   string
	}{
		{name: "status not shared", share: false, visibility: "public", wantErr: ErrVerificationNotFound},
		{name: "private profile hides the name", share: true, visibility: "private", viewer: staff},
		{name: "institutions only, anonymous", share: true, visibility: "institutions"},
		{name: "institutions only, another student", share: true, visibility: "institutions", viewer: student},
		{name: "institutions only, staff", share: true, visibility: "institutions", viewer: staff, wantName: "Sarah Johnson"},
		{name: "public profile", share: true, visibility: "public", wantName: "Sarah Johnson"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMemStore()
			holder := seedStudent(store)
			seedInstitution(store, "stanford", "Stanford University", false)
			recorded(t, store, holder.Id, 1)
			f := newVerificationFixture(t, store, "")
			f.sharing(holder.Id, tt.share, tt.visibility)

			res, err := f.svc.Lookup(context.Background(), tt.viewer, "VER-2024-000001")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "VER-2024-000001", res.Code)
			assert.Equal(t, tt.wantName, res.HolderName)
		})
	}
}

func TestVerificationLookupDefaultsToHidden(t *testing.T) {
	store := newMemStore()
	holder := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)
	recorded(t, store, holder.Id, 1)
	f := newVerificationFixture(t, store, "")

	_, err := f.svc.Lookup(context.Background(), Viewer{}, "VER-2024-000001")
	assert.ErrorIs(t, err, ErrVerificationNotFound)

	link, err := f.svc.ShareLink(context.Background(), holder.Id, "VER-2024-000001")
	require.NoError(t, err)
	assert.False(t, link.Public)
}

func TestShareResultsByEmail(t *testing.T) {
	store := newMemStore()
	holder := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)
	recorded(t, store, holder.Id, 1)
	f := newVerificationFixture(t, store, "http://localhost:5173")
	ctx := context.Background()

	res, err := f.svc.ShareByEmail(ctx, holder.Id, "VER-2024-000001", &dto.ShareByEmailRequest{Email: " HR@Acme.example "})
	require.NoError(t, err)
	assert.Equal(t, "hr@acme.example", res.Recipient)
	assert.Equal(t, "http://localhost:5173/verification-results?code=VER-2024-000001", res.URL)
	require.Len(t, f.mail.sent, 1)
	assert.Equal(t, sentMail{to: "hr@acme.example", code: "VER-2024-000001"}, f.mail.sent[0])

	detail, err := f.svc.Detail(ctx, holder.Id, "VER-2024-000001")
	require.NoError(t, err)
	last := detail.AuditTrail[len(detail.AuditTrail)-1]
	assert.Equal(t, string(entity.AuditShared), last.Type)
	assert.Equal(t, "hr@acme.example", last.Details["recipient"])

	_, err = f.svc.ShareByEmail(ctx, uuid.New(), "VER-2024-000001", &dto.ShareByEmailRequest{Email: "hr@acme.example"})
	assert.ErrorIs(t, err, ErrVerificationNotFound)
	assert.Len(t, f.mail.sent, 1)
}

func TestDisputeRejectedVerification(t *testing.T) {
	store := newMemStore()
	holder := seedStudent(store)
	inst := seedInstitution(store, "stanford", "Stanford University", false)
	recorded(t, store, holder.Id, 1)
	f := newVerificationFixture(t, store, "")
	ctx := context.Background()
	req := &dto.DisputeRequest{Reason: "The registrar misread my graduation date."}

	_, err := f.svc.Dispute(ctx, holder.Id, "VER-2024-000001", req)
	assert.ErrorIs(t, err, ErrDisputeNotAllowed)

	reviewer := uuid.New()
	require.Len(t, store.requests, 1)
	store.verifications[0].Status = entity.VerificationRejected
	store.requests[0].Status = entity.RequestRejected
	store.requests[0].ReviewedBy = &reviewer

	res, err := f.svc.Dispute(ctx, holder.Id, "VER-2024-000001", req)
	require.NoError(t, err)
	assert.Equal(t, "pending", res.Status)
	assert.Equal(t, entity.VerificationPending, store.verifications[0].Status)
	assert.Equal(t, entity.RequestPending, store.requests[0].Status)
	assert.Equal(t, reviewer, *store.requests[0].ReviewedBy)

	detail, err := f.svc.Detail(ctx, holder.Id, "VER-2024-000001")
	require.NoError(t, err)
	last := detail.AuditTrail[len(detail.AuditTrail)-1]
	assert.Equal(t, "Dispute Submitted", last.Title)
	assert.Equal(t, req.Reason, last.Description)
	assert.Equal(t, "Sarah Johnson", last.Performer)

	e := f.publisher.Last()
	require.NotNil(t, e)
	assert.Equal(t, events.VerificationDisputed, e.EventType())
	assert.Equal(t, inst.Id.String(), events.String(e, "institution_id"))

	// a pending verification cannot be disputed again
	_, err = f.svc.Dispute(ctx, holder.Id, "VER-2024-000001", req)
	assert.ErrorIs(t, err, ErrDisputeNotAllowed)
	_, err = f.svc.Dispute(ctx, uuid.New(), "VER-2024-000001", req)
	assert.ErrorIs(t, err, ErrVerificationNotFound)
}

func TestDashboardOverview(t *testing.T) {
	store := newMemStore()
	student := seedStudent(store)
	seedInstitution(store, "stanford", "Stanford University", false)
	svc := NewDashboardService(store)
	ctx := context.Background()

	empty, err := svc.Overview(ctx, student.Id)
	require.NoError(t, err)
	assert.Zero(t, empty.Stats.Total)
	assert.Empty(t, empty.RecentActivity)
	assert.NotNil(t, empty.RecentActivity)

	recorded(t, store, student.Id, 6)
	store.verifications[0].Status = entity.VerificationVerified
	store.verifications[1].Status = entity.VerificationRejected

	res, err := svc.Overview(ctx, student.Id)
	require.NoError(t, err)
	assert.Equal(t, dto.DashboardStats{Total: 6, Verified: 1, Pending: 4, Rejected: 1}, res.Stats)
	require.Len(t, res.RecentVerifications, recentVerificationLimit)
	assert.Equal(t, "VER-2024-000006", res.RecentVerifications[0].Code)
	require.Len(t, res.RecentActivity, recentActivityLimit)
	assert.Equal(t, "VER-2024-000006", res.RecentActivity[0].VerificationCode)
	assert.Equal(t, "Awaiting Review", res.RecentActivity[0].Title)
}
