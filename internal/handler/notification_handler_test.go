package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"academic-auth-be/internal/model"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/repository/implementation"
	"academic-auth-be/pkg/events"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubReader struct {
	gotLimit, gotOffset int
	read                []uuid.UUID
}

func (s *stubReader) GetNotifications(_ context.Context, _ uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	s.gotLimit, s.gotOffset = limit, offset
	return []model.Notification{{ID: uuid.New(), Title: "Verification Approved"}}, 1, nil
}

func (s *stubReader) GetUnreadCount(context.Context, uuid.UUID) (int64, error) { return 3, nil }

func (s *stubReader) MarkAsRead(_ context.Context, _, id uuid.UUID) error {
	if len(s.read) > 0 && s.read[0] == id {
		return implementation.ErrNotificationNotFound
	}
	s.read = append(s.read, id)
	return nil
}

func (s *stubReader) MarkAllAsRead(context.Context, uuid.UUID) error { return nil }

type stubPublisher struct {
	published []events.Event
}

func (p *stubPublisher) Publish(_ context.Context, e events.Event) error {
	p.published = append(p.published, e)
	return nil
}

func newHandlerApp(reader *stubReader, pub *stubPublisher) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandlerMiddleware})
	NewNotificationHandler(reader, pub, nil, testSecret, logger.NewNopLogger()).RegisterRoutes(app.Group("/api"))
	return app
}

func token(t *testing.T, role string, inst *uuid.UUID) string {
	t.Helper()
	tok, _, err := serverutils.IssueToken(testSecret, uuid.New(), role, inst, time.Hour)
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestNotificationRoutes(t *testing.T) {
	reader := &stubReader{}
	app := newHandlerApp(reader, &stubPublisher{})
	student := token(t, serverutils.RoleStudent, nil)
	id := uuid.New()

	tests := []struct {
		name     string
		method   string
		path     string
		auth     string
		wantCode int
	}{
		{name: "list", method: "GET", path: "/api/notifications/?limit=500&offset=-3", auth: student, wantCode: 200},
		{name: "unread", method: "GET", path: "/api/notifications/unread-count", auth: student, wantCode: 200},
		{name: "no token", method: "GET", path: "/api/notifications/unread-count", wantCode: 401},
		{name: "mark read", method: "PATCH", path: "/api/notifications/" + id.String() + "/read", auth: student, wantCode: 200},
		{name: "already gone", method: "PATCH", path: "/api/notifications/" + id.String() + "/read", auth: student, wantCode: 404},
		{name: "bad id", method: "PATCH", path: "/api/notifications/abc/read", auth: student, wantCode: 400},
		{name: "read all", method: "PATCH", path: "/api/notifications/read-all", auth: student, wantCode: 200},
		{name: "ws without upgrade", method: "GET", path: "/api/ws", auth: student, wantCode: fiber.StatusUpgradeRequired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}

	assert.Equal(t, 20, reader.gotLimit)
	assert.Equal(t, 0, reader.gotOffset)
}

func TestBroadcastRequiresInstitutionStaff(t *testing.T) {
	pub := &stubPublisher{}
	app := newHandlerApp(&stubReader{}, pub)
	inst := uuid.New()
	body := `{"title":"Maintenance","message":"Verification is paused tonight"}`

	send := func(auth string) int {
		req := httptest.NewRequest("POST", "/api/notifications/broadcast", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", auth)
		resp, err := app.Test(req)
		require.NoError(t, err)
		return resp.StatusCode
	}

	assert.Equal(t, fiber.StatusForbidden, send(token(t, serverutils.RoleStudent, nil)))
	assert.Empty(t, pub.published)

	assert.Equal(t, fiber.StatusAccepted, send(token(t, serverutils.RoleInstitution, &inst)))
	require.Len(t, pub.published, 1)
	assert.Equal(t, events.SystemBroadcast, pub.published[0].EventType())
	assert.Equal(t, "Verification is paused tonight", events.String(pub.published[0], "message"))
	assert.NotEmpty(t, events.String(pub.published[0], "actor_id"))
}
