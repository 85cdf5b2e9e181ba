package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"testing"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/service"
	"academic-auth-be/pkg/processing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type stubSubmissions struct {
	service.ISubmissionService
	gotSource processing.Source
	gotFiles  []processing.File
	retryErr  error
}

func (s *stubSubmissions) SubmitFiles(_ context.Context, _, id uuid.UUID, source processing.Source, files []processing.File) (*dto.SubmitFilesResponse, error) {
	s.gotSource = source
	s.gotFiles = files
	return &dto.SubmitFilesResponse{Submission: dto.SubmissionResponse{Id: id}}, nil
}

func (s *stubSubmissions) Retry(_ context.Context, _, id uuid.UUID) (*dto.SubmissionResponse, error) {
	if s.retryErr != nil {
		return nil, s.retryErr
	}
	return &dto.SubmissionResponse{Id: id}, nil
}

func (s *stubSubmissions) Get(_ context.Context, _, _ uuid.UUID) (*dto.SubmissionResponse, error) {
	return nil, service.ErrSubmissionNotFound
}

func newSubmissionApp(stub *stubSubmissions) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandlerMiddleware})
	NewSubmissionController(stub, testSecret).RegisterRoutes(app.Group("/api"))
	return app
}

func bearer(t *testing.T) string {
	t.Helper()
	token, _, err := serverutils.IssueToken(testSecret, uuid.New(), serverutils.RoleStudent, nil, time.Hour)
	require.NoError(t, err)
	return "Bearer " + token
}

func decode(t *testing.T, body []byte) serverutils.BaseResponse[json.RawMessage] {
	t.Helper()
	var res serverutils.BaseResponse[json.RawMessage]
	require.NoError(t, json.Unmarshal(body, &res))
	return res
}

func TestSubmitFilesMultipart(t *testing.T) {
	stub := &stubSubmissions{}
	app := newSubmissionApp(stub)
	id := uuid.New()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("files", "transcript.pdf")
	require.NoError(t, err)
	_, _ = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, w.WriteField("source", "camera"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/submission/v1/"+id.String()+"/files", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", bearer(t))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	assert.Equal(t, processing.SourceCamera, stub.gotSource)
	require.Len(t, stub.gotFiles, 1)
	assert.Equal(t, "transcript.pdf", stub.gotFiles[0].Name)
	assert.Equal(t, []byte("%PDF-1.7"), stub.gotFiles[0].Data)
}

func TestSubmissionErrors(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		auth     bool
		retryErr error
		wantCode int
	}{
		{name: "no token", method: "GET", path: "/api/submission/v1/" + uuid.NewString(), wantCode: 401},
		{name: "bad id", method: "GET", path: "/api/submission/v1/not-a-uuid", auth: true, wantCode: 400},
		{name: "unknown submission", method: "GET", path: "/api/submission/v1/" + uuid.NewString(), auth: true, wantCode: 404},
		{name: "retry while active", method: "POST", path: "/api/submission/v1/" + uuid.NewString() + "/retry", auth: true, retryErr: processing.ErrInvalidTransition, wantCode: 409},
		{name: "retry", method: "POST", path: "/api/submission/v1/" + uuid.NewString() + "/retry", auth: true, wantCode: 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newSubmissionApp(&stubSubmissions{retryErr: tt.retryErr})
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.auth {
				req.Header.Set("Authorization", bearer(t))
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)

			var buf bytes.Buffer
			_, _ = buf.ReadFrom(resp.Body)
			res := decode(t, buf.Bytes())
			assert.Equal(t, tt.wantCode == 200, res.Success)
			assert.Equal(t, tt.wantCode, res.Code)
		})
	}
}
