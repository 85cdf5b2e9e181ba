package server

import (
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"academic-auth-be/internal/pkg/serverutils"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const indexHTML = "<!doctype html><div id=\"root\"></div>"

func newClientApp(t *testing.T) *fiber.App {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte(indexHTML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.ErrorHandlerMiddleware})
	RegisterClient(app, dir)
	return app
}

func TestRegisterClient(t *testing.T) {
	app := newClientApp(t)

	tests := []struct {
		path     string
		wantCode int
		wantBody string
	}{
		{path: "/", wantCode: 200, wantBody: indexHTML},
		{path: "/document-upload", wantCode: 200, wantBody: indexHTML},
		{path: "/verification-results?code=VER-2024-000001", wantCode: 200, wantBody: indexHTML},
		{path: "/app.js", wantCode: 200, wantBody: "console.log(1)"},
		{path: "/no-such-page", wantCode: 404, wantBody: indexHTML},
		{path: "/api/unknown", wantCode: 404},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCode, resp.StatusCode)
			if tt.wantBody != "" {
				body, err := io.ReadAll(resp.Body)
				require.NoError(t, err)
				assert.Equal(t, tt.wantBody, string(body))
			}
		})
	}
}
