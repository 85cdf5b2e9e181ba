package config

import (
	"testing"
	"time"

	"academic-auth-be/pkg/processing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "fixture", cfg.Provider.Mode)
	assert.False(t, cfg.Processing.QRRequiresValidation)
	assert.Equal(t, processing.DefaultConfig(), cfg.Processing.Machine())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PROCESSING_UPLOAD_STEP", "25")
	t.Setenv("PROCESSING_OCR_INTERVAL", "1s")
	t.Setenv("PROCESSING_QR_REQUIRES_VALIDATION", "true")
	t.Setenv("AUTO_APPROVE_THRESHOLD", "not-a-number")

	cfg := Load()
	m := cfg.Processing.Machine()

	assert.Equal(t, 25, m.Steps[processing.PhaseUpload].Increment)
	assert.Equal(t, time.Second, m.Steps[processing.PhaseOCR].Interval)
	assert.True(t, m.QRRequiresValidation)
	assert.Equal(t, 90, cfg.Provider.AutoApproveThreshold)
}
