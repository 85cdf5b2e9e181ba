package memory

import (
	"context"
	"testing"
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/pkg/processing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubmission() *entity.Submission {
	return &entity.Submission{
		Id:        uuid.New(),
		UserId:    uuid.New(),
		Runner:    processing.NewRunner(processing.NewMachine(processing.DefaultConfig())),
		CreatedAt: time.Now(),
	}
}

func TestSaveGetDelete(t *testing.T) {
	repo := NewSubmissionRepository(time.Minute)
	sub := newSubmission()
	repo.Save(sub)

	got, ok := repo.Get(sub.Id)
	require.True(t, ok)
	assert.Same(t, sub, got)
	assert.Equal(t, 1, repo.Count())

	repo.Delete(sub.Id)
	_, ok = repo.Get(sub.Id)
	assert.False(t, ok)
	assert.Zero(t, repo.Count())
}

func TestDeleteStopsRunner(t *testing.T) {
	repo := NewSubmissionRepository(time.Minute)
	sub := newSubmission()
	sub.Runner.Start(context.Background())
	repo.Save(sub)

	repo.Flush()

	assert.Eventually(t, func() bool { return !sub.Runner.Running() }, time.Second, 5*time.Millisecond)
	assert.Zero(t, repo.Count())
}

func TestIdleSubmissionExpires(t *testing.T) {
	repo := NewSubmissionRepository(50 * time.Millisecond)
	sub := newSubmission()
	repo.Save(sub)

	time.Sleep(30 * time.Millisecond)
	_, ok := repo.Get(sub.Id)
	require.True(t, ok)

	time.Sleep(30 * time.Millisecond)
	_, ok = repo.Get(sub.Id)
	assert.True(t, ok, "Get extends the lifetime")

	time.Sleep(80 * time.Millisecond)
	_, ok = repo.Get(sub.Id)
	assert.False(t, ok)
}
