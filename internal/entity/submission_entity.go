package entity

import (
	"sync"
	"time"

	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"github.com/google/uuid"
)

// Submission is a live document run held in memory while its owner walks
// through upload, OCR and validation.
type Submission struct {
	Id        uuid.UUID
	UserId    uuid.UUID
	Runner    *processing.Runner
	CreatedAt time.Time

	// op serializes operations that replace the current run
	op sync.Mutex

	mu      sync.Mutex
	runId   uuid.UUID
	draft   *processing.Extraction
	outcome *provider.VerificationOutcome
	files   []StoredFile
}

func (s *Submission) Machine() *processing.Machine { return s.Runner.Machine() }

func (s *Submission) Draft() *processing.Extraction {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draft == nil {
		return nil
	}
	d := *s.draft
	return &d
}

func (s *Submission) SetDraft(e *processing.Extraction) {
	s.mu.Lock()
	s.draft = e
	s.mu.Unlock()
}

func (s *Submission) Outcome() *provider.VerificationOutcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.outcome == nil {
		return nil
	}
	o := *s.outcome
	return &o
}

func (s *Submission) SetOutcome(o *provider.VerificationOutcome) {
	s.mu.Lock()
	s.outcome = o
	s.mu.Unlock()
}

func (s *Submission) StoredFiles() []StoredFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]StoredFile(nil), s.files...)
}

func (s *Submission) SetStoredFiles(files []StoredFile) {
	s.mu.Lock()
	s.files = files
	s.mu.Unlock()
}

// Exclusive runs fn while no other run-replacing operation on s is in
// progress.
func (s *Submission) Exclusive(fn func() error) error {
	s.op.Lock()
	defer s.op.Unlock()
	return fn()
}

// NewRun forgets the results of the previous run and returns the id of
// the next one.
func (s *Submission) NewRun() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLocked()
	s.runId = uuid.New()
	return s.runId
}

// Reset forgets the results of the previous run without starting another.
func (s *Submission) Reset() {
	s.mu.Lock()
	s.clearLocked()
	s.runId = uuid.Nil
	s.mu.Unlock()
}

func (s *Submission) clearLocked() {
	s.draft = nil
	s.outcome = nil
	s.files = nil
}

func (s *Submission) RunId() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runId
}
