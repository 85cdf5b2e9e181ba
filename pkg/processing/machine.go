package processing

import (
	"context"
	"sync"
	"time"
)

// StepConfig is the simulated progress of a phase: Increment percent every
// Interval.
type StepConfig struct {
	Increment int
	Interval  time.Duration
}

type Config struct {
	Steps map[Phase]StepConfig
	// QRRequiresValidation routes decoded QR payloads through the validation
	// phase instead of completing immediately.
	QRRequiresValidation bool
}

func DefaultConfig() Config {
	return Config{
		Steps: map[Phase]StepConfig{
			PhaseUpload:   {Increment: 10, Interval: 200 * time.Millisecond},
			PhaseOCR:      {Increment: 15, Interval: 300 * time.Millisecond},
			PhaseValidate: {Increment: 20, Interval: 250 * time.Millisecond},
		},
	}
}

func (c Config) step(p Phase) StepConfig {
	s, ok := c.Steps[p]
	if !ok || s.Increment <= 0 {
		s = DefaultConfig().Steps[p]
	}
	if s.Interval <= 0 {
		s.Interval = DefaultConfig().Steps[p].Interval
	}
	return s
}

// StepFunc performs the work of a phase. It is called on every tick before
// progress is advanced; a non-nil error fails the submission.
type StepFunc func(ctx context.Context, phase Phase, progress int) error

// Listener observes every state change.
type Listener func(Snapshot)

// Snapshot is a copy of the machine state.
type Snapshot struct {
	Status              Status      `json:"status"`
	Source              Source      `json:"source,omitempty"`
	Progress            Progress    `json:"progress"`
	Files               []FileInfo  `json:"files"`
	Extraction          *Extraction `json:"extraction,omitempty"`
	QR                  *QRPayload  `json:"qr,omitempty"`
	ExtractionConfirmed bool        `json:"extraction_confirmed"`
	ErrorMessage        string      `json:"error_message,omitempty"`
	Version             uint64      `json:"version"`
}

// Phase returns the active phase, if any.
func (s Snapshot) Phase() (Phase, bool) { return s.Status.Phase() }

type Option func(*Machine)

func WithStep(fn StepFunc) Option {
	return func(m *Machine) { m.step = fn }
}

func WithListener(fn Listener) Option {
	return func(m *Machine) { m.listeners = append(m.listeners, fn) }
}

// Machine sequences one submission through upload, ocr and validate.
// Exactly one phase is active at a time and COMPLETE and FAILED are terminal
// until Retry.
type Machine struct {
	mu        sync.Mutex
	cfg       Config
	step      StepFunc
	listeners []Listener

	status     Status
	source     Source
	progress   Progress
	files      []File
	extraction *Extraction
	qr         *QRPayload
	confirmed  bool
	errMsg     string
	version    uint64
	// epoch changes whenever a submission is reset or interrupted so that an
	// in-flight step result can be discarded.
	epoch uint64
}

func NewMachine(cfg Config, opts ...Option) *Machine {
	m := &Machine{cfg: cfg, status: StatusIdle}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Config returns the configuration the machine was built with.
func (m *Machine) Config() Config { return m.cfg }

// Files returns the submitted blobs.
func (m *Machine) Files() []File {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]File, len(m.files))
	copy(out, m.files)
	return out
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *Machine) snapshotLocked() Snapshot {
	s := Snapshot{
		Status:              m.status,
		Source:              m.source,
		Progress:            m.progress,
		Files:               make([]FileInfo, 0, len(m.files)),
		ExtractionConfirmed: m.confirmed,
		ErrorMessage:        m.errMsg,
		Version:             m.version,
	}
	for _, f := range m.files {
		s.Files = append(s.Files, f.Info())
	}
	if m.extraction != nil {
		e := *m.extraction
		if m.extraction.Fields != nil {
			e.Fields = make(map[string]string, len(m.extraction.Fields))
			for k, v := range m.extraction.Fields {
				e.Fields[k] = v
			}
		}
		s.Extraction = &e
	}
	if m.qr != nil {
		q := *m.qr
		s.QR = &q
	}
	return s
}

// commitLocked bumps the version and returns the snapshot to publish once
// the lock is released.
func (m *Machine) commitLocked() Snapshot {
	m.version++
	return m.snapshotLocked()
}

func (m *Machine) notify(s Snapshot) {
	for _, l := range m.listeners {
		l(s)
	}
}

// Submit starts a submission with a non-empty file list.
func (m *Machine) Submit(source Source, files []File) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if source == "" {
		source = SourceUpload
	}
	m.mu.Lock()
	if m.status != StatusIdle {
		from := m.status
		m.mu.Unlock()
		return transitionError("submit", from)
	}
	m.files = append([]File(nil), files...)
	m.source = source
	m.progress = Progress{}
	m.status = StatusUpload
	s := m.commitLocked()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

// Tick advances the active phase by one step.
func (m *Machine) Tick(ctx context.Context) (Snapshot, error) {
	m.mu.Lock()
	phase, ok := m.status.Phase()
	if !ok {
		s := m.snapshotLocked()
		m.mu.Unlock()
		return s, ErrNotActive
	}
	current := m.progress.Of(phase)
	if phase == PhaseOCR && current >= 100 {
		// saturated; waiting for extraction confirmation
		s := m.snapshotLocked()
		m.mu.Unlock()
		return s, nil
	}
	epoch := m.epoch
	step := m.step
	m.mu.Unlock()

	var stepErr error
	if step != nil {
		stepErr = step(ctx, phase, current)
	}

	m.mu.Lock()
	if m.epoch != epoch || m.status != phase.status() {
		// interrupted while the step ran
		s := m.snapshotLocked()
		m.mu.Unlock()
		return s, nil
	}
	if stepErr != nil {
		m.status = StatusFailed
		m.errMsg = stepErr.Error()
		s := m.commitLocked()
		m.mu.Unlock()
		m.notify(s)
		return s, nil
	}

	next := current + m.cfg.step(phase).Increment
	if next > 100 {
		next = 100
	}
	m.progress.set(phase, next)
	if next == 100 {
		switch phase {
		case PhaseUpload:
			m.status = StatusOCR
		case PhaseOCR:
			if m.confirmed {
				m.status = StatusValidate
			}
		case PhaseValidate:
			m.status = StatusComplete
		}
	}
	s := m.commitLocked()
	m.mu.Unlock()

	m.notify(s)
	return s, nil
}

// ConfirmExtraction records the user-confirmed OCR result. Validation starts
// once both the confirmation is present and OCR progress is saturated.
func (m *Machine) ConfirmExtraction(e Extraction) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	if m.status != StatusOCR {
		from := m.status
		m.mu.Unlock()
		return transitionError("confirm extraction", from)
	}
	m.extraction = &e
	m.confirmed = true
	if m.progress.OCR >= 100 {
		m.status = StatusValidate
	}
	s := m.commitLocked()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

// DetectQR accepts a decoded credential payload. By default it completes the
// submission without running any phase; with QRRequiresValidation it enters
// the validation phase with the payload as a confirmed extraction.
func (m *Machine) DetectQR(p QRPayload) error {
	m.mu.Lock()
	if m.status != StatusIdle && m.status != StatusComplete {
		from := m.status
		m.mu.Unlock()
		return transitionError("accept QR payload", from)
	}
	if m.cfg.QRRequiresValidation {
		if m.status != StatusIdle {
			from := m.status
			m.mu.Unlock()
			return transitionError("validate QR payload", from)
		}
		e := p.Extraction()
		if err := e.Validate(); err != nil {
			m.mu.Unlock()
			return err
		}
		m.extraction = &e
		m.confirmed = true
		m.status = StatusValidate
	} else {
		m.status = StatusComplete
	}
	m.source = SourceQR
	m.qr = &p
	m.errMsg = ""
	m.epoch++
	s := m.commitLocked()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

// Fail moves an active submission to FAILED with progress frozen.
func (m *Machine) Fail(message string) error {
	m.mu.Lock()
	if !m.status.IsActive() {
		from := m.status
		m.mu.Unlock()
		return transitionError("fail", from)
	}
	m.status = StatusFailed
	m.errMsg = message
	m.epoch++
	s := m.commitLocked()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

// Retry resets a finished submission to IDLE.
func (m *Machine) Retry() error {
	m.mu.Lock()
	if !m.status.IsTerminal() {
		from := m.status
		m.mu.Unlock()
		return transitionError("retry", from)
	}
	m.resetLocked()
	s := m.commitLocked()
	m.mu.Unlock()

	m.notify(s)
	return nil
}

// Abandon resets the machine from any state. It is used on teardown.
func (m *Machine) Abandon() {
	m.mu.Lock()
	if m.status == StatusIdle && len(m.files) == 0 && m.qr == nil {
		m.mu.Unlock()
		return
	}
	m.resetLocked()
	s := m.commitLocked()
	m.mu.Unlock()

	m.notify(s)
}

func (m *Machine) resetLocked() {
	m.epoch++
	m.status = StatusIdle
	m.source = ""
	m.progress = Progress{}
	m.files = nil
	m.extraction = nil
	m.qr = nil
	m.confirmed = false
	m.errMsg = ""
}
