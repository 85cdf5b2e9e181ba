package processing

// Phase is one sequential step of the processing pipeline.
type Phase string

const (
	PhaseUpload   Phase = "upload"
	PhaseOCR      Phase = "ocr"
	PhaseValidate Phase = "validate"
)

// Phases lists the pipeline steps in execution order.
var Phases = []Phase{PhaseUpload, PhaseOCR, PhaseValidate}

func (p Phase) status() Status {
	switch p {
	case PhaseUpload:
		return StatusUpload
	case PhaseOCR:
		return StatusOCR
	case PhaseValidate:
		return StatusValidate
	}
	return StatusIdle
}

// Status is the state of a submission as seen by the progress view.
type Status string

const (
	StatusIdle     Status = "IDLE"
	StatusUpload   Status = "UPLOAD"
	StatusOCR      Status = "OCR"
	StatusValidate Status = "VALIDATE"
	StatusComplete Status = "COMPLETE"
	StatusFailed   Status = "FAILED"
)

// Phase returns the phase driven while in s. Only UPLOAD, OCR and VALIDATE
// have one.
func (s Status) Phase() (Phase, bool) {
	switch s {
	case StatusUpload:
		return PhaseUpload, true
	case StatusOCR:
		return PhaseOCR, true
	case StatusValidate:
		return PhaseValidate, true
	}
	return "", false
}

func (s Status) IsActive() bool {
	_, ok := s.Phase()
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Source records how the files of a submission were supplied.
type Source string

const (
	SourceUpload Source = "upload"
	SourceCamera Source = "camera"
	SourceQR     Source = "qr"
)

func (s Source) Valid() bool {
	switch s {
	case SourceUpload, SourceCamera, SourceQR:
		return true
	}
	return false
}

// Progress holds the per-phase percentage, each in [0,100].
type Progress struct {
	Upload   int `json:"upload"`
	OCR      int `json:"ocr"`
	Validate int `json:"validate"`
}

func (p Progress) Of(phase Phase) int {
	switch phase {
	case PhaseUpload:
		return p.Upload
	case PhaseOCR:
		return p.OCR
	case PhaseValidate:
		return p.Validate
	}
	return 0
}

func (p *Progress) set(phase Phase, v int) {
	switch phase {
	case PhaseUpload:
		p.Upload = v
	case PhaseOCR:
		p.OCR = v
	case PhaseValidate:
		p.Validate = v
	}
}
