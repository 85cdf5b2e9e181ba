// Package provider defines the data sources behind document processing:
// text extraction, QR decoding, institutional cross-reference and
// analytics. A fixture implementation serves demonstration data and live
// implementations call real backends.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"academic-auth-be/pkg/processing"
)

var (
	ErrUnknownMode        = errors.New("unknown provider mode")
	ErrNoDocuments        = errors.New("no documents to extract")
	ErrUnknownRange       = errors.New("unknown analytics range")
	ErrUndecodablePayload = errors.New("qr payload could not be decoded")
)

const (
	ModeFixture = "fixture"
	ModeLive    = "live"
)

type ExtractionProvider interface {
	Name() string
	Extract(ctx context.Context, files []processing.File) (processing.Extraction, error)
}

type QRDecoder interface {
	Decode(ctx context.Context, raw string) (processing.QRPayload, error)
}

// VerificationInput is what a submission claims about a credential.
type VerificationInput struct {
	Institution    string
	DocumentType   string
	Degree         string
	GraduationDate string
	StudentName    string
	StudentID      string
	Confidence     int
	Source         processing.Source
	Fields         map[string]string
}

// VerificationOutcome is the institutional answer to a VerificationInput.
type VerificationOutcome struct {
	Score               int       `json:"score" yaml:"score"`
	FieldsMatched       int       `json:"fields_matched" yaml:"fields_matched"`
	FieldsTotal         int       `json:"fields_total" yaml:"fields_total"`
	Method              string    `json:"method" yaml:"method"`
	InstitutionName     string    `json:"institution_name" yaml:"institution_name"`
	InstitutionResponse string    `json:"institution_response" yaml:"institution_response"`
	Registrar           string    `json:"registrar" yaml:"registrar"`
	RegistrarEmail      string    `json:"registrar_email" yaml:"registrar_email"`
	SuccessRate         float64   `json:"success_rate" yaml:"success_rate"`
	Verifier            string    `json:"verifier" yaml:"verifier"`
	Discrepancies       []string  `json:"discrepancies,omitempty" yaml:"discrepancies"`
	CheckedAt           time.Time `json:"checked_at" yaml:"-"`
}

type InstitutionVerifier interface {
	CrossReference(ctx context.Context, in VerificationInput) (VerificationOutcome, error)
}

// Range is an analytics window.
type Range string

const (
	Range7Days  Range = "7d"
	Range30Days Range = "30d"
	Range90Days Range = "90d"
	RangeYear   Range = "1y"
)

func ParseRange(s string) (Range, error) {
	switch r := Range(s); r {
	case Range7Days, Range30Days, Range90Days, RangeYear:
		return r, nil
	case "":
		return Range30Days, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
}

func (r Range) Duration() time.Duration {
	switch r {
	case Range7Days:
		return 7 * 24 * time.Hour
	case Range90Days:
		return 90 * 24 * time.Hour
	case RangeYear:
		return 365 * 24 * time.Hour
	}
	return 30 * 24 * time.Hour
}

type MonthlyVolume struct {
	Name     string `json:"name" yaml:"name"`
	Approved int    `json:"approved" yaml:"approved"`
	Rejected int    `json:"rejected" yaml:"rejected"`
	Pending  int    `json:"pending" yaml:"pending"`
}

type ProcessingTime struct {
	Name    string  `json:"name" yaml:"name"`
	AvgDays float64 `json:"avg_days" yaml:"avg_days"`
}

type Share struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

type Stats struct {
	TotalVerifications int     `json:"total_verifications" yaml:"total_verifications"`
	AvgProcessingDays  float64 `json:"avg_processing_days" yaml:"avg_processing_days"`
	SuccessRate        float64 `json:"success_rate" yaml:"success_rate"`
	PendingRequests    int     `json:"pending_requests" yaml:"pending_requests"`
}

type Analytics struct {
	Range          Range            `json:"range"`
	Verifications  []MonthlyVolume  `json:"verifications" yaml:"verifications"`
	ProcessingTime []ProcessingTime `json:"processing_time" yaml:"processing_time"`
	DocumentTypes  []Share          `json:"document_types" yaml:"document_types"`
	Stats          Stats            `json:"stats" yaml:"stats"`
}

type AnalyticsSource interface {
	Analytics(ctx context.Context, institutionID string, r Range) (Analytics, error)
}

// Option is a selectable value of the extraction review form.
type Option struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
}

type Catalog interface {
	Institutions() []Option
	DocumentTypes() []Option
}

// Set bundles one implementation of every data source.
type Set struct {
	Extraction ExtractionProvider
	QR         QRDecoder
	Verifier   InstitutionVerifier
	Analytics  AnalyticsSource
	Catalog    Catalog
}

func (s Set) complete() error {
	switch {
	case s.Extraction == nil:
		return errors.New("extraction provider missing")
	case s.QR == nil:
		return errors.New("qr decoder missing")
	case s.Verifier == nil:
		return errors.New("institution verifier missing")
	case s.Analytics == nil:
		return errors.New("analytics source missing")
	case s.Catalog == nil:
		return errors.New("catalog missing")
	}
	return nil
}

// Registry holds the provider sets by mode.
type Registry struct {
	sets sync.Map
}

func NewRegistry() *Registry { return &Registry{} }

func (r *Registry) Register(mode string, s Set) error {
	if err := s.complete(); err != nil {
		return fmt.Errorf("register %s providers: %w", mode, err)
	}
	r.sets.Store(mode, s)
	return nil
}

func (r *Registry) Get(mode string) (Set, error) {
	v, ok := r.sets.Load(mode)
	if !ok {
		return Set{}, fmt.Errorf("%w: %q", ErrUnknownMode, mode)
	}
	return v.(Set), nil
}
