// Package fixture serves the demonstration data set of the product from an
// embedded YAML document.
package fixture

import (
	"context"
	_ "embed"
	"fmt"
	"time"

	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultData []byte

type data struct {
	Extraction    processing.Extraction        `yaml:"extraction"`
	QR            processing.QRPayload         `yaml:"qr"`
	Verification  provider.VerificationOutcome `yaml:"verification"`
	Analytics     provider.Analytics           `yaml:"analytics"`
	Institutions  []provider.Option            `yaml:"institutions"`
	DocumentTypes []provider.Option            `yaml:"document_types"`
}

// Provider implements every provider interface with fixed data.
type Provider struct {
	data  data
	delay time.Duration
	now   func() time.Time
}

type Option func(*Provider)

// WithDelay makes Extract and CrossReference wait like a remote call would.
func WithDelay(d time.Duration) Option {
	return func(p *Provider) { p.delay = d }
}

// New parses the embedded fixtures.
func New(opts ...Option) (*Provider, error) {
	return Parse(defaultData, opts...)
}

// Parse builds a Provider from a fixtures document.
func Parse(raw []byte, opts ...Option) (*Provider, error) {
	p := &Provider{now: time.Now}
	if err := yaml.Unmarshal(raw, &p.data); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if err := p.data.Extraction.Validate(); err != nil {
		return nil, fmt.Errorf("fixture extraction: %w", err)
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Set exposes the provider under every interface.
func (p *Provider) Set() provider.Set {
	return provider.Set{
		Extraction: p,
		QR:         p,
		Verifier:   p,
		Analytics:  p,
		Catalog:    p,
	}
}

func (p *Provider) Name() string { return "fixture" }

func (p *Provider) wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(p.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (p *Provider) Extract(ctx context.Context, files []processing.File) (processing.Extraction, error) {
	if len(files) == 0 {
		return processing.Extraction{}, provider.ErrNoDocuments
	}
	if err := p.wait(ctx); err != nil {
		return processing.Extraction{}, err
	}
	e := p.data.Extraction
	e.EditedText = e.OriginalText
	e.Fields = make(map[string]string, len(p.data.Extraction.Fields))
	for k, v := range p.data.Extraction.Fields {
		e.Fields[k] = v
	}
	return e, nil
}

// Decode ignores the scanned text and returns the sample credential.
func (p *Provider) Decode(ctx context.Context, _ string) (processing.QRPayload, error) {
	return p.data.QR, ctx.Err()
}

func (p *Provider) CrossReference(ctx context.Context, in provider.VerificationInput) (provider.VerificationOutcome, error) {
	if err := p.wait(ctx); err != nil {
		return provider.VerificationOutcome{}, err
	}
	out := p.data.Verification
	out.Discrepancies = append([]string(nil), p.data.Verification.Discrepancies...)
	out.CheckedAt = p.now()
	return out, nil
}

func (p *Provider) Analytics(ctx context.Context, _ string, r provider.Range) (provider.Analytics, error) {
	a := p.data.Analytics
	a.Range = r
	a.Verifications = append([]provider.MonthlyVolume(nil), p.data.Analytics.Verifications...)
	a.ProcessingTime = append([]provider.ProcessingTime(nil), p.data.Analytics.ProcessingTime...)
	a.DocumentTypes = append([]provider.Share(nil), p.data.Analytics.DocumentTypes...)
	return a, ctx.Err()
}

func (p *Provider) Institutions() []provider.Option {
	return append([]provider.Option(nil), p.data.Institutions...)
}

func (p *Provider) DocumentTypes() []provider.Option {
	return append([]provider.Option(nil), p.data.DocumentTypes...)
}
