// Package gemini extracts credential fields from scanned documents with the
// Gemini generative API.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const systemInstruction = `You read scanned academic credentials (transcripts, diplomas, certificates,
enrollment verifications, grade reports) and return ONLY a JSON object:

{
  "original_text": "full verbatim text of the document",
  "institution": "one of the institution codes listed below, or the institution name if none match",
  "document_type": "transcript | diploma | certificate | enrollment | grade_report",
  "graduation_date": "YYYY-MM-DD or empty",
  "degree": "degree description as printed",
  "confidence": 0-100,
  "fields": {"studentName": "...", "studentId": "...", "gpa": "...", "totalUnits": "..."}
}

Do not correct spelling, do not invent values, leave unknown values empty.`

type Engine struct {
	APIKey   string
	Model    string
	Catalog  provider.Catalog
	Attempts int
}

func New(apiKey, model string, catalog provider.Catalog) *Engine {
	return &Engine{
		APIKey:   strings.TrimSpace(apiKey),
		Model:    strings.TrimSpace(model),
		Catalog:  catalog,
		Attempts: 3,
	}
}

func (e *Engine) Name() string { return "gemini" }

type response struct {
	OriginalText   string            `json:"original_text"`
	Institution    string            `json:"institution"`
	DocumentType   string            `json:"document_type"`
	GraduationDate string            `json:"graduation_date"`
	Degree         string            `json:"degree"`
	Confidence     int               `json:"confidence"`
	Fields         map[string]string `json:"fields"`
}

func (e *Engine) Extract(ctx context.Context, files []processing.File) (processing.Extraction, error) {
	if e.APIKey == "" {
		return processing.Extraction{}, errors.New("GEMINI_API_KEY is empty")
	}
	if len(files) == 0 {
		return processing.Extraction{}, provider.ErrNoDocuments
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(e.APIKey))
	if err != nil {
		return processing.Extraction{}, err
	}
	defer cl.Close()

	m := cl.GenerativeModel(e.Model)
	if m == nil {
		return processing.Extraction{}, fmt.Errorf("gemini: model is nil")
	}
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction + e.catalogHint())},
	}

	parts := []genai.Part{genai.Text("Extract the credential. Answer with JSON only.")}
	for _, f := range files {
		mime := f.ContentType
		if mime == "" {
			mime = "application/octet-stream"
		}
		parts = append(parts, &genai.Blob{MIMEType: mime, Data: f.Data})
	}

	attempts := e.Attempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		resp, err := m.GenerateContent(ctx, parts...)
		if err != nil {
			lastErr = err
			select {
			case <-ctx.Done():
				return processing.Extraction{}, ctx.Err()
			case <-time.After(time.Duration(attempt) * 300 * time.Millisecond):
			}
			continue
		}
		txt := stripCodeFences(firstText(resp))
		if txt == "" {
			return processing.Extraction{}, fmt.Errorf("gemini extract: empty response")
		}
		var out response
		if err := json.Unmarshal([]byte(txt), &out); err != nil {
			return processing.Extraction{}, fmt.Errorf("gemini extract: bad JSON: %w", err)
		}
		return out.extraction(), nil
	}
	return processing.Extraction{}, fmt.Errorf("gemini extract: %w", lastErr)
}

func (e *Engine) catalogHint() string {
	if e.Catalog == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nInstitution codes:\n")
	for _, o := range e.Catalog.Institutions() {
		fmt.Fprintf(&b, "- %s: %s\n", o.Value, o.Label)
	}
	return b.String()
}

func (r response) extraction() processing.Extraction {
	conf := r.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	return processing.Extraction{
		OriginalText:   r.OriginalText,
		EditedText:     r.OriginalText,
		Institution:    strings.TrimSpace(r.Institution),
		DocumentType:   strings.TrimSpace(r.DocumentType),
		GraduationDate: strings.TrimSpace(r.GraduationDate),
		Degree:         strings.TrimSpace(r.Degree),
		Confidence:     conf,
		Fields:         r.Fields,
	}
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	for _, c := range resp.Candidates {
		if c.Content == nil {
			continue
		}
		for _, p := range c.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func ptrFloat32(v float32) *float32 { return &v }
