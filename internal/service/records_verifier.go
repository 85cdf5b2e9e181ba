package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/pkg/processing"
	"academic-auth-be/pkg/provider"
)

const recordsMethod = "Institutional Records Cross-Reference"

// RecordsVerifier cross-references a claimed credential against the
// institutions and student accounts stored in the database.
type RecordsVerifier struct {
	uowFactory unitofwork.RepositoryFactory
	catalog    provider.Catalog
	now        func() time.Time
}

func NewRecordsVerifier(uowFactory unitofwork.RepositoryFactory, catalog provider.Catalog) *RecordsVerifier {
	return &RecordsVerifier{uowFactory: uowFactory, catalog: catalog, now: time.Now}
}

type check struct {
	name string
	ok   bool
}

func (v *RecordsVerifier) CrossReference(ctx context.Context, in provider.VerificationInput) (provider.VerificationOutcome, error) {
	uow := v.uowFactory.NewUnitOfWork(ctx)
	inst, err := uow.InstitutionRepository().FindOne(ctx, specification.InstitutionLookup{Value: in.Institution})
	if err != nil {
		return provider.VerificationOutcome{}, err
	}

	studentOnRecord := false
	if inst != nil && in.StudentID != "" {
		n, err := uow.UserRepository().Count(ctx,
			specification.Filter("student_id", in.StudentID),
			specification.ByRole{Role: string(entity.UserRoleStudent)},
		)
		if err != nil {
			return provider.VerificationOutcome{}, err
		}
		studentOnRecord = n > 0
	}

	checks := []check{
		{"institution", inst != nil},
		{"documentType", v.knownType(in.DocumentType)},
		{"graduationDate", v.plausibleDate(in.GraduationDate)},
		{"degree", strings.TrimSpace(in.Degree) != ""},
		{"studentName", strings.TrimSpace(in.StudentName) != ""},
		{"studentId", studentOnRecord},
	}

	out := provider.VerificationOutcome{
		Method:      recordsMethod,
		FieldsTotal: len(checks),
		CheckedAt:   v.now(),
	}
	for _, c := range checks {
		if c.ok {
			out.FieldsMatched++
		} else {
			out.Discrepancies = append(out.Discrepancies, c.name)
		}
	}

	// field agreement weighs more than OCR certainty; QR payloads are exact
	confidence := in.Confidence
	if in.Source == processing.SourceQR {
		confidence = 100
	}
	out.Score = (out.FieldsMatched*100*7/out.FieldsTotal + confidence*3) / 10

	if inst == nil {
		out.InstitutionName = in.Institution
		out.InstitutionResponse = "Institution is not registered for verification"
		return out, nil
	}

	out.InstitutionName = inst.Name
	out.Registrar = inst.RegistrarName
	out.RegistrarEmail = inst.RegistrarEmail
	out.Verifier = inst.RegistrarName
	if len(out.Discrepancies) == 0 {
		out.InstitutionResponse = "All submitted fields match institutional records"
	} else {
		out.InstitutionResponse = fmt.Sprintf("Partial match, review needed for: %s", strings.Join(out.Discrepancies, ", "))
	}

	approved, err := uow.VerificationRepository().CountRequests(ctx,
		specification.ByInstitution{InstitutionID: inst.Id},
		specification.ByStatus{Status: string(entity.RequestApproved)},
	)
	if err != nil {
		return provider.VerificationOutcome{}, err
	}
	rejected, err := uow.VerificationRepository().CountRequests(ctx,
		specification.ByInstitution{InstitutionID: inst.Id},
		specification.ByStatus{Status: string(entity.RequestRejected)},
	)
	if err != nil {
		return provider.VerificationOutcome{}, err
	}
	if decided := approved + rejected; decided > 0 {
		out.SuccessRate = float64(approved) * 100 / float64(decided)
	}
	return out, nil
}

func (v *RecordsVerifier) knownType(t string) bool {
	if v.catalog == nil {
		return t != ""
	}
	for _, o := range v.catalog.DocumentTypes() {
		if strings.EqualFold(o.Value, t) {
			return true
		}
	}
	return false
}

func (v *RecordsVerifier) plausibleDate(s string) bool {
	d, err := time.Parse(processing.GraduationDateLayout, s)
	if err != nil {
		return false
	}
	return !d.After(v.now()) && d.Year() >= 1900
}
