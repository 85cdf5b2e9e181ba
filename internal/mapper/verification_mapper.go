package mapper

import (
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/model"

	"gorm.io/datatypes"
)

type VerificationMapper struct{}

func NewVerificationMapper() *VerificationMapper {
	return &VerificationMapper{}
}

func (m *VerificationMapper) ToEntity(v *model.Verification) *entity.Verification {
	if v == nil {
		return nil
	}
	files := make([]entity.StoredFile, len(v.Files))
	for i, f := range v.Files {
		files[i] = entity.StoredFile(f)
	}
	return &entity.Verification{
		Id:                  v.Id,
		Code:                v.Code,
		DocumentCode:        v.DocumentCode,
		UserId:              v.UserId,
		InstitutionId:       v.InstitutionId,
		SubmissionId:        v.SubmissionId,
		RunId:               v.RunId,
		Status:              entity.VerificationStatus(v.Status),
		Source:              v.Source,
		DocumentName:        v.DocumentName,
		DocumentType:        v.DocumentType,
		InstitutionName:     v.InstitutionName,
		Degree:              v.Degree,
		GraduationDate:      v.GraduationDate,
		ExtractedText:       v.ExtractedText,
		Confidence:          v.Confidence,
		Score:               v.Score,
		FieldsMatched:       v.FieldsMatched,
		FieldsTotal:         v.FieldsTotal,
		Method:              v.Method,
		Verifier:            v.Verifier,
		InstitutionResponse: v.InstitutionResponse,
		Registrar:           v.Registrar,
		RegistrarEmail:      v.RegistrarEmail,
		Fields:              v.Fields.Data(),
		Files:               files,
		SubmittedAt:         v.SubmittedAt,
		VerifiedAt:          v.VerifiedAt,
		UpdatedAt:           v.UpdatedAt,
	}
}

func (m *VerificationMapper) ToModel(v *entity.Verification) *model.Verification {
	if v == nil {
		return nil
	}
	files := make([]model.StoredFile, len(v.Files))
	for i, f := range v.Files {
		files[i] = model.StoredFile(f)
	}
	fields := v.Fields
	if fields == nil {
		fields = map[string]string{}
	}
	return &model.Verification{
		Id:                  v.Id,
		Code:                v.Code,
		DocumentCode:        v.DocumentCode,
		UserId:              v.UserId,
		InstitutionId:       v.InstitutionId,
		SubmissionId:        v.SubmissionId,
		RunId:               v.RunId,
		Status:              string(v.Status),
		Source:              v.Source,
		DocumentName:        v.DocumentName,
		DocumentType:        v.DocumentType,
		InstitutionName:     v.InstitutionName,
		Degree:              v.Degree,
		GraduationDate:      v.GraduationDate,
		ExtractedText:       v.ExtractedText,
		Confidence:          v.Confidence,
		Score:               v.Score,
		FieldsMatched:       v.FieldsMatched,
		FieldsTotal:         v.FieldsTotal,
		Method:              v.Method,
		Verifier:            v.Verifier,
		InstitutionResponse: v.InstitutionResponse,
		Registrar:           v.Registrar,
		RegistrarEmail:      v.RegistrarEmail,
		Fields:              datatypes.NewJSONType(fields),
		Files:               datatypes.JSONSlice[model.StoredFile](files),
		SubmittedAt:         v.SubmittedAt,
		VerifiedAt:          v.VerifiedAt,
		UpdatedAt:           v.UpdatedAt,
	}
}

func (m *VerificationMapper) ToEntities(items []*model.Verification) []*entity.Verification {
	out := make([]*entity.Verification, len(items))
	for i, it := range items {
		out[i] = m.ToEntity(it)
	}
	return out
}

func (m *VerificationMapper) AuditToEntity(a *model.AuditEvent) *entity.AuditEvent {
	if a == nil {
		return nil
	}
	return &entity.AuditEvent{
		Id:             a.Id,
		VerificationId: a.VerificationId,
		Type:           entity.AuditEventType(a.Type),
		Title:          a.Title,
		Description:    a.Description,
		Performer:      a.Performer,
		Details:        a.Details.Data(),
		CreatedAt:      a.CreatedAt,
	}
}

func (m *VerificationMapper) AuditToModel(a *entity.AuditEvent) *model.AuditEvent {
	if a == nil {
		return nil
	}
	details := a.Details
	if details == nil {
		details = map[string]string{}
	}
	return &model.AuditEvent{
		Id:             a.Id,
		VerificationId: a.VerificationId,
		Type:           string(a.Type),
		Title:          a.Title,
		Description:    a.Description,
		Performer:      a.Performer,
		Details:        datatypes.NewJSONType(details),
		CreatedAt:      a.CreatedAt,
	}
}

func (m *VerificationMapper) RequestToEntity(r *model.VerificationRequest) *entity.VerificationRequest {
	if r == nil {
		return nil
	}
	return &entity.VerificationRequest{
		Id:             r.Id,
		VerificationId: r.VerificationId,
		InstitutionId:  r.InstitutionId,
		StudentName:    r.StudentName,
		StudentID:      r.StudentID,
		DocumentName:   r.DocumentName,
		DocumentType:   r.DocumentType,
		Priority:       entity.RequestPriority(r.Priority),
		Status:         entity.RequestStatus(r.Status),
		ReviewedBy:     r.ReviewedBy,
		SubmittedAt:    r.SubmittedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (m *VerificationMapper) RequestToModel(r *entity.VerificationRequest) *model.VerificationRequest {
	if r == nil {
		return nil
	}
	return &model.VerificationRequest{
		Id:             r.Id,
		VerificationId: r.VerificationId,
		InstitutionId:  r.InstitutionId,
		StudentName:    r.StudentName,
		StudentID:      r.StudentID,
		DocumentName:   r.DocumentName,
		DocumentType:   r.DocumentType,
		Priority:       string(r.Priority),
		Status:         string(r.Status),
		ReviewedBy:     r.ReviewedBy,
		SubmittedAt:    r.SubmittedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
