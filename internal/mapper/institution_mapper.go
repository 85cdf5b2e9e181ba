package mapper

import (
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/model"
)

type InstitutionMapper struct{}

func NewInstitutionMapper() *InstitutionMapper {
	return &InstitutionMapper{}
}

func (m *InstitutionMapper) ToEntity(i *model.Institution) *entity.Institution {
	if i == nil {
		return nil
	}
	return &entity.Institution{
		Id:              i.Id,
		Code:            i.Code,
		Name:            i.Name,
		Type:            i.Type,
		EstablishedYear: i.EstablishedYear,
		Accreditation:   i.Accreditation,
		Website:         i.Website,
		Email:           i.Email,
		Phone:           i.Phone,
		RegistrarName:   i.RegistrarName,
		RegistrarEmail:  i.RegistrarEmail,
		Address: entity.Address{
			Street:  i.AddressStreet,
			City:    i.AddressCity,
			State:   i.AddressState,
			ZipCode: i.AddressZipCode,
		},
		Settings: entity.InstitutionSettings{
			AutoApprove:        i.AutoApprove,
			EmailNotifications: i.EmailNotifications,
			ProcessingDays:     i.ProcessingDays,
		},
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

func (m *InstitutionMapper) ToModel(i *entity.Institution) *model.Institution {
	if i == nil {
		return nil
	}
	return &model.Institution{
		Id:                 i.Id,
		Code:               i.Code,
		Name:               i.Name,
		Type:               i.Type,
		EstablishedYear:    i.EstablishedYear,
		Accreditation:      i.Accreditation,
		Website:            i.Website,
		Email:              i.Email,
		Phone:              i.Phone,
		RegistrarName:      i.RegistrarName,
		RegistrarEmail:     i.RegistrarEmail,
		AddressStreet:      i.Address.Street,
		AddressCity:        i.Address.City,
		AddressState:       i.Address.State,
		AddressZipCode:     i.Address.ZipCode,
		AutoApprove:        i.Settings.AutoApprove,
		EmailNotifications: i.Settings.EmailNotifications,
		ProcessingDays:     i.Settings.ProcessingDays,
		CreatedAt:          i.CreatedAt,
		UpdatedAt:          i.UpdatedAt,
	}
}

func (m *InstitutionMapper) ToEntities(items []*model.Institution) []*entity.Institution {
	out := make([]*entity.Institution, len(items))
	for i, it := range items {
		out[i] = m.ToEntity(it)
	}
	return out
}

func (m *InstitutionMapper) DocumentToEntity(d *model.InstitutionDocument) *entity.InstitutionDocument {
	if d == nil {
		return nil
	}
	return &entity.InstitutionDocument{
		Id:            d.Id,
		InstitutionId: d.InstitutionId,
		Name:          d.Name,
		Type:          d.Type,
		BatchName:     d.BatchName,
		Description:   d.Description,
		Size:          d.Size,
		ContentType:   d.ContentType,
		Pages:         d.Pages,
		BlobKey:       d.BlobKey,
		Status:        entity.InstitutionDocumentStatus(d.Status),
		UploadedAt:    d.UploadedAt,
	}
}

func (m *InstitutionMapper) DocumentToModel(d *entity.InstitutionDocument) *model.InstitutionDocument {
	if d == nil {
		return nil
	}
	return &model.InstitutionDocument{
		Id:            d.Id,
		InstitutionId: d.InstitutionId,
		Name:          d.Name,
		Type:          d.Type,
		BatchName:     d.BatchName,
		Description:   d.Description,
		Size:          d.Size,
		ContentType:   d.ContentType,
		Pages:         d.Pages,
		BlobKey:       d.BlobKey,
		Status:        string(d.Status),
		UploadedAt:    d.UploadedAt,
	}
}
