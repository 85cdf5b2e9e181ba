package implementation

import (
	"context"
	"errors"

	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/mapper"
	"academic-auth-be/internal/model"
	"academic-auth-be/internal/repository/contract"
	"academic-auth-be/internal/repository/specification"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InstitutionRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.InstitutionMapper
}

func NewInstitutionRepository(db *gorm.DB) contract.InstitutionRepository {
	return &InstitutionRepositoryImpl{db: db, mapper: mapper.NewInstitutionMapper()}
}

func (r *InstitutionRepositoryImpl) Create(ctx context.Context, institution *entity.Institution) error {
	m := r.mapper.ToModel(institution)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*institution = *r.mapper.ToEntity(m)
	return nil
}

func (r *InstitutionRepositoryImpl) Update(ctx context.Context, institution *entity.Institution) error {
	m := r.mapper.ToModel(institution)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*institution = *r.mapper.ToEntity(m)
	return nil
}

func (r *InstitutionRepositoryImpl) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Institution, error) {
	var m model.Institution
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}

func (r *InstitutionRepositoryImpl) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Institution, error) {
	var ms []*model.Institution
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&ms).Error; err != nil {
		return nil, err
	}
	return r.mapper.ToEntities(ms), nil
}

func (r *InstitutionRepositoryImpl) CreateDocument(ctx context.Context, doc *entity.InstitutionDocument) error {
	m := r.mapper.DocumentToModel(doc)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*doc = *r.mapper.DocumentToEntity(m)
	return nil
}

func (r *InstitutionRepositoryImpl) UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status entity.InstitutionDocumentStatus) error {
	return r.db.WithContext(ctx).Model(&model.InstitutionDocument{}).Where("id = ?", id).Update("status", string(status)).Error
}

func (r *InstitutionRepositoryImpl) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.InstitutionDocument{}).Error
}

func (r *InstitutionRepositoryImpl) FindDocument(ctx context.Context, specs ...specification.Specification) (*entity.InstitutionDocument, error) {
	var m model.InstitutionDocument
	if err := applySpecifications(r.db.WithContext(ctx), specs...).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.DocumentToEntity(&m), nil
}

func (r *InstitutionRepositoryImpl) FindDocuments(ctx context.Context, specs ...specification.Specification) ([]*entity.InstitutionDocument, error) {
	var ms []*model.InstitutionDocument
	if err := applySpecifications(r.db.WithContext(ctx), specs...).Find(&ms).Error; err != nil {
		return nil, err
	}
	out := make([]*entity.InstitutionDocument, len(ms))
	for i, m := range ms {
		out[i] = r.mapper.DocumentToEntity(m)
	}
	return out, nil
}
