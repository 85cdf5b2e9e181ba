package contract

import (
	"context"

	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/repository/specification"

	"github.com/google/uuid"
)

type InstitutionRepository interface {
	Create(ctx context.Context, institution *entity.Institution) error
	Update(ctx context.Context, institution *entity.Institution) error
	FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Institution, error)
	FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Institution, error)

	CreateDocument(ctx context.Context, doc *entity.InstitutionDocument) error
	UpdateDocumentStatus(ctx context.Context, id uuid.UUID, status entity.InstitutionDocumentStatus) error
	DeleteDocument(ctx context.Context, id uuid.UUID) error
	FindDocument(ctx context.Context, specs ...specification.Specification) (*entity.InstitutionDocument, error)
	FindDocuments(ctx context.Context, specs ...specification.Specification) ([]*entity.InstitutionDocument, error)
}
