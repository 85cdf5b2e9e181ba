package unitofwork

import (
	"context"

	"academic-auth-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	InstitutionRepository() contract.InstitutionRepository
	VerificationRepository() contract.VerificationRepository
}
