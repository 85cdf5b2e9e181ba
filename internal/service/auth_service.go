package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/pkg/serverutils"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrUnknownInstitution  = errors.New("institution code is not registered")
	ErrAuthNotConfigured   = errors.New("token signing secret is not configured")
	ErrUserNotFound        = errors.New("user not found")
	ErrWrongPassword       = errors.New("current password is incorrect")
	ErrInstitutionRequired = errors.New("account is not linked to an institution")
)

type IAuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
}

type authService struct {
	uowFactory unitofwork.RepositoryFactory
	jwtSecret  string
	tokenTTL   time.Duration
	logger     logger.ILogger
}

func NewAuthService(uowFactory unitofwork.RepositoryFactory, jwtSecret string, tokenTTL time.Duration, log logger.ILogger) IAuthService {
	return &authService{
		uowFactory: uowFactory,
		jwtSecret:  jwtSecret,
		tokenTTL:   tokenTTL,
		logger:     log,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	email := normalizeEmail(req.Email)

	existing, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &entity.User{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         entity.UserRoleStudent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if req.Role == string(entity.UserRoleInstitution) {
		inst, err := uow.InstitutionRepository().FindOne(ctx, specification.InstitutionLookup{Value: req.InstitutionCode})
		if err != nil {
			return nil, err
		}
		if inst == nil {
			return nil, ErrUnknownInstitution
		}
		id := inst.Id
		user.Role = entity.UserRoleInstitution
		user.InstitutionId = &id
		user.Institution = inst.Name
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("AUTH", "User registered", map[string]interface{}{"user_id": user.Id, "role": user.Role})
	return &dto.RegisterResponse{Id: user.Id, Email: user.Email}, nil
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	if s.jwtSecret == "" {
		return nil, ErrAuthNotConfigured
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: normalizeEmail(req.Email)})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("AUTH", "Failed login", map[string]interface{}{"user_id": user.Id})
		return nil, ErrInvalidCredentials
	}

	token, exp, err := serverutils.IssueToken(s.jwtSecret, user.Id, string(user.Role), user.InstitutionId, s.tokenTTL)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		AccessToken: token,
		ExpiresAt:   exp,
		User: dto.UserDTO{
			Id:            user.Id,
			Email:         user.Email,
			FullName:      user.FullName(),
			Role:          string(user.Role),
			InstitutionId: user.InstitutionId,
		},
	}, nil
}
