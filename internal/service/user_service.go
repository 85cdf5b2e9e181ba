package service

import (
	"context"
	"strings"
	"time"

	"academic-auth-be/internal/dto"
	"academic-auth-be/internal/entity"
	"academic-auth-be/internal/pkg/logger"
	"academic-auth-be/internal/repository/specification"
	"academic-auth-be/internal/repository/unitofwork"
	"academic-auth-be/pkg/settings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SettingsRemover deletes the stored settings of a user.
type SettingsRemover interface {
	Delete(ctx context.Context, key string) error
}

type IUserService interface {
	GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error)
	UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error)
	ChangePassword(ctx context.Context, userId uuid.UUID, req *dto.ChangePasswordRequest) error
	DeleteAccount(ctx context.Context, userId uuid.UUID, req *dto.DeleteAccountRequest) error
	GetSettings(ctx context.Context, userId uuid.UUID) (*dto.SettingsResponse, error)
	UpdateSettings(ctx context.Context, userId uuid.UUID, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error)
}

type userService struct {
	uowFactory      unitofwork.RepositoryFactory
	settings        *settings.Manager
	settingsRemover SettingsRemover
	logger          logger.ILogger
}

func NewUserService(uowFactory unitofwork.RepositoryFactory, settingsManager *settings.Manager, remover SettingsRemover, log logger.ILogger) IUserService {
	return &userService{
		uowFactory:      uowFactory,
		settings:        settingsManager,
		settingsRemover: remover,
		logger:          log,
	}
}

func (s *userService) find(ctx context.Context, uow unitofwork.UnitOfWork, userId uuid.UUID) (*entity.User, error) {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByID{ID: userId})
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *userService) GetProfile(ctx context.Context, userId uuid.UUID) (*dto.UserProfileResponse, error) {
	user, err := s.find(ctx, s.uowFactory.NewUnitOfWork(ctx), userId)
	if err != nil {
		return nil, err
	}
	res := toProfile(user)
	return &res, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userId uuid.UUID, req *dto.UpdateProfileRequest) (*dto.UserProfileResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := s.find(ctx, uow, userId)
	if err != nil {
		return nil, err
	}

	email := normalizeEmail(req.Email)
	if email != user.Email {
		taken, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, ErrEmailTaken
		}
	}

	user.FirstName = strings.TrimSpace(req.FirstName)
	user.LastName = strings.TrimSpace(req.LastName)
	user.Email = email
	user.Phone = strings.TrimSpace(req.Phone)
	user.StudentID = strings.TrimSpace(req.StudentID)
	user.Program = strings.TrimSpace(req.Program)
	user.GraduationYear = req.GraduationYear
	// staff accounts keep the institution they are linked to
	if user.InstitutionId == nil {
		user.Institution = strings.TrimSpace(req.Institution)
	}
	user.UpdatedAt = time.Now()

	if err := uow.UserRepository().Update(ctx, user); err != nil {
		return nil, err
	}
	res := toProfile(user)
	return &res, nil
}

func (s *userService) ChangePassword(ctx context.Context, userId uuid.UUID, req *dto.ChangePasswordRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := s.find(ctx, uow, userId)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrWrongPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if err := uow.UserRepository().UpdatePassword(ctx, user.Id, string(hash)); err != nil {
		return err
	}
	s.logger.Info("USER", "Password changed", map[string]interface{}{"user_id": user.Id})
	return nil
}

func (s *userService) DeleteAccount(ctx context.Context, userId uuid.UUID, req *dto.DeleteAccountRequest) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := s.find(ctx, uow, userId)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return ErrWrongPassword
	}
	if err := uow.UserRepository().Delete(ctx, user.Id); err != nil {
		return err
	}

	key := user.Id.String()
	s.settings.Forget(key)
	if s.settingsRemover != nil {
		if err := s.settingsRemover.Delete(ctx, key); err != nil {
			s.logger.Warn("USER", "Failed to delete settings", map[string]interface{}{"user_id": user.Id, "error": err.Error()})
		}
	}
	s.logger.Info("USER", "Account deleted", map[string]interface{}{"user_id": user.Id})
	return nil
}

func (s *userService) GetSettings(ctx context.Context, userId uuid.UUID) (*dto.SettingsResponse, error) {
	current, err := s.settings.Load(ctx, userId.String())
	if err != nil {
		return nil, err
	}
	return &dto.SettingsResponse{Settings: current, Languages: s.settings.Languages()}, nil
}

func (s *userService) UpdateSettings(ctx context.Context, userId uuid.UUID, req *dto.UpdateSettingsRequest) (*dto.SettingsResponse, error) {
	next, saved, err := s.settings.Update(ctx, userId.String(), func(st *settings.Settings) {
		if req.Language != nil {
			st.Language = *req.Language
		}
		if req.Notifications != nil {
			st.Notifications = *req.Notifications
		}
		if req.Privacy != nil {
			st.Privacy = *req.Privacy
		}
	})
	if err != nil {
		return nil, err
	}
	return &dto.SettingsResponse{Settings: next, Languages: s.settings.Languages(), Saved: saved}, nil
}

func toProfile(u *entity.User) dto.UserProfileResponse {
	return dto.UserProfileResponse{
		Id:             u.Id,
		Email:          u.Email,
		FirstName:      u.FirstName,
		LastName:       u.LastName,
		Phone:          u.Phone,
		StudentID:      u.StudentID,
		Institution:    u.Institution,
		Program:        u.Program,
		GraduationYear: u.GraduationYear,
		Role:           string(u.Role),
		InstitutionId:  u.InstitutionId,
		CreatedAt:      u.CreatedAt,
	}
}
