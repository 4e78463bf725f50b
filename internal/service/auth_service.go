package service

import (
	"context"
	"fmt"
	"time"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/middleware"
	"distriflow/internal/model"
	"distriflow/internal/permission"
	"distriflow/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// EmailEnqueuer hands outbound mail to the background worker.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, to, subject, body string) error
}

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, ip string) (*dto.LoginResponse, error)
	// RequestPasswordReset always reports success to the caller; whether a
	// mail goes out depends on the account actually existing.
	RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) error
	CreateUser(ctx context.Context, tenantID, actorID uuid.UUID, req dto.CreateUserRequest, ip string) (*dto.UserResponse, error)
	ListUsers(ctx context.Context, tenantID uuid.UUID) ([]dto.UserResponse, error)
	UpdateUser(ctx context.Context, tenantID, actorID, id uuid.UUID, req dto.UpdateUserRequest, ip string) (*dto.UserResponse, error)
}

type authService struct {
	users     repository.UserRepository
	tenants   repository.TenantRepository
	recorder  ActivityRecorder
	mailer    EmailEnqueuer
	jwtSecret string
	tokenTTL  time.Duration
	resetTTL  time.Duration
}

func NewAuthService(
	users repository.UserRepository,
	tenants repository.TenantRepository,
	recorder ActivityRecorder,
	mailer EmailEnqueuer,
	jwtSecret string,
	tokenTTL, resetTTL time.Duration,
) AuthService {
	return &authService{
		users:     users,
		tenants:   tenants,
		recorder:  recorder,
		mailer:    mailer,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		resetTTL:  resetTTL,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	tenant, err := s.tenants.FindBySlug(ctx, req.Tenant)
	if err != nil {
		return nil, apierror.Unauthenticated("Credenciales invalidas")
	}
	user, err := s.users.FindByUsername(ctx, tenant.ID, req.Username)
	if err != nil || !user.IsActive {
		s.auditLoginFailure(ctx, tenant.ID, req.Username, ip)
		return nil, apierror.Unauthenticated("Credenciales invalidas")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.auditLoginFailure(ctx, tenant.ID, req.Username, ip)
		return nil, apierror.Unauthenticated("Credenciales invalidas")
	}

	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:   user.ID.String(),
		TenantID: tenant.ID.String(),
		Username: user.Username,
		Role:     user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, apierror.Internal("no se pudo firmar el token")
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenant.ID,
		UserID:      &user.ID,
		Module:      permission.ModuleUsers,
		Action:      "login",
		Description: fmt.Sprintf("Inicio de sesión de %s", user.Username),
		IPAddress:   ip,
	})

	return &dto.LoginResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   int(s.tokenTTL.Seconds()),
		User:        userToResponse(user),
	}, nil
}

func (s *authService) auditLoginFailure(ctx context.Context, tenantID uuid.UUID, username, ip string) {
	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		Module:      permission.ModuleUsers,
		Action:      "login_failed",
		Description: fmt.Sprintf("Intento de inicio de sesión fallido para %s", username),
		IPAddress:   ip,
	})
}

func (s *authService) RequestPasswordReset(ctx context.Context, req dto.PasswordResetRequest) error {
	tenant, err := s.tenants.FindBySlug(ctx, req.Tenant)
	if err != nil {
		return nil
	}
	user, err := s.users.FindByUsername(ctx, tenant.ID, req.Username)
	if err != nil || !user.IsActive {
		return nil
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		Audience:  jwt.ClaimStrings{"password_reset"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.resetTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.jwtSecret))
	if err != nil {
		return apierror.Internal("no se pudo firmar el token de recuperación")
	}

	if s.mailer != nil {
		body := fmt.Sprintf(
			"Hola %s,\n\nUsá el siguiente código para restablecer tu contraseña (expira en %d minutos):\n\n%s\n",
			user.Username, int(s.resetTTL.Minutes()), token)
		if err := s.mailer.EnqueueEmail(ctx, req.Email, "Recuperación de contraseña", body); err != nil {
			return err
		}
	}
	return nil
}

func (s *authService) CreateUser(ctx context.Context, tenantID, actorID uuid.UUID, req dto.CreateUserRequest, ip string) (*dto.UserResponse, error) {
	if !permission.ValidRole(req.Role) {
		return nil, apierror.Validation("rol inválido")
	}
	if _, err := s.users.FindByUsername(ctx, tenantID, req.Username); err == nil {
		return nil, apierror.Duplicate(fmt.Sprintf("ya existe el usuario %s", req.Username))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierror.Internal("no se pudo generar el hash de contraseña")
	}
	user := model.User{
		TenantID:     tenantID,
		Username:     req.Username,
		PasswordHash: string(hash),
		Role:         req.Role,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, &user); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &actorID,
		Module:      permission.ModuleUsers,
		Action:      permission.ActionCreate,
		Description: fmt.Sprintf("Usuario %s (%s) creado", user.Username, user.Role),
		TargetID:    &user.ID,
		TargetType:  strPtr("user"),
		IPAddress:   ip,
	})

	resp := userToResponse(&user)
	return &resp, nil
}

func (s *authService) ListUsers(ctx context.Context, tenantID uuid.UUID) ([]dto.UserResponse, error) {
	users, err := s.users.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, userToResponse(&users[i]))
	}
	return out, nil
}

func (s *authService) UpdateUser(ctx context.Context, tenantID, actorID, id uuid.UUID, req dto.UpdateUserRequest, ip string) (*dto.UserResponse, error) {
	user, err := s.users.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("usuario")
	}

	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, apierror.Internal("no se pudo generar el hash de contraseña")
		}
		user.PasswordHash = string(hash)
	}
	if req.Role != nil {
		if !permission.ValidRole(*req.Role) {
			return nil, apierror.Validation("rol inválido")
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &actorID,
		Module:      permission.ModuleUsers,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Usuario %s actualizado", user.Username),
		TargetID:    &user.ID,
		TargetType:  strPtr("user"),
		IPAddress:   ip,
	})

	resp := userToResponse(user)
	return &resp, nil
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Role:     u.Role,
		IsActive: u.IsActive,
	}
}
