package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/auth"
	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/validation"
)

// TokenIssuer signs access tokens for a subject.
type TokenIssuer interface {
	Issue(subject string, privileged bool) (string, error)
}

type RegisterAdminInput struct {
	Email          string
	FirstName      string
	LastName       string
	Password       string
	InvitationCode string
}

type LoginInput struct {
	Email    string
	Password string
}

// AuthPayload is returned by every operation that hands out a token.
type AuthPayload struct {
	Token     string
	AdminUser *domain.AdminUser
}

type AdminUseCase interface {
	Register(ctx context.Context, input RegisterAdminInput) (*AuthPayload, error)
	Login(ctx context.Context, input LoginInput) (*AuthPayload, error)
	Refresh(ctx context.Context, userID string) (*AuthPayload, error)
	// Me returns the admin behind userID, or nil when there is none.
	Me(ctx context.Context, userID string) (*domain.AdminUser, error)
}

type adminUseCase struct {
	adminRepo      domain.AdminRepository
	tokens         TokenIssuer
	invitationCode string
	log            *logrus.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAdminUseCase(repo domain.AdminRepository, tokens TokenIssuer, invitationCode string, logger *logrus.Logger) AdminUseCase {
	return &adminUseCase{
		adminRepo:      repo,
		tokens:         tokens,
		invitationCode: invitationCode,
		log:            logger,
	}
}

func (uc *adminUseCase) Register(ctx context.Context, input RegisterAdminInput) (*AuthPayload, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	uc.log.Infof("Use Case: Attempting admin registration for email: %s", email)

	if err := checkRegistration(email, &input); err != nil {
		uc.log.Warnf("Use Case: Registration failed: %v", err)
		return nil, err
	}

	if uc.invitationCode == "" {
		uc.log.Warn("Use Case: Registration refused, no invitation code configured")
		return nil, apperr.ForbiddenMsg("Only for invited admins")
	}
	if subtle.ConstantTimeCompare([]byte(input.InvitationCode), []byte(uc.invitationCode)) != 1 {
		uc.log.Warnf("Use Case: Registration failed - invalid invitation code for %s", email)
		return nil, apperr.ForbiddenMsg("Invalid invitation code")
	}

	if _, err := uc.adminRepo.GetAdminByEmail(ctx, email); err == nil {
		return nil, errDuplicateEmail()
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, internal(uc.log, "failed to check email", err)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, internal(uc.log, "failed to hash password", err)
	}

	created, err := uc.adminRepo.CreateAdmin(ctx, &domain.AdminUser{
		Email:        email,
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	})
	if errors.Is(err, domain.ErrDuplicate) {
		return nil, errDuplicateEmail()
	}
	if err != nil {
		return nil, internal(uc.log, "failed to create admin", err)
	}

	uc.log.Infof("Use Case: Admin %s registered successfully", created.ID)
	return uc.payload(created)
}

func (uc *adminUseCase) Login(ctx context.Context, input LoginInput) (*AuthPayload, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if !validation.IsValidEmail(email) {
		return nil, apperr.Validation("email", "Invalid email format")
	}
	if input.Password == "" {
		return nil, apperr.Validation("password", "Password is required")
	}

	admin, err := uc.adminRepo.GetAdminByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		// spend the same bcrypt work as a real comparison
		auth.ComparePassword(uc.fallbackHash(), input.Password)
		uc.log.Warnf("Use Case: Login failed for %s", email)
		return nil, apperr.InvalidCredentials()
	}
	if err != nil {
		return nil, internal(uc.log, "failed to load admin for login", err)
	}
	if !auth.ComparePassword(admin.PasswordHash, input.Password) {
		uc.log.Warnf("Use Case: Login failed for %s", email)
		return nil, apperr.InvalidCredentials()
	}

	uc.log.Infof("Use Case: Admin %s logged in", admin.ID)
	return uc.payload(admin)
}

func (uc *adminUseCase) Refresh(ctx context.Context, userID string) (*AuthPayload, error) {
	if userID == "" {
		return nil, apperr.Unauthenticated()
	}
	admin, err := uc.adminRepo.GetAdminByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, apperr.NotFound("Admin user not found")
	}
	if err != nil {
		return nil, internal(uc.log, "failed to load admin for refresh", err)
	}
	return uc.payload(admin)
}

func (uc *adminUseCase) Me(ctx context.Context, userID string) (*domain.AdminUser, error) {
	if userID == "" || !validation.IsWellFormedID(userID) {
		return nil, nil
	}
	admin, err := uc.adminRepo.GetAdminByID(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, internal(uc.log, "failed to load current admin", err)
	}
	return admin, nil
}

func (uc *adminUseCase) payload(admin *domain.AdminUser) (*AuthPayload, error) {
	token, err := uc.tokens.Issue(admin.ID, admin.Role == domain.RoleAdmin)
	if err != nil {
		return nil, internal(uc.log, "failed to issue token", err)
	}
	return &AuthPayload{Token: token, AdminUser: admin}, nil
}

func (uc *adminUseCase) fallbackHash() string {
	uc.dummyOnce.Do(func() {
		hash, err := auth.HashPassword("fallback-Password-1")
		if err != nil {
			uc.log.WithError(err).Error("Use Case: failed to prepare fallback hash")
			return
		}
		uc.dummyHash = hash
	})
	return uc.dummyHash
}

func errDuplicateEmail() error {
	return apperr.Conflict(apperr.CodeDuplicateEmail, "Email already in use")
}

func checkRegistration(email string, input *RegisterAdminInput) error {
	if !validation.IsValidEmail(email) {
		return apperr.Validation("email", "Invalid email format")
	}
	firstName := strings.TrimSpace(input.FirstName)
	if !validation.LengthBetween(firstName, validation.MinPersonNameLength, validation.MaxPersonNameLength) {
		return apperr.Validation("firstName", "First name must be between 2 and 50 characters")
	}
	lastName := strings.TrimSpace(input.LastName)
	if !validation.LengthBetween(lastName, validation.MinPersonNameLength, validation.MaxPersonNameLength) {
		return apperr.Validation("lastName", "Last name must be between 2 and 50 characters")
	}
	if problem := validation.PasswordProblem(input.Password); problem != "" {
		return apperr.Validation("password", problem)
	}
	if input.InvitationCode == "" {
		return apperr.Validation("invitationCode", "Invitation code is required")
	}
	if len(input.InvitationCode) > validation.MaxInvitationCodeLength {
		return apperr.Validation("invitationCode", "Invitation code is too long")
	}
	return nil
}
