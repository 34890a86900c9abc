package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/repository"
)

const invitation = "let-me-in"

func adminFixture(email string) *domain.AdminUser {
	return &domain.AdminUser{Email: email, FirstName: "Ada", LastName: "Lovelace", PasswordHash: "x", Role: domain.RoleAdmin}
}

func registration(email string) RegisterAdminInput {
	return RegisterAdminInput{
		Email:          email,
		FirstName:      "Ada",
		LastName:       "Lovelace",
		Password:       "Secret123",
		InvitationCode: invitation,
	}
}

func newAdminUseCase(code string) (AdminUseCase, *repository.MemoryStore) {
	store := repository.NewMemoryStore()
	return NewAdminUseCase(store, stubIssuer{}, code, quietLogger()), store
}

func TestRegisterAdmin(t *testing.T) {
	uc, store := newAdminUseCase(invitation)
	ctx := context.Background()

	payload, err := uc.Register(ctx, registration(" Ada@Example.com "))
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", payload.AdminUser.Email)
	assert.Equal(t, domain.RoleAdmin, payload.AdminUser.Role)
	assert.Equal(t, "token-admin-"+payload.AdminUser.ID, payload.Token)

	stored, err := store.GetAdminByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "Secret123", stored.PasswordHash)

	_, err = uc.Register(ctx, registration("ADA@example.com"))
	requireKind(t, err, apperr.KindConflict, apperr.CodeDuplicateEmail)
}

func TestRegisterAdminInvitation(t *testing.T) {
	ctx := context.Background()

	closed, _ := newAdminUseCase("")
	_, err := closed.Register(ctx, registration("a@example.com"))
	requireKind(t, err, apperr.KindAuthorization, apperr.CodeForbidden)
	assert.Equal(t, "Only for invited admins", err.Error())

	open, _ := newAdminUseCase(invitation)
	in := registration("a@example.com")
	in.InvitationCode = "guess"
	_, err = open.Register(ctx, in)
	requireKind(t, err, apperr.KindAuthorization, apperr.CodeForbidden)
	assert.Equal(t, "Invalid invitation code", err.Error())
}

func TestRegisterAdminValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterAdminInput)
		field  string
	}{
		{"bad email", func(in *RegisterAdminInput) { in.Email = "nope" }, "email"},
		{"short first name", func(in *RegisterAdminInput) { in.FirstName = "A" }, "firstName"},
		{"short last name", func(in *RegisterAdminInput) { in.LastName = " " }, "lastName"},
		{"weak password", func(in *RegisterAdminInput) { in.Password = "secret123" }, "password"},
		{"short password", func(in *RegisterAdminInput) { in.Password = "Ab1" }, "password"},
		{"password over bcrypt limit", func(in *RegisterAdminInput) { in.Password = "Aa1" + strings.Repeat("x", 77) }, "password"},
		{"multibyte password over bcrypt limit", func(in *RegisterAdminInput) { in.Password = "Aa1" + strings.Repeat("ż", 40) }, "password"},
		{"missing code", func(in *RegisterAdminInput) { in.InvitationCode = "" }, "invitationCode"},
	}
	uc, _ := newAdminUseCase(invitation)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registration("a@example.com")
			tt.mutate(&in)
			_, err := uc.Register(context.Background(), in)
			requireKind(t, err, apperr.KindValidation, apperr.CodeBadUserInput)
			assert.Equal(t, tt.field, err.(*apperr.Error).Field)
		})
	}
}

func TestLoginDoesNotRevealWhichPartFailed(t *testing.T) {
	uc, _ := newAdminUseCase(invitation)
	ctx := context.Background()
	_, err := uc.Register(ctx, registration("a@b.com"))
	require.NoError(t, err)

	payload, err := uc.Login(ctx, LoginInput{Email: "A@B.com", Password: "Secret123"})
	require.NoError(t, err)
	assert.NotEmpty(t, payload.Token)

	_, wrongPassword := uc.Login(ctx, LoginInput{Email: "a@b.com", Password: "wrong"})
	_, unknownEmail := uc.Login(ctx, LoginInput{Email: "nobody@b.com", Password: "wrong"})
	requireKind(t, wrongPassword, apperr.KindAuthentication, apperr.CodeUnauthenticated)
	requireKind(t, unknownEmail, apperr.KindAuthentication, apperr.CodeUnauthenticated)
	assert.Equal(t, "Invalid credentials", wrongPassword.Error())
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestRefreshAndMe(t *testing.T) {
	uc, _ := newAdminUseCase(invitation)
	ctx := context.Background()
	registered, err := uc.Register(ctx, registration("a@b.com"))
	require.NoError(t, err)
	id := registered.AdminUser.ID

	refreshed, err := uc.Refresh(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, refreshed.AdminUser.ID)

	_, err = uc.Refresh(ctx, "0b7c3b9e-3a52-4f7e-9d0c-1f2e3d4c5b6a")
	requireKind(t, err, apperr.KindNotFound, "")
	assert.Equal(t, "Admin user not found", err.Error())

	_, err = uc.Refresh(ctx, "")
	requireKind(t, err, apperr.KindAuthentication, "")

	me, err := uc.Me(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", me.Email)

	me, err = uc.Me(ctx, "0b7c3b9e-3a52-4f7e-9d0c-1f2e3d4c5b6a")
	require.NoError(t, err)
	assert.Nil(t, me)
}

func TestTokenFailureIsInternal(t *testing.T) {
	store := repository.NewMemoryStore()
	uc := NewAdminUseCase(store, stubIssuer{err: errors.New("signer offline")}, invitation, quietLogger())
	_, err := uc.Register(context.Background(), registration("a@b.com"))
	requireKind(t, err, apperr.KindInternal, apperr.CodeInternal)
}
