package usecase

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/poisonshell/dream-api/internal/apperr"
	"github.com/poisonshell/dream-api/internal/domain"
	"github.com/poisonshell/dream-api/internal/query"
	"github.com/poisonshell/dream-api/internal/repository"
)

func ptr[T any](v T) *T { return &v }

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func requireKind(t *testing.T, err error, kind apperr.Kind, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr), "want *apperr.Error, got %T: %v", err, err)
	require.Equal(t, kind, appErr.Kind)
	if code != "" {
		require.Equal(t, code, appErr.Code)
	}
}

type stubIssuer struct{ err error }

func (s stubIssuer) Issue(subject string, privileged bool) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if privileged {
		return "token-admin-" + subject, nil
	}
	return "token-" + subject, nil
}

// brokenStore fails every product listing call.
type brokenStore struct {
	*repository.MemoryStore
}

func (brokenStore) CountProducts(context.Context, []query.Predicate) (int, error) {
	return 0, errors.New("connection reset")
}

func newCategory(t *testing.T, store *repository.MemoryStore, slug string) *domain.Category {
	t.Helper()
	c, err := store.CreateCategory(context.Background(), &domain.Category{Name: slug, Slug: slug})
	require.NoError(t, err)
	return c
}
