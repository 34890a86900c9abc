package usecase

import (
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/poisonshell/dream-api/internal/apperr"
)

// internal logs err and returns the client-safe internal error.
func internal(log *logrus.Logger, msg string, err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	log.WithError(err).Error("Use Case: " + msg)
	return apperr.Internal(err)
}
