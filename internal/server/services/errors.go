package services

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// typed lists the errors that reach callers unchanged.
var typed = []error{
	common.ErrValidation,
	common.ErrDuplicateEmail,
	common.ErrInvalidCredentials,
	common.ErrorUnauthenticated,
	common.ErrInvalidUpdateFields,
	common.ErrorNotFound,
	common.ErrorInternal,
}

// classify passes typed errors through and wraps anything else as
// common.ErrorInternal, keeping the cause for logs.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, t := range typed {
		if errors.Is(err, t) {
			return err
		}
	}
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}
