package transport

import (
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-leadtable/core"
)

func transportError(message string, category goerrors.Category, code int, metadata map[string]any) error {
	return core.NewError(message, category, code, transportTextCode(category), metadata)
}

func transportWrapError(source error, category goerrors.Category, message string, code int, metadata map[string]any) error {
	return core.WrapError(source, category, message, code, transportTextCode(category), metadata)
}

// A transport failure never reached LeadTable, so external and operation
// failures surface as remote request failures without a remote status.
func transportTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return core.ErrorInvalidConfiguration
	case goerrors.CategoryRateLimit:
		return core.ErrorRateLimited
	case goerrors.CategoryExternal, goerrors.CategoryOperation:
		return core.ErrorRemoteRequestFailed
	default:
		return core.ErrorInternal
	}
}
