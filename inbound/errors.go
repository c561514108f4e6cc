package inbound

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// statusOf resolves the HTTP status to answer with for err.
func statusOf(err error) int {
	var rich *goerrors.Error
	if goerrors.As(err, &rich) && rich.Code >= http.StatusBadRequest && rich.Code <= 599 {
		return rich.Code
	}
	return http.StatusInternalServerError
}
