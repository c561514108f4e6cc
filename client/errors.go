package client

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-leadtable/core"
)

const requestFailedPrefix = "LeadTable API request failed"

func statusFailure(status int, body any) error {
	remote := remoteErrorField(body)
	metadata := map[string]any{core.MetadataStatusCode: status}
	if remote != "" {
		metadata[core.MetadataRemoteMessage] = remote
	}

	message := fmt.Sprintf("%s: %d", requestFailedPrefix, status)
	switch status {
	case http.StatusForbidden:
		return core.AuthenticationFailedError(
			message+" - Authentication failed. Please check your API Key and Email address.",
			metadata,
		)
	case http.StatusNotFound:
		return core.UnknownScopeIDError(appendDetail(message, remote, http.StatusText(status)), metadata)
	default:
		return core.RemoteRequestFailedError(appendDetail(message, remote, http.StatusText(status)), status, metadata)
	}
}

// transportFailure covers calls that never produced an HTTP status.
func transportFailure(err error) error {
	detail := core.ErrorMessage(err)
	message := appendDetail(requestFailedPrefix+": UNKNOWN", detail, "")
	metadata := map[string]any{core.MetadataRemoteMessage: detail}
	if core.IsInvalidConfiguration(err) {
		return core.InvalidConfigurationError(message, metadata)
	}
	return core.RemoteRequestFailedError(message, 0, metadata)
}

func appendDetail(message, remote, fallback string) string {
	if remote != "" {
		return fmt.Sprintf("%s - %q", message, remote)
	}
	if fallback != "" {
		return fmt.Sprintf("%s - %q", message, fallback)
	}
	return message
}

func remoteErrorField(body any) string {
	object, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	switch value := object["error"].(type) {
	case string:
		return strings.TrimSpace(value)
	case map[string]any:
		if msg, ok := value["message"].(string); ok {
			return strings.TrimSpace(msg)
		}
	}
	return ""
}
