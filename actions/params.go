package actions

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/goliatone/go-leadtable/client"
	"github.com/goliatone/go-leadtable/core"
)

const (
	DefaultPage  = 1
	DefaultLimit = 50
)

type Parameters map[string]any

func (p Parameters) String(key string) string {
	switch value := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(value)
	case fmt.Stringer:
		return strings.TrimSpace(value.String())
	default:
		return strings.TrimSpace(fmt.Sprint(value))
	}
}

func (p Parameters) Required(key string) (string, error) {
	value := p.String(key)
	if value == "" {
		return "", core.InvalidConfigurationError(
			fmt.Sprintf("parameter %q is required", key),
			map[string]any{"parameter": key},
		)
	}
	return value, nil
}

func (p Parameters) Bool(key string) bool {
	switch value := p[key].(type) {
	case bool:
		return value
	case string:
		parsed, _ := strconv.ParseBool(strings.TrimSpace(value))
		return parsed
	default:
		return false
	}
}

func (p Parameters) Int(key string, fallback int) int {
	switch value := p[key].(type) {
	case int:
		return value
	case int64:
		return int(value)
	case float64:
		return int(value)
	case json.Number:
		if parsed, err := value.Int64(); err == nil {
			return int(parsed)
		}
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func (p Parameters) Map(key string) map[string]any {
	if value, ok := p[key].(map[string]any); ok {
		return value
	}
	return map[string]any{}
}

func (p Parameters) Bytes(key string) ([]byte, error) {
	switch value := p[key].(type) {
	case nil:
		return nil, nil
	case []byte:
		return value, nil
	case string:
		decoded, err := base64.StdEncoding.DecodeString(value)
		if err != nil {
			return nil, core.InvalidConfigurationError(
				fmt.Sprintf("parameter %q must be base64 encoded", key),
				map[string]any{"parameter": key},
			)
		}
		return decoded, nil
	default:
		return nil, core.InvalidConfigurationError(
			fmt.Sprintf("parameter %q has unsupported type %T", key, value),
			map[string]any{"parameter": key},
		)
	}
}

func (p Parameters) page() client.Page {
	return client.Page{Page: p.Int("page", DefaultPage), Limit: p.Int("limit", DefaultLimit)}
}

// leadFields reads leadData.data as [{key, value}].
func (p Parameters) leadFields() []client.LeadField {
	raw, _ := p.Map("leadData")["data"].([]any)
	fields := make([]client.LeadField, 0, len(raw))
	for _, entry := range raw {
		object, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		item := Parameters(object)
		fields = append(fields, client.LeadField{Key: item.String("key"), Value: item.String("value")})
	}
	return fields
}
