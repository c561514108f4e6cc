package sqlstore

import (
	"strings"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
)

// identified is a record keyed by a string uuid column named id.
type identified interface {
	idField() *string
}

func (r *staticDataRecord) idField() *string {
	if r == nil {
		return nil
	}
	return &r.ID
}

func (r *inboundClaimRecord) idField() *string {
	if r == nil {
		return nil
	}
	return &r.ID
}

func recordHandlers[T identified](newRecord func() T) repository.ModelHandlers[T] {
	return repository.ModelHandlers[T]{
		NewRecord: newRecord,
		GetID: func(record T) uuid.UUID {
			id := record.idField()
			if id == nil {
				return uuid.Nil
			}
			parsed, err := uuid.Parse(strings.TrimSpace(*id))
			if err != nil {
				return uuid.Nil
			}
			return parsed
		},
		SetID: func(record T, id uuid.UUID) {
			if field := record.idField(); field != nil {
				*field = id.String()
			}
		},
		GetIdentifier: func() string { return "id" },
		GetIdentifierValue: func(record T) string {
			if id := record.idField(); id != nil {
				return strings.TrimSpace(*id)
			}
			return ""
		},
	}
}

func staticDataHandlers() repository.ModelHandlers[*staticDataRecord] {
	return recordHandlers(func() *staticDataRecord { return &staticDataRecord{} })
}

func inboundClaimHandlers() repository.ModelHandlers[*inboundClaimRecord] {
	return recordHandlers(func() *inboundClaimRecord { return &inboundClaimRecord{} })
}

// isUniqueViolation matches the sqlite and postgres duplicate key messages.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	message := strings.ToLower(err.Error())
	return strings.Contains(message, "unique constraint failed") ||
		strings.Contains(message, "duplicate key value violates unique constraint")
}
