package impl

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/domain"
	"github.com/ielcomnunsahui/nunsa-ielcom-sub000/internal/store"
)

var (
	ErrEmptyMatric   = fmt.Errorf("%w: matric is required", domain.ErrInvalidRequest)
	ErrEmptyName     = fmt.Errorf("%w: name is required", domain.ErrInvalidRequest)
	ErrInvalidEmail  = fmt.Errorf("%w: invalid email", domain.ErrInvalidRequest)
	ErrEmailMismatch = fmt.Errorf("%w: email does not match registration", domain.ErrInvalidRequest)
	ErrInvalidID     = fmt.Errorf("%w: invalid id", domain.ErrInvalidRequest)
	ErrInvalidBase64 = fmt.Errorf("%w: invalid base64", domain.ErrInvalidRequest)
)

// storageErr tags infrastructure failures so they classify as StorageError.
func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStorage, op, err)
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, ErrInvalidID
	}
	return id, nil
}

// decodeB64 accepts standard or URL alphabets, with or without padding,
// since browsers and native clients disagree.
func decodeB64(field, raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: %s is required", domain.ErrInvalidRequest, field)
	}
	trimmed := strings.TrimRight(raw, "=")
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.RawStdEncoding} {
		if b, err := enc.DecodeString(trimmed); err == nil {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrInvalidBase64, field)
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrRecordNotFound)
}
