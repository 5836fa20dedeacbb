package repository

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Cursor is a keyset position in a newest-first post listing.
type Cursor struct {
	Timestamp time.Time
	ID        uuid.UUID
}

func encodeCursor(timestamp time.Time, id uuid.UUID) string {
	cursorStr := timestamp.UTC().Format(time.RFC3339Nano) + "|" + id.String()
	return base64.RawURLEncoding.EncodeToString([]byte(cursorStr))
}

func decodeCursor(cursor string) (*Cursor, error) {
	decoded, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, err
	}

	tsStr, idStr, ok := strings.Cut(string(decoded), "|")
	if !ok {
		return nil, fmt.Errorf("malformed cursor")
	}

	timestamp, err := time.Parse(time.RFC3339Nano, tsStr)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, err
	}

	return &Cursor{
		Timestamp: timestamp.UTC(),
		ID:        id,
	}, nil
}
