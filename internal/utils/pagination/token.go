package pagination

import (
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
)

const (
	// DefaultLimit is the page size used when a request sets none.
	DefaultLimit = 100
	// MaxLimit caps every page.
	MaxLimit = 1000

	offsetField = "o"
)

// EncodeMultiFieldToken creates a token with any number of string fields.
func EncodeMultiFieldToken(fields ...string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strings.Join(fields, "|")))
}

// DecodeMultiFieldToken decodes a token into its component fields.
func DecodeMultiFieldToken(token string) ([]string, error) {
	decodedBytes, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("invalid pagination token format (base64 decode): %w", err)
	}
	return strings.Split(string(decodedBytes), "|"), nil
}

// EncodeOffsetToken returns the opaque token of the page starting at offset.
func EncodeOffsetToken(offset int) string {
	return EncodeMultiFieldToken(offsetField, strconv.Itoa(offset))
}

// DecodeOffsetToken returns the offset carried by token. An empty token is the first page.
func DecodeOffsetToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	parts, err := DecodeMultiFieldToken(token)
	if err != nil {
		return 0, err
	}
	if len(parts) != 2 || parts[0] != offsetField {
		return 0, fmt.Errorf("invalid pagination token format (fields)")
	}
	offset, err := strconv.Atoi(parts[1])
	if err != nil || offset < 0 {
		return 0, fmt.Errorf("invalid pagination token format (offset)")
	}
	return offset, nil
}

// EffectiveLimit applies the default and the cap to a requested page size.
func EffectiveLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	}
	return limit
}

// NextToken returns the token of the page after the one starting at offset, or an empty
// string when the page came back short and there is nothing more to read.
func NextToken(offset, limit, got int) string {
	limit = EffectiveLimit(limit)
	if got < limit {
		return ""
	}
	return EncodeOffsetToken(offset + got)
}
