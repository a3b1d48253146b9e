package utils

import (
	"bytes"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// ReadBody reads up to max bytes of the request body and puts the full body back.
func ReadBody(r *http.Request, max int64) (string, error) {
	if r.Body == nil {
		return "", nil
	}

	bodyBytes, err := io.ReadAll(r.Body)
	if err != nil {
		return "", err
	}

	r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	if max > 0 && int64(len(bodyBytes)) > max {
		bodyBytes = bodyBytes[:max]
	}
	return string(bodyBytes), nil
}

// ParseIntDefault parses raw and clamps it to [min, max]. Empty or invalid input yields def.
func ParseIntDefault(raw string, def, min, max int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return def
	}
	if n < min {
		return min
	}
	if max > 0 && n > max {
		return max
	}
	return n
}
