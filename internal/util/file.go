package util

import (
	"errors"
	"io"
	"net/http"
	"strings"
)

// ValidateMimeType sniffs the first 512 bytes of reader and checks the
// detected MIME type against allowedTypes (prefixes or full types,
// e.g. "image/", "image/png").
func ValidateMimeType(reader io.Reader, allowedTypes []string) (string, error) {
	buffer := make([]byte, 512)
	n, err := reader.Read(buffer)
	if err != nil && err != io.EOF {
		return "", err
	}

	mimeType := http.DetectContentType(buffer[:n])

	for _, allowed := range allowedTypes {
		if strings.HasPrefix(mimeType, allowed) || mimeType == allowed {
			return mimeType, nil
		}
	}

	return mimeType, errors.New("invalid file type: " + mimeType)
}
