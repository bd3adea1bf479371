// Utilities for lifting a session token out of a browser "Copy as cURL" command.
package shared

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	headerFlag = regexp.MustCompile(`(?:-H|--header)\s+'([^']+)'|(?:-H|--header)\s+"([^"]+)"`)
	urlArg     = regexp.MustCompile(`(?:^|\s)['"]?(https?://[^'"\s]+)`)
)

// CurlRequest holds the parts of a cURL command relevant to the API client.
type CurlRequest struct {
	URL     string
	Headers map[string]string
}

// ParseCurlFile reads a file containing a cURL command and parses it.
func ParseCurlFile(path string) (*CurlRequest, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read curl file: %w", err)
	}

	return ParseCurlCommand(string(content))
}

// ParseCurlCommand extracts the target URL and headers from a cURL command.
//
// Header names are lower-cased. Line continuations are folded before matching.
func ParseCurlCommand(cmd string) (*CurlRequest, error) {
	cmd = strings.ReplaceAll(cmd, "\\\r\n", " ")
	cmd = strings.ReplaceAll(cmd, "\\\n", " ")

	req := &CurlRequest{Headers: make(map[string]string)}

	for _, match := range headerFlag.FindAllStringSubmatch(cmd, -1) {
		line := match[1]
		if line == "" {
			line = match[2]
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		req.Headers[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	// Header values may carry URLs of their own (referer, origin).
	if m := urlArg.FindStringSubmatch(headerFlag.ReplaceAllString(cmd, " ")); len(m) > 1 {
		req.URL = m[1]
	}

	if len(req.Headers) == 0 {
		return nil, fmt.Errorf("%w: no headers found in curl command", ErrInvalidInput)
	}

	return req, nil
}

// BearerToken returns the token from the Authorization header.
func (c *CurlRequest) BearerToken() (string, error) {
	auth, ok := c.Headers["authorization"]
	if !ok {
		return "", fmt.Errorf("%w: no authorization header", ErrNoToken)
	}

	scheme, token, ok := strings.Cut(auth, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") {
		return "", fmt.Errorf("%w: authorization header is not a bearer credential", ErrNoToken)
	}

	token = strings.TrimSpace(token)
	if token == "" || token == "null" || token == "undefined" {
		return "", fmt.Errorf("%w: empty bearer token", ErrNoToken)
	}

	return token, nil
}
