package services

import (
	"fmt"
	"regexp"
	"strings"
)

// IDValidator checks external identifiers (message and user ids) against a pattern.
type IDValidator struct {
	re *regexp.Regexp
}

// NewIDValidator compiles pattern. An empty pattern accepts any non-blank id.
func NewIDValidator(pattern string) (*IDValidator, error) {
	if pattern == "" {
		return &IDValidator{}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid id pattern %q: %w", pattern, err)
	}
	return &IDValidator{re: re}, nil
}

func (v *IDValidator) Validate(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return invalidf("%s id is required", kind)
	}
	if v != nil && v.re != nil && !v.re.MatchString(id) {
		return invalidf("malformed %s id %q", kind, id)
	}
	return nil
}
