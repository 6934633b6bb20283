// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package validation checks user-supplied identifiers before they reach a
// request path.
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// Record IDs are opaque to the client. This admits the shapes the catalog
// service issues (hex object IDs, UUIDs, slugs) and rejects anything that
// could alter a request path: slashes, whitespace, control characters.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:\-]{0,127}$`)

// ValidateID validates a record ID taken from the command line.
//
// Example:
//
//	if err := validation.ValidateID(args[0]); err != nil {
//	    return err
//	}
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("id cannot be empty")
	}
	if !idPattern.MatchString(id) {
		return fmt.Errorf("invalid id %q (letters, digits, '_', '.', ':' or '-', at most 128 chars)", id)
	}
	return nil
}

// SanitizeID trims surrounding whitespace and validates the result.
func SanitizeID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if err := ValidateID(id); err != nil {
		return "", err
	}
	return id, nil
}
