// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeEmail folds an address to the form used as a lookup key.
//
// Fullwidth and compatibility characters are collapsed by NFKC before
// lower-casing, so "Ｕser@Example.com" and "user@example.com" are the same key.
func NormalizeEmail(email string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(email)))
}
