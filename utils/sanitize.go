package utils

import "github.com/microcosm-cc/bluemonday"

var sanitizer = bluemonday.UGCPolicy()

// Sanitize strips dangerous HTML from user-generated content (posts,
// messages, profile fields) to prevent stored XSS.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
