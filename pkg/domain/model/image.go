package model

import "strings"

// maxTagLength is the registry limit for a single image tag.
const maxTagLength = 128

// TagFromRef derives an image tag from a git reference, following the
// tag-with-ref convention of CI image builders:
//
//	refs/tags/v1.0        -> v1.0
//	refs/heads/master     -> latest (also main)
//	refs/heads/my/branch  -> my-branch
//	refs/pull/2/merge     -> pr-2-merge
//
// A bare reference without a refs/ prefix is treated as a tag name.
// The result is always sanitized to a valid registry tag.
func TagFromRef(ref string) string {
	switch {
	case strings.HasPrefix(ref, "refs/tags/"):
		return SanitizeTag(strings.TrimPrefix(ref, "refs/tags/"))
	case strings.HasPrefix(ref, "refs/heads/"):
		branch := strings.TrimPrefix(ref, "refs/heads/")
		if branch == "master" || branch == "main" {
			return "latest"
		}
		return SanitizeTag(branch)
	case strings.HasPrefix(ref, "refs/pull/"):
		return SanitizeTag("pr-" + strings.TrimPrefix(ref, "refs/pull/"))
	default:
		return SanitizeTag(ref)
	}
}

// SanitizeTag converts an arbitrary string into a valid image tag: slashes
// and other invalid characters become '-', leading separators are trimmed,
// and the result is clamped to the registry's 128 character limit. An empty
// result falls back to "latest".
func SanitizeTag(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_', r == '.', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}

	tag := strings.TrimLeft(b.String(), ".-")
	if len(tag) > maxTagLength {
		tag = tag[:maxTagLength]
	}
	if tag == "" {
		return "latest"
	}
	return tag
}
