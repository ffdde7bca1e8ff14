package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxRevisionLength bounds revision strings accepted from users.
const maxRevisionLength = 256

// ValidateRevision validates a revision expression (branch, tag, or abbreviated
// commit id) before it reaches the repository.
//
// The validation rules follow git's ref-name restrictions loosely:
//   - No empty revisions
//   - No control characters or spaces
//   - No "..", "@{" or a leading "-" (range syntax, reflog, option injection)
//   - Maximum length of 256 characters
func ValidateRevision(rev string) error {
	if rev == "" {
		return New(ErrCodeInvalidRevision, "revision cannot be empty")
	}
	if len(rev) > maxRevisionLength {
		return New(ErrCodeInvalidRevision, "revision too long (max %d characters)", maxRevisionLength)
	}
	for _, r := range rev {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidRevision, "revision contains whitespace or control characters")
		}
	}
	if strings.HasPrefix(rev, "-") {
		return New(ErrCodeInvalidRevision, "revision cannot start with '-'")
	}
	for _, pattern := range []string{"..", "@{"} {
		if strings.Contains(rev, pattern) {
			return New(ErrCodeInvalidRevision, "revision contains unsupported sequence: %q", pattern)
		}
	}
	return nil
}

// commitIDRegex matches full or abbreviated hexadecimal commit ids.
var commitIDRegex = regexp.MustCompile(`^[0-9a-f]{4,64}$`)

// IsCommitID reports whether s looks like a (possibly abbreviated) commit id.
func IsCommitID(s string) bool {
	return commitIDRegex.MatchString(s)
}

// ValidatePath validates a local file path given on the command line or in
// the config file. Only obviously broken input is rejected.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid control characters")
		}
	}
	return nil
}

// ValidateURL validates a cache backend URL. It only checks the scheme.
func ValidateURL(rawURL string, schemes ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	for _, s := range schemes {
		if strings.HasPrefix(rawURL, s+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidInput, "URL must use one of the schemes: %s", strings.Join(schemes, ", "))
}
