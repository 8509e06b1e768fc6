package utils

import (
	"crypto/md5"
	"encoding/hex"
	"os"
	"regexp"
	"strings"

	Logger "github.com/viralmux/viralmux/utils/log"
)

// ContainsString returns true iff the provided string slice hay contains
// string needle.
func ContainsString(hay []string, needle string) bool {
	for _, str := range hay {
		if str == needle {
			return true
		}
	}
	return false
}

func IsProdEnv() bool {
	return os.Getenv("VIRALMUX_ENV") == "prod"
}

// TextToMd5Hash returns the lower case hex encoded md5 hash of the input.
func TextToMd5Hash(text string) (string, error) {
	h := md5.New()
	if _, err := h.Write([]byte(text)); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ImmediatePrintError logs the error at the place it happens and returns the
// same error so that the caller can propagate it further.
func ImmediatePrintError(err error) error {
	if err != nil {
		Logger.Log.Error(err)
	}
	return err
}

var (
	nonSlugChars   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashRuns   = regexp.MustCompile(`-+`)
)

// Slugify converts a title into a url-safe slug, capped at 60 characters.
func Slugify(title string) string {
	slug := strings.ToLower(title)
	slug = nonSlugChars.ReplaceAllString(slug, "")
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	slug = slugDashRuns.ReplaceAllString(slug, "-")
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return strings.Trim(slug, "-")
}

var whitespaceRuns = regexp.MustCompile(`\s+`)

// CollapseWhitespace flattens runs of whitespace into single spaces, which is
// what scraped HTML text usually needs.
func CollapseWhitespace(text string) string {
	return strings.TrimSpace(whitespaceRuns.ReplaceAllString(text, " "))
}

// TruncateText cuts text to at most max runes, appending an ellipsis when
// anything was cut.
func TruncateText(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}
	return strings.TrimSpace(string(runes[:max])) + "..."
}
