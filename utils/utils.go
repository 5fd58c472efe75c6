package utils

import (
	"regexp"
	"strings"
	"unicode"
)

// NormalizeConfirm maps the accepted confirmation replies onto "confirm"
// and "modify"; anything else comes back normalized.
func NormalizeConfirm(input string) string {
	input = NormalizeString(input)
	switch input {
	case "confirm", "yes", "y", "ok", "确认", "确认提交", "确认退货":
		return "confirm"
	case "modify", "change", "edit", "修改", "重新填写":
		return "modify"
	}
	return input
}

// NormalizeString lower-cases s and strips ASCII and full-width spaces.
func NormalizeString(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r == ' ' || r == '　' {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// LastSegment returns what follows the last sep in s, or s itself.
func LastSegment(s string, sep string) string {
	if i := strings.LastIndex(s, sep); i >= 0 {
		return s[i+len(sep):]
	}
	return s
}

var (
	orderNumberDigits   = regexp.MustCompile(`[0-9]{5,20}`)
	orderNumberPatterns = []*regexp.Regexp{
		regexp.MustCompile(`订单[号：:\s]*([0-9]{5,20})`),
		regexp.MustCompile(`(?i)order[_\s]?(?:id|number|no)[：:\s=#]*([0-9]{5,20})`),
		regexp.MustCompile(`(?:单号|运单|快递)[：:\s]*([0-9]{5,20})`),
	}
)

// ExtractOrderNumber finds an order number (5 to 20 digits) in free text.
func ExtractOrderNumber(message string) string {
	message = strings.TrimSpace(message)
	for _, re := range orderNumberPatterns {
		if m := re.FindStringSubmatch(message); len(m) > 1 && m[1] != "" {
			return m[1]
		}
	}
	return orderNumberDigits.FindString(message)
}
