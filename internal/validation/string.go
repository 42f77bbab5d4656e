package validation

import (
	"fmt"
	"net/url"
	"regexp"
	"slices"
	"strings"
	"unicode"
)

// urlChars are the characters allowed anywhere in a URL
var urlChars = regexp.MustCompile(`^[A-Za-z0-9\-._~:/?#@\[\]!$&'()*+,;=%]*$`)

// excerptWidth is the size of the snippet quoted around a bad character
const excerptWidth = 10

// StringContext validates a raw string value. A nil value stands for an
// absent string.
type StringContext struct {
	*Context
	value *string
}

// ForString creates a context for value
func ForString(target string, value *string) *StringContext {
	subject := "<nil>"
	if value != nil {
		subject = *value
	}
	return &StringContext{Context: New(target, subject), value: value}
}

// String is ForString for a present value
func String(target, value string) *StringContext {
	return ForString(target, &value)
}

func (v *StringContext) str() string {
	if v.value == nil {
		return ""
	}
	return *v.value
}

// NotBeNil requires a value
func (v *StringContext) NotBeNil() *StringContext {
	if v.value == nil {
		v.Violation("value must not be nil")
	}
	return v
}

// NotBeEmpty requires a non-empty value
func (v *StringContext) NotBeEmpty() *StringContext {
	if v.str() == "" {
		v.Violation("value must neither be nil nor empty")
	}
	return v
}

// NotBeBlank requires a value with a non-space character
func (v *StringContext) NotBeBlank() *StringContext {
	if strings.TrimSpace(v.str()) == "" {
		v.Violation("value must neither be nil nor whitespace")
	}
	return v
}

// BeOneOf requires one of valid
func (v *StringContext) BeOneOf(valid ...string) *StringContext {
	if v.value == nil || !slices.Contains(valid, *v.value) {
		v.Violation("value must be one of the following: " + strings.Join(valid, ", "))
	}
	return v
}

// Satisfy requires every character to pass check. Each failing index is
// reported with a short excerpt around it.
func (v *StringContext) Satisfy(name string, check func(rune) bool) *StringContext {
	if v.value == nil {
		v.Violation(name + " failed: string is nil")
		return v
	}
	runes := []rune(*v.value)
	failed := false
	for i, r := range runes {
		if check(r) {
			continue
		}
		failed = true
		start := max(0, i-excerptWidth/2)
		end := min(len(runes), i+excerptWidth/2)
		v.Violationf("%s failed at index %d: %q", name, i, string(runes[start:end]))
	}
	if failed {
		v.Violation(name + " failed")
	}
	return v
}

// BeASCII requires ASCII characters only
func (v *StringContext) BeASCII() *StringContext {
	return v.Satisfy("ascii check", func(r rune) bool { return r <= unicode.MaxASCII })
}

// BeAlphanumeric requires letters and digits only
func (v *StringContext) BeAlphanumeric() *StringContext {
	return v.Satisfy("alphanumeric check", func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	})
}

// BeNumeric requires digits only
func (v *StringContext) BeNumeric() *StringContext {
	return v.Satisfy("numeric check", unicode.IsDigit)
}

// NotContainWhitespace forbids whitespace
func (v *StringContext) NotContainWhitespace() *StringContext {
	return v.Satisfy("whitespace check", func(r rune) bool { return !unicode.IsSpace(r) })
}

// StartWith requires prefix
func (v *StringContext) StartWith(prefix string) *StringContext {
	if !strings.HasPrefix(v.str(), prefix) {
		v.Violation("value must start with " + prefix)
	}
	return v
}

// NotStartWith forbids prefix
func (v *StringContext) NotStartWith(prefix string) *StringContext {
	if v.value != nil && strings.HasPrefix(*v.value, prefix) {
		v.Violation("value must not start with " + prefix)
	}
	return v
}

// EndWith requires suffix
func (v *StringContext) EndWith(suffix string) *StringContext {
	if !strings.HasSuffix(v.str(), suffix) {
		v.Violation("value must end with '" + suffix + "'")
	}
	return v
}

// Contain requires substr
func (v *StringContext) Contain(substr string) *StringContext {
	if !strings.Contains(v.str(), substr) {
		v.Violation("value must contain " + substr)
	}
	return v
}

// NotContain forbids substr
func (v *StringContext) NotContain(substr string) *StringContext {
	if strings.Contains(v.str(), substr) {
		v.Violation("value must not contain " + substr)
	}
	return v
}

// MatchRegex requires a match of re
func (v *StringContext) MatchRegex(re *regexp.Regexp) *StringContext {
	if !re.MatchString(v.str()) {
		v.Violation("value must match regex " + re.String())
	}
	return v
}

// MinLength requires at least n characters
func (v *StringContext) MinLength(n int) *StringContext {
	if l := len([]rune(v.str())); l < n {
		v.Violationf("value must be at least %d characters long but has a length of %d", n, l)
	}
	return v
}

// MaxLength allows at most n characters
func (v *StringContext) MaxLength(n int) *StringContext {
	if l := len([]rune(v.str())); l > n {
		v.Violationf("value must be at most %d characters long but has a length of %d", n, l)
	}
	return v
}

// BeURL requires a parseable URL; absolute selects absolute or relative
// form
func (v *StringContext) BeURL(absolute bool) *StringContext {
	_ = v.parseURL(absolute)
	return v
}

func (v *StringContext) parseURL(absolute bool) *url.URL {
	v.NotBeBlank().NotContainWhitespace().MatchRegex(urlChars)
	kind := "relative"
	if absolute {
		kind = "absolute"
	}
	u, err := url.Parse(v.str())
	if err != nil || u.IsAbs() != absolute || (absolute && u.Host == "") {
		v.Violation(fmt.Sprintf("value must be a valid %s URL", kind))
		return nil
	}
	return u
}

// BeBaseURL requires an absolute URL without a query
func (v *StringContext) BeBaseURL() *StringContext {
	v.BeURL(true)
	return v.NotContain("?")
}

// BeURLWithScheme requires an absolute URL using one of schemes
func (v *StringContext) BeURLWithScheme(schemes ...string) *StringContext {
	u := v.parseURL(true)
	if u != nil && !slices.Contains(schemes, u.Scheme) {
		v.Violation(fmt.Sprintf("url has scheme %s but must have one of the following: %s",
			u.Scheme, strings.Join(schemes, ", ")))
	}
	return v
}
