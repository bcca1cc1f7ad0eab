// Package price normalizes free-form Japanese salary/rate strings into a
// canonical "<N>万" / "<N>-<M>万" token so that listings from different
// senders can be compared and grouped.
package price

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// cleaner unifies range separators and strips glyphs that carry no
	// numeric information. Fullwidth tildes come in two codepoints and some
	// senders use the plain ASCII one.
	cleaner = strings.NewReplacer(
		"〜", "-",
		"～", "-",
		"~", "-",
		" ", "",
		"　", "",
		"\t", "",
		"\n", "",
		"¥", "",
		",", "",
	)

	// rangeRe matches "60000-80000円" or "1500万-1800万円"; anything that is
	// not a digit or hyphen may sit between the two numbers ("10万円-200万円").
	rangeRe = regexp.MustCompile(`(\d+)[^\d-]*-(\d+)(万|万円|円)?`)

	// singleRe matches a lone amount with an optional unit.
	singleRe = regexp.MustCompile(`(\d+)(万|万円|円)?`)
)

// Simplify parses a price string into "<N>万", "<N>-<M>万", or "".
//
// Hourly (時給) and daily (日給) rates are never comparable to monthly or
// annual figures and always yield "". Amounts in plain yen are scaled down
// to man-yen with truncating division, so "15000円" becomes "1万".
// Unparseable input yields ""; Simplify never panics.
func Simplify(text string) string {
	if text == "" {
		return ""
	}

	cleaned := cleaner.Replace(text)

	if strings.Contains(cleaned, "時給") || strings.Contains(cleaned, "日給") {
		return ""
	}

	if m := rangeRe.FindStringSubmatch(cleaned); m != nil {
		low, lerr := strconv.Atoi(m[1])
		high, herr := strconv.Atoi(m[2])
		if lerr != nil || herr != nil {
			return ""
		}
		if m[3] == "" || m[3] == "円" {
			low /= 10000
			high /= 10000
		}
		return fmt.Sprintf("%d-%d万", low, high)
	}

	if m := singleRe.FindStringSubmatch(cleaned); m != nil {
		v, err := strconv.Atoi(m[1])
		if err != nil {
			return ""
		}
		if m[2] == "" || m[2] == "円" {
			v /= 10000
		}
		return fmt.Sprintf("%d万", v)
	}

	return ""
}
