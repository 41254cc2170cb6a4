package passwords

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// UserAttributeSimilarity rejects passwords too close to the username or
// email address, or to any word-separated part of them.
type UserAttributeSimilarity struct {
	MaxSimilarity float64
}

func (p UserAttributeSimilarity) Check(password string, attrs Attributes) []string {
	pw := strings.ToLower(password)
	fields := []struct {
		value, name string
	}{
		{attrs.Username, "username"},
		{attrs.Email, "email address"},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		value := strings.ToLower(f.value)
		parts := append(splitNonWord(value), value)
		for _, part := range parts {
			if exceedsMaxLengthRatio(pw, p.MaxSimilarity, part) {
				continue
			}
			if quickRatio(pw, part) >= p.MaxSimilarity {
				return []string{"The password is too similar to the " + f.name + "."}
			}
		}
	}
	return nil
}

// exceedsMaxLengthRatio is true when password is so much longer than value
// that no similarity score could matter.
func exceedsMaxLengthRatio(password string, maxSimilarity float64, value string) bool {
	pwdLen := utf8.RuneCountInString(password)
	valueLen := utf8.RuneCountInString(value)
	lengthBound := maxSimilarity / 2 * float64(pwdLen)
	return pwdLen >= 10*valueLen && float64(valueLen) < lengthBound
}

// quickRatio is an upper bound on the matching-blocks similarity of a and b:
// twice the size of their character multiset intersection over the total
// length.
func quickRatio(a, b string) float64 {
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return 1
	}
	avail := make(map[rune]int)
	for _, r := range b {
		avail[r]++
	}
	matches := 0
	for _, r := range a {
		if avail[r] > 0 {
			avail[r]--
			matches++
		}
	}
	return 2 * float64(matches) / float64(total)
}

func splitNonWord(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
	})
}
