package isbn

import (
	"strings"

	"bookpublish/internal/entity"
)

// Normalize strips hyphens and spaces and upper-cases a trailing x.
func Normalize(code string) string {
	code = strings.TrimSpace(code)
	code = strings.ReplaceAll(code, "-", "")
	code = strings.ReplaceAll(code, " ", "")
	return strings.ToUpper(code)
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// CheckDigit13 computes the ISBN-13 check digit for the first 12 digits.
func CheckDigit13(first12 string) byte {
	sum := 0
	for i := 0; i < 12; i++ {
		d := int(first12[i] - '0')
		if i%2 == 1 {
			d *= 3
		}
		sum += d
	}
	return byte('0' + (10-sum%10)%10)
}

// CheckDigit10 computes the ISBN-10 check character for the first 9 digits.
func CheckDigit10(first9 string) byte {
	sum := 0
	for i := 0; i < 9; i++ {
		sum += int(first9[i]-'0') * (10 - i)
	}
	c := (11 - sum%11) % 11
	if c == 10 {
		return 'X'
	}
	return byte('0' + c)
}

// Validate13 reports whether code is a well-formed ISBN-13 with a correct
// check digit. Hyphens and spaces are ignored.
func Validate13(code string) bool {
	n := Normalize(code)
	if len(n) != 13 || !allDigits(n) {
		return false
	}
	return CheckDigit13(n[:12]) == n[12]
}

// Validate10 reports whether code is a well-formed ISBN-10. 'X' stands for a
// check value of ten.
func Validate10(code string) bool {
	n := Normalize(code)
	if len(n) != 10 || !allDigits(n[:9]) {
		return false
	}
	last := n[9]
	if last != 'X' && (last < '0' || last > '9') {
		return false
	}
	return CheckDigit10(n[:9]) == last
}

// Convert10To13 drops the ISBN-10 check digit, prepends the 978 Bookland
// prefix and recomputes the check digit.
func Convert10To13(isbn10 string) (string, error) {
	n := Normalize(isbn10)
	if !Validate10(n) {
		return "", &entity.InvalidISBNError{Value: isbn10, Reason: "not a valid ISBN-10"}
	}
	body := "978" + n[:9]
	return body + string(CheckDigit13(body)), nil
}

// Convert13To10 is the inverse of Convert10To13. Only 978-prefixed ISBNs have
// an ISBN-10 form.
func Convert13To10(isbn13 string) (string, error) {
	n := Normalize(isbn13)
	if !Validate13(n) {
		return "", &entity.InvalidISBNError{Value: isbn13, Reason: "not a valid ISBN-13"}
	}
	if !strings.HasPrefix(n, "978") {
		return "", &entity.InvalidISBNError{Value: isbn13, Reason: "only 978 ISBNs convert to ISBN-10"}
	}
	body := n[3:12]
	return body + string(CheckDigit10(body)), nil
}

// ToISBN13 accepts either form and returns the normalized ISBN-13.
func ToISBN13(code string) (string, error) {
	n := Normalize(code)
	switch len(n) {
	case 13:
		if !Validate13(n) {
			return "", &entity.InvalidISBNError{Value: code, Reason: "check digit mismatch"}
		}
		return n, nil
	case 10:
		return Convert10To13(n)
	default:
		return "", &entity.InvalidISBNError{Value: code, Reason: "must have 10 or 13 digits"}
	}
}

// registrantRanges approximates the registrant element lengths for the
// English-language groups 0 and 1. The authoritative table is published by
// the International ISBN Agency and is not embedded here.
var registrantRanges = map[byte][]struct {
	upTo   int // inclusive upper bound of the 7-digit prefix after the group
	length int
}{
	'0': {{1999999, 2}, {6999999, 3}, {8499999, 4}, {8999999, 5}, {9499999, 6}, {9999999, 7}},
	'1': {{999999, 2}, {3999999, 3}, {5499999, 4}, {8697999, 5}, {9989999, 6}, {9999999, 7}},
}

// Hyphenate inserts hyphens into a 978/979 ISBN-13. The grouping is a best-effort
// approximation and says nothing about validity; inputs that are not 13
// digits are returned normalized but unhyphenated.
func Hyphenate(code string) string {
	n := Normalize(code)
	if len(n) == 10 {
		if converted, err := Convert10To13(n); err == nil {
			n = converted
		}
	}
	if len(n) != 13 || !allDigits(n) {
		return n
	}
	prefix, group, rest := n[:3], n[3:4], n[4:12]
	regLen := 4
	if ranges, ok := registrantRanges[group[0]]; ok && prefix == "978" {
		lead := 0
		for _, c := range rest[:7] {
			lead = lead*10 + int(c-'0')
		}
		for _, r := range ranges {
			if lead <= r.upTo {
				regLen = r.length
				break
			}
		}
	}
	return prefix + "-" + group + "-" + rest[:regLen] + "-" + rest[regLen:] + "-" + n[12:]
}
