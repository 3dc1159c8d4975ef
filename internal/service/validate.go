package service

import "regexp"

// newPhonePattern builds the accepted phone format: the configured country
// code prefix followed by exactly ten digits.
func newPhonePattern(countryCode string) *regexp.Regexp {
	return regexp.MustCompile("^" + regexp.QuoteMeta(countryCode) + `\d{10}$`)
}
