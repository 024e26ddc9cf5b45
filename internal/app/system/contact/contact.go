// internal/app/system/contact/contact.go
package contact

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultRegion is used when a number carries no country code.
const DefaultRegion = "IN"

// Checker flags contact numbers that cannot be dialed. It never rewrites
// the stored value; dedup keys stay digits-only.
type Checker struct {
	region string
}

// NewChecker returns a Checker that parses national numbers in region
// (ISO 3166-1 alpha-2). An empty region means DefaultRegion.
func NewChecker(region string) *Checker {
	region = strings.ToUpper(strings.TrimSpace(region))
	if region == "" {
		region = DefaultRegion
	}
	return &Checker{region: region}
}

// Region returns the region used for national numbers.
func (c *Checker) Region() string { return c.region }

// Plausible reports whether digits could be a real phone number. Empty
// input is plausible: a lead without a contact is allowed.
func (c *Checker) Plausible(digits string) bool {
	if digits == "" {
		return true
	}
	num, err := phonenumbers.Parse(digits, c.region)
	if err != nil {
		// Digits that already include a country code parse with a leading +.
		num, err = phonenumbers.Parse("+"+digits, "")
		if err != nil {
			return false
		}
	}
	return phonenumbers.IsPossibleNumber(num)
}

// Format renders digits in international format for display, or returns
// digits unchanged when they do not parse.
func (c *Checker) Format(digits string) string {
	if digits == "" {
		return ""
	}
	num, err := phonenumbers.Parse(digits, c.region)
	if err != nil || !phonenumbers.IsPossibleNumber(num) {
		return digits
	}
	return phonenumbers.Format(num, phonenumbers.INTERNATIONAL)
}
