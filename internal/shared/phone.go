package shared

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion is used when no region is configured.
const DefaultPhoneRegion = "CO"

// NormalizePhone parses a phone number for the default region and returns it in E.164.
// Empty input stays empty.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	num, err := libphonenumber.Parse(raw, region)
	if err != nil {
		return "", InvalidArgument("telefono %q: %v", raw, err)
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", InvalidArgument("telefono %q is not a valid number", raw)
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
