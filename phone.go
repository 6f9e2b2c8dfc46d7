package campus

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// DefaultPhoneRegion is used to parse numbers written without a country code.
const DefaultPhoneRegion = "IN"

// NormalizePhone parses raw and formats it as E.164. Empty input yields an
// empty string.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if region == "" {
		region = DefaultPhoneRegion
	}

	num, err := phonenumbers.Parse(raw, strings.ToUpper(region))
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return "", ErrInvalidPhoneNumber.Clone().WithMetadata(map[string]any{
			"phone":  raw,
			"region": region,
		})
	}

	return phonenumbers.Format(num, phonenumbers.E164), nil
}
