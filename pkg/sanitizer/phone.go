package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// PhoneRegions are tried in order for numbers written without a country code.
var PhoneRegions = []string{
	"IN",
	"US",
}

func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)

	if phone == "" {
		return ""
	}

	for _, region := range PhoneRegions {
		parsedNumber, err := phonenumbers.Parse(phone, region)
		if err == nil && phonenumbers.IsValidNumber(parsedNumber) {
			return phonenumbers.Format(parsedNumber, phonenumbers.E164)
		}
	}
	return ""
}
