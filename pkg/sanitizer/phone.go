package sanitizer

import (
	"strings"

	"github.com/nyaruka/phonenumbers"
)

const DefaultRegion = "VN"

// NormalizePhone returns the number in national digits-only form
// (e.g. "+84 912 345 678" -> "0912345678"). Numbers that cannot be parsed are
// returned trimmed so the validator can reject them with a precise message.
func NormalizePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return ""
	}

	parsed, err := phonenumbers.Parse(phone, DefaultRegion)
	if err != nil {
		return phone
	}
	switch phonenumbers.GetRegionCodeForNumber(parsed) {
	case DefaultRegion:
		return DigitsOnly(phonenumbers.Format(parsed, phonenumbers.NATIONAL))
	case "":
		return phone
	default:
		return phonenumbers.Format(parsed, phonenumbers.E164)
	}
}
