package dispatch

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/creativeprojects/webmail/lib"
)

var addressPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Recipients decodes either a comma separated string or a list of strings
type Recipients []string

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*r = Recipients{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return lib.Validationf("recipients must be a string or a list of strings")
	}
	*r = list
	return nil
}

// IsValidAddress only checks the local@domain.tld shape
func IsValidAddress(address string) bool {
	return addressPattern.MatchString(address)
}

// ParseRecipients splits every value on commas and checks each address. List elements are
// split too, so ["a@x.com, b@x.com"] gives two recipients: a quoted display name holding a
// comma is not supported. Any invalid address fails the whole set, and the error names all of them.
func ParseRecipients(values ...string) ([]string, error) {
	recipients := make([]string, 0, len(values))
	invalid := make([]string, 0)
	for _, value := range values {
		for _, address := range strings.Split(value, ",") {
			address = strings.TrimSpace(address)
			if address == "" {
				continue
			}
			if !IsValidAddress(address) {
				invalid = append(invalid, address)
				continue
			}
			recipients = append(recipients, address)
		}
	}
	if len(invalid) > 0 {
		return nil, lib.Validationf("invalid recipient addresses: %s", strings.Join(invalid, ", "))
	}
	if len(recipients) == 0 {
		return nil, lib.Validationf("at least one valid recipient is required")
	}
	return recipients, nil
}
