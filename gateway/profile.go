package gateway

import (
	"strings"
	"unicode"

	"github.com/creativeprojects/webmail/lib"
	"github.com/creativeprojects/webmail/profile"
)

// ProfileView is the profile shown to the user: the stored values, or defaults derived from the address.
type ProfileView struct {
	Address         string `json:"email"`
	DisplayName     string `json:"name"`
	Signature       string `json:"signature"`
	RecoveryAddress string `json:"recoveryAddress"`
}

// DefaultDisplayName derives a name from the local part of the address:
// "jane.doe_x@example.com" gives "Jane Doe X".
func DefaultDisplayName(address string) string {
	local, _, _ := strings.Cut(address, "@")
	local = strings.NewReplacer(".", " ", "_", " ").Replace(local)
	runes := []rune(local)
	for i, r := range runes {
		if i == 0 || !isWordRune(runes[i-1]) {
			runes[i] = unicode.ToUpper(r)
		}
	}
	return string(runes)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func (g *Gateway) Profile(address string) (*ProfileView, error) {
	if strings.TrimSpace(address) == "" {
		return nil, lib.Validationf("an address is required")
	}
	view := &ProfileView{
		Address:     address,
		DisplayName: DefaultDisplayName(address),
	}
	if g.profiles == nil {
		return view, nil
	}
	stored, err := g.profiles.Get(address)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return view, nil
	}
	if stored.DisplayName != "" {
		view.DisplayName = stored.DisplayName
	}
	view.Signature = stored.Signature
	view.RecoveryAddress = stored.RecoveryAddress
	return view, nil
}

// UpdateProfile replaces the stored profile of the address
func (g *Gateway) UpdateProfile(address string, update profile.Profile) error {
	if err := g.checkProfiles(address); err != nil {
		return err
	}
	if update.RecoveryAddress != "" && !strings.Contains(update.RecoveryAddress, "@") {
		return lib.Validationf("invalid recovery address %q", update.RecoveryAddress)
	}
	return g.profiles.Put(address, update)
}

// UpdateAvatar saves the avatar, and the display name when not empty
func (g *Gateway) UpdateAvatar(address, avatar, displayName string) error {
	if err := g.checkProfiles(address); err != nil {
		return err
	}
	return g.profiles.UpdateAvatar(address, avatar, displayName)
}

// Avatar returns the stored avatar, empty when there is none
func (g *Gateway) Avatar(address string) (string, error) {
	if err := g.checkProfiles(address); err != nil {
		return "", err
	}
	return g.profiles.Avatar(address)
}

func (g *Gateway) checkProfiles(address string) error {
	if strings.TrimSpace(address) == "" {
		return lib.Validationf("an address is required")
	}
	if g.profiles == nil {
		return lib.NewError(lib.ErrValidation, "profiles are not available", nil)
	}
	return nil
}
