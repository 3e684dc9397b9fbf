// Package refdata loads the static lookup tables (roster, owner aliases,
// overrides, licensing, closer directory) that the resolver, router and
// booking workflow treat as read-only input.
package refdata

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"leadops_backend/platform/phone"
	"leadops_backend/platform/sanitize"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// Substring maps any input containing Match to Owner.
type Substring struct {
	Match string `yaml:"match"`
	Owner string `yaml:"owner"`
}

// Override pins a contact to an owner. Any of Name, Email, Phone may be set.
type Override struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
	Owner string `yaml:"owner"`
}

// Closer is a team member who can be emailed about bookings.
type Closer struct {
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
}

// Tables is the parsed reference document.
type Tables struct {
	Roster        []string            `yaml:"roster"`
	OverflowAgent string              `yaml:"overflowAgent"`
	Aliases       map[string]string   `yaml:"aliases"`
	Substrings    []Substring         `yaml:"substrings"`
	Overrides     []Override          `yaml:"overrides"`
	RefCodes      map[string]string   `yaml:"refCodes"`
	Licensing     map[string][]string `yaml:"licensing"`
	Closers       []Closer            `yaml:"closers"`
	Admins        []string            `yaml:"admins"`
}

// Default returns the embedded tables.
func Default() *Tables {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic("refdata: embedded default.yaml is invalid: " + err.Error())
	}
	return t
}

// Load reads tables from path, or the embedded defaults when path is empty.
func Load(path string) (*Tables, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reference data: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document and normalizes its keys.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse reference data: %w", err)
	}

	aliases := make(map[string]string, len(t.Aliases))
	for k, v := range t.Aliases {
		aliases[sanitize.NameKey(k)] = v
	}
	t.Aliases = aliases

	licensing := make(map[string][]string, len(t.Licensing))
	for state, names := range t.Licensing {
		licensing[strings.ToUpper(strings.TrimSpace(state))] = names
	}
	t.Licensing = licensing

	refCodes := make(map[string]string, len(t.RefCodes))
	for k, v := range t.RefCodes {
		refCodes[strings.ToLower(strings.TrimSpace(k))] = v
	}
	t.RefCodes = refCodes

	if t.OverflowAgent == "" && len(t.Roster) > 0 {
		t.OverflowAgent = t.Roster[0]
	}
	return &t, nil
}

// CloserEmail returns the directory email for an owner name, matching by
// normalized name and then by containment either way.
func (t *Tables) CloserEmail(name string) string {
	key := sanitize.NameKey(name)
	if key == "" {
		return ""
	}
	for _, c := range t.Closers {
		if sanitize.NameKey(c.Name) == key {
			return c.Email
		}
	}
	for _, c := range t.Closers {
		ck := sanitize.NameKey(c.Name)
		if ck != "" && (strings.Contains(ck, key) || strings.Contains(key, ck)) {
			return c.Email
		}
	}
	return ""
}

// MatchCloser returns the directory name that contains fragment, or is
// contained in it, comparing normalized names.
func (t *Tables) MatchCloser(fragment string) string {
	key := sanitize.NameKey(fragment)
	if key == "" {
		return ""
	}
	for _, c := range t.Closers {
		ck := sanitize.NameKey(c.Name)
		if ck != "" && (strings.Contains(ck, key) || strings.Contains(key, ck)) {
			return c.Name
		}
	}
	return ""
}

// LicensedIn reports whether owner appears in the licensing list for state.
func (t *Tables) LicensedIn(owner, state string) bool {
	key := sanitize.NameKey(owner)
	if key == "" {
		return false
	}
	for _, name := range t.Licensing[strings.ToUpper(strings.TrimSpace(state))] {
		if sanitize.NameKey(name) == key {
			return true
		}
	}
	return false
}

// OwnerForRefCode resolves a referral code to an owner name.
func (t *Tables) OwnerForRefCode(code string) string {
	return t.RefCodes[strings.ToLower(strings.TrimSpace(code))]
}

// OverrideKeys returns the comparison keys for an override entry.
func (o Override) OverrideKeys() (name, email, digits string) {
	return sanitize.NameKey(o.Name), sanitize.EmailKey(o.Email), phone.Digits(o.Phone)
}
