package config

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed site.yaml
var defaultSiteProfile []byte

// SiteProfile holds the selectors used to read the shelter's markup
type SiteProfile struct {
	Name           string           `yaml:"name"`
	DefaultSpecies string           `yaml:"default_species"`
	Listing        ListingSelectors `yaml:"listing"`
	Detail         DetailSelectors  `yaml:"detail"`
}

// ListingSelectors are CSS selectors evaluated against the listing page.
// Every field except Item is relative to one listing item.
type ListingSelectors struct {
	Item             string `yaml:"item"`
	Name             string `yaml:"name"`
	Species          string `yaml:"species"`
	Breed            string `yaml:"breed"`
	Age              string `yaml:"age"`
	Sex              string `yaml:"sex"`
	IntakeDate       string `yaml:"intake_date"`
	IntakeDateLayout string `yaml:"intake_date_layout"`
	Link             string `yaml:"link"`
	Photo            string `yaml:"photo"`
}

// DetailSelectors are CSS selectors evaluated against an animal's detail page
type DetailSelectors struct {
	Container string `yaml:"container"`
	Name      string `yaml:"name"`
	ID        string `yaml:"id"`
	Breed     string `yaml:"breed"`
	Age       string `yaml:"age"`
	Sex       string `yaml:"sex"`
	Size      string `yaml:"size"`
	Color     string `yaml:"color"`
	Photo     string `yaml:"photo"`
}

// DefaultSiteProfile returns the embedded Petango profile
func DefaultSiteProfile() *SiteProfile {
	profile, err := ParseSiteProfile(defaultSiteProfile)
	if err != nil {
		panic(fmt.Sprintf("embedded site profile is invalid: %v", err))
	}
	return profile
}

// LoadSiteProfile reads a YAML profile from disk, or the embedded one when path is empty
func LoadSiteProfile(path string) (*SiteProfile, error) {
	if strings.TrimSpace(path) == "" {
		return DefaultSiteProfile(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read site profile at '%s': %w", path, err)
	}
	return ParseSiteProfile(data)
}

// ParseSiteProfile decodes and validates a YAML profile
func ParseSiteProfile(data []byte) (*SiteProfile, error) {
	var profile SiteProfile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse site profile YAML: %w", err)
	}

	required := map[string]string{
		"listing.item": profile.Listing.Item,
		"listing.name": profile.Listing.Name,
		"listing.age":  profile.Listing.Age,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return nil, &ConfigError{Field: "SITE_PROFILE", Reason: fmt.Sprintf("%s selector is required", field)}
		}
	}

	return &profile, nil
}
