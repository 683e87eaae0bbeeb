package models

import (
	"strings"
	"time"
)

// Species values recognized as eligible for the puppy report
const (
	SpeciesDog   = "dog"
	SpeciesPuppy = "puppy"
)

// AnimalRecord represents one listing scraped from the shelter page
type AnimalRecord struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
	Sex     string `json:"sex,omitempty"`
	Size    string `json:"size,omitempty"`
	Color   string `json:"color,omitempty"`

	// Age as published ("2 years 3 months") and normalized to whole months.
	// AgeMonths is only meaningful when AgeKnown is true.
	AgeText   string `json:"age_text"`
	AgeMonths int    `json:"age_months"`
	AgeKnown  bool   `json:"age_known"`

	IntakeDate *time.Time `json:"intake_date,omitempty"`
	DetailURL  string     `json:"detail_url,omitempty"`
	PhotoURL   string     `json:"photo_url,omitempty"`
	ImageURLs  []string   `json:"image_urls,omitempty"`
}

// IsDog reports whether the record's species is dog or puppy
func (a AnimalRecord) IsDog() bool {
	species := strings.ToLower(strings.TrimSpace(a.Species))
	if species == SpeciesDog || species == SpeciesPuppy {
		return true
	}
	for _, word := range strings.FieldsFunc(species, func(r rune) bool {
		return !(r >= 'a' && r <= 'z')
	}) {
		if word == SpeciesDog || word == SpeciesPuppy {
			return true
		}
	}
	return false
}

// DisplayBreed returns the breed or "Unknown" when the listing left it blank
func (a AnimalRecord) DisplayBreed() string {
	return orUnknown(a.Breed)
}

// DisplayAge returns the published age text or the normalized months
func (a AnimalRecord) DisplayAge() string {
	if strings.TrimSpace(a.AgeText) != "" {
		return a.AgeText
	}
	if a.AgeKnown {
		return pluralize(a.AgeMonths, "month")
	}
	return "Unknown"
}

// Images returns the main photo followed by any gallery photos, without duplicates
func (a AnimalRecord) Images() []string {
	seen := make(map[string]bool, len(a.ImageURLs)+1)
	var images []string
	for _, u := range append([]string{a.PhotoURL}, a.ImageURLs...) {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		images = append(images, u)
	}
	return images
}

// FilteredReport is the output of the filter stage
type FilteredReport struct {
	Matches      []AnimalRecord `json:"matches"`
	TotalSeen    int            `json:"total_seen"`
	MaxAgeMonths int            `json:"max_age_months"`
	GeneratedAt  time.Time      `json:"generated_at"`
}

// MatchCount returns the number of records that passed the filter
func (r FilteredReport) MatchCount() int {
	return len(r.Matches)
}

// Names returns the names of the matching animals in report order
func (r FilteredReport) Names() []string {
	names := make([]string, 0, len(r.Matches))
	for _, m := range r.Matches {
		names = append(names, m.Name)
	}
	return names
}
