package services

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"puppy-adoption-notifier/internal/config"
	"puppy-adoption-notifier/internal/models"
)

var (
	poptasticLink = regexp.MustCompile(`poptastic\('([^']+)'\)`)
	whitespace    = regexp.MustCompile(`\s+`)
)

// ParseStats describes what the parser saw on a listing page
type ParseStats struct {
	Listings   int `json:"listings"`
	Parsed     int `json:"parsed"`
	Skipped    int `json:"skipped"`
	UnknownAge int `json:"unknown_age"`
}

// Parser extracts AnimalRecords from listing markup using a site profile
type Parser struct {
	profile *config.SiteProfile
	baseURL *url.URL
	logger  *slog.Logger
}

// NewParser creates a Parser; baseURL resolves relative detail and photo links
func NewParser(profile *config.SiteProfile, baseURL string, logger *slog.Logger) (*Parser, error) {
	if profile == nil {
		profile = config.DefaultSiteProfile()
	}
	if logger == nil {
		logger = slog.Default()
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid detail base URL %q: %w", baseURL, err)
	}

	return &Parser{profile: profile, baseURL: base, logger: logger}, nil
}

// Parse extracts every well-formed listing from content. Individual malformed
// listings are skipped with a warning; a *ParseError is returned when no
// listing could be located or none of the located listings could be read.
func (p *Parser) Parse(content []byte) ([]models.AnimalRecord, ParseStats, error) {
	var stats ParseStats

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, stats, &ParseError{Reason: "document is not readable HTML", Err: err}
	}

	sel := p.profile.Listing
	var records []models.AnimalRecord

	doc.Find(sel.Item).Each(func(i int, item *goquery.Selection) {
		nameEl := item.Find(sel.Name).First()
		if nameEl.Length() == 0 {
			// Not a listing (navigation, footer, ...)
			return
		}
		stats.Listings++

		record, ok := p.parseListing(i, item, nameEl)
		if !ok {
			stats.Skipped++
			return
		}
		if !record.AgeKnown {
			stats.UnknownAge++
			p.logger.Warn("listing age not recognized", "stage", "parse", "name", record.Name, "age_text", record.AgeText)
		}

		records = append(records, record)
	})

	stats.Parsed = len(records)

	if stats.Listings == 0 {
		return nil, stats, &ParseError{
			Reason: fmt.Sprintf("no listings matched %q with a %q element", sel.Item, sel.Name),
		}
	}
	if stats.Parsed == 0 {
		return nil, stats, &ParseError{
			Reason: fmt.Sprintf("all %d listings were skipped, %q elements carry no name", stats.Listings, sel.Name),
		}
	}

	return records, stats, nil
}

func (p *Parser) parseListing(index int, item, nameEl *goquery.Selection) (models.AnimalRecord, bool) {
	sel := p.profile.Listing

	record := models.AnimalRecord{
		Name:    cleanText(nameEl.Text()),
		Species: p.textOf(item, sel.Species),
		Breed:   p.textOf(item, sel.Breed),
		Sex:     p.textOf(item, sel.Sex),
		AgeText: p.textOf(item, sel.Age),
	}

	if record.Name == "" {
		p.logger.Warn("skipping listing without a name", "stage", "parse", "index", index)
		return record, false
	}

	if record.Species == "" {
		record.Species = p.profile.DefaultSpecies
	}

	record.AgeMonths, record.AgeKnown = AgeToMonths(record.AgeText)

	if raw := p.textOf(item, sel.IntakeDate); raw != "" && sel.IntakeDateLayout != "" {
		if intake, err := time.Parse(sel.IntakeDateLayout, raw); err == nil {
			record.IntakeDate = &intake
		} else {
			p.logger.Debug("intake date not parsed", "stage", "parse", "name", record.Name, "raw", raw)
		}
	}

	if sel.Link != "" {
		link := nameEl.Find("a").First()
		if link.Length() == 0 {
			link = item.Find(sel.Link).First()
		}
		if href, ok := link.Attr("href"); ok {
			record.DetailURL = p.DetailURL(href)
		}
		if record.DetailURL == "" {
			p.logger.Warn("no detail link for listing", "stage", "parse", "name", record.Name)
		}
	}

	if sel.Photo != "" {
		if src, ok := item.Find(sel.Photo).First().Attr("src"); ok {
			record.PhotoURL = p.ImageURL(src)
		}
	}

	return record, true
}

// DetailURL turns a listing href into an absolute detail page URL. Petango
// wraps the link in javascript:poptastic('...').
func (p *Parser) DetailURL(href string) string {
	href = strings.TrimSpace(href)
	if href == "" || href == "#" {
		return ""
	}

	if strings.HasPrefix(strings.ToLower(href), "javascript:") {
		match := poptasticLink.FindStringSubmatch(href)
		if match == nil {
			return ""
		}
		href = match[1]
	}

	return p.resolve(href)
}

// ImageURL makes a photo src absolute. "../" prefixes climb to the host root.
func (p *Parser) ImageURL(src string) string {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	if strings.HasPrefix(src, "../") {
		root := &url.URL{Scheme: p.baseURL.Scheme, Host: p.baseURL.Host, Path: "/"}
		return root.String() + strings.ReplaceAll(src, "../", "")
	}
	return p.resolve(src)
}

func (p *Parser) resolve(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return p.baseURL.ResolveReference(u).String()
}

func (p *Parser) textOf(item *goquery.Selection, selector string) string {
	if selector == "" {
		return ""
	}
	return cleanText(item.Find(selector).First().Text())
}

func cleanText(s string) string {
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}
