package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"puppy-adoption-notifier/internal/config"
	"puppy-adoption-notifier/internal/models"
)

var loadPhotoHandler = regexp.MustCompile(`loadPhoto\('([^']+)'\)`)

// PageFetcher is the subset of Fetcher the enricher needs
type PageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// EnrichStats counts detail page outcomes
type EnrichStats struct {
	Attempted int `json:"attempted"`
	Enriched  int `json:"enriched"`
	Failed    int `json:"failed"`
}

// Enricher fills in matches from each animal's detail page
type Enricher struct {
	fetcher PageFetcher
	parser  *Parser
	detail  config.DetailSelectors
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewEnricher creates an Enricher issuing at most ratePerSecond detail requests per second
func NewEnricher(fetcher PageFetcher, parser *Parser, ratePerSecond float64, logger *slog.Logger) *Enricher {
	if logger == nil {
		logger = slog.Default()
	}
	if ratePerSecond <= 0 {
		ratePerSecond = config.DefaultDetailRate
	}
	return &Enricher{
		fetcher: fetcher,
		parser:  parser,
		detail:  parser.profile.Detail,
		limiter: rate.NewLimiter(rate.Limit(ratePerSecond), 1),
		logger:  logger,
	}
}

// Enrich returns a copy of records with detail page fields filled in. A
// failed detail page leaves the listing data in place; only running out of
// time aborts, with an error matching ErrTimeout.
func (e *Enricher) Enrich(ctx context.Context, records []models.AnimalRecord) ([]models.AnimalRecord, EnrichStats, error) {
	var stats EnrichStats
	enriched := make([]models.AnimalRecord, len(records))
	copy(enriched, records)

	for i := range enriched {
		record := &enriched[i]
		if record.DetailURL == "" {
			continue
		}
		stats.Attempted++

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, stats, fmt.Errorf("%w: waiting to fetch details for %s: %v", ErrTimeout, record.Name, err)
		}

		content, err := e.fetcher.Fetch(ctx, record.DetailURL)
		if err != nil {
			if errors.Is(err, ErrTimeout) || ctx.Err() != nil {
				return nil, stats, fmt.Errorf("%w: fetching details for %s: %v", ErrTimeout, record.Name, err)
			}
			stats.Failed++
			e.logger.Warn("detail page fetch failed", "stage", "enrich", "name", record.Name, "url", record.DetailURL, "error", err)
			continue
		}

		if err := e.apply(record, content); err != nil {
			stats.Failed++
			e.logger.Warn("detail page not recognized", "stage", "enrich", "name", record.Name, "url", record.DetailURL, "error", err)
			continue
		}
		stats.Enriched++
	}

	return enriched, stats, nil
}

// apply copies detail page fields onto record. Listing values are kept
// wherever the detail page is blank.
func (e *Enricher) apply(record *models.AnimalRecord, content []byte) error {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("failed to read detail page: %w", err)
	}

	scope := doc.Selection
	if e.detail.Container != "" {
		scope = doc.Find(e.detail.Container).First()
		if scope.Length() == 0 {
			return fmt.Errorf("%s not found", e.detail.Container)
		}
	}

	set := func(dst *string, selector string) {
		if selector == "" {
			return
		}
		if val := cleanText(scope.Find(selector).First().Text()); val != "" {
			*dst = val
		}
	}
	set(&record.Name, e.detail.Name)
	set(&record.ID, e.detail.ID)
	set(&record.Breed, e.detail.Breed)
	set(&record.Sex, e.detail.Sex)
	set(&record.Size, e.detail.Size)
	set(&record.Color, e.detail.Color)
	if record.AgeText == "" {
		set(&record.AgeText, e.detail.Age)
	}

	var images []string
	if e.detail.Photo != "" {
		if src, ok := scope.Find(e.detail.Photo).First().Attr("src"); ok {
			if u := e.parser.ImageURL(src); u != "" {
				record.PhotoURL = u
			}
		}
	}
	scope.Find("[onclick]").Each(func(_ int, s *goquery.Selection) {
		onclick, _ := s.Attr("onclick")
		if match := loadPhotoHandler.FindStringSubmatch(onclick); match != nil {
			images = append(images, e.parser.ImageURL(match[1]))
		}
	})
	if len(images) > 0 {
		record.ImageURLs = images
	}

	return nil
}
