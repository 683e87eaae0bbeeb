package services

import (
	"time"

	"puppy-adoption-notifier/internal/models"
)

// IsEligible reports whether a record is a dog no older than maxAgeMonths
func IsEligible(record models.AnimalRecord, maxAgeMonths int) bool {
	return record.IsDog() && record.AgeKnown && record.AgeMonths >= 0 && record.AgeMonths <= maxAgeMonths
}

// FilterPuppies keeps the eligible records in their original order. It does
// not modify records.
func FilterPuppies(records []models.AnimalRecord, maxAgeMonths int) models.FilteredReport {
	matches := make([]models.AnimalRecord, 0, len(records))
	for _, record := range records {
		if IsEligible(record, maxAgeMonths) {
			matches = append(matches, record)
		}
	}

	return models.FilteredReport{
		Matches:      matches,
		TotalSeen:    len(records),
		MaxAgeMonths: maxAgeMonths,
	}
}

// Stamp sets the generation time of a report; kept apart so FilterPuppies stays pure
func Stamp(report models.FilteredReport, at time.Time) models.FilteredReport {
	report.GeneratedAt = at
	return report
}
