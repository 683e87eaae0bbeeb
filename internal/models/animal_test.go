package models

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestAnimalRecord_IsDog(t *testing.T) {
	tests := []struct {
		species  string
		expected bool
	}{
		{"Dog", true},
		{"dog", true},
		{" Puppy ", true},
		{"Dog (Domestic)", true},
		{"Cat", false},
		{"Hotdog Stand", false},
		{"", false},
		{"Rabbit", false},
	}

	for _, test := range tests {
		record := AnimalRecord{Name: "Test", Species: test.species}
		if got := record.IsDog(); got != test.expected {
			t.Errorf("IsDog(%q) = %v, expected %v", test.species, got, test.expected)
		}
	}
}

func TestAnimalRecord_DisplayHelpers(t *testing.T) {
	record := AnimalRecord{Name: "Biscuit"}
	if record.DisplayBreed() != "Unknown" {
		t.Errorf("Expected Unknown breed, got %s", record.DisplayBreed())
	}
	if record.DisplayAge() != "Unknown" {
		t.Errorf("Expected Unknown age, got %s", record.DisplayAge())
	}

	record.AgeKnown = true
	record.AgeMonths = 1
	if record.DisplayAge() != "1 month" {
		t.Errorf("Expected '1 month', got %s", record.DisplayAge())
	}

	record.AgeMonths = 4
	if record.DisplayAge() != "4 months" {
		t.Errorf("Expected '4 months', got %s", record.DisplayAge())
	}

	record.AgeText = "4 months 1 week"
	if record.DisplayAge() != "4 months 1 week" {
		t.Errorf("Published age text should win, got %s", record.DisplayAge())
	}
}

func TestAnimalRecord_Images(t *testing.T) {
	record := AnimalRecord{
		PhotoURL:  "https://example.com/a.jpg",
		ImageURLs: []string{"https://example.com/a.jpg", "", "https://example.com/b.jpg"},
	}

	expected := []string{"https://example.com/a.jpg", "https://example.com/b.jpg"}
	if got := record.Images(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Images() = %v, expected %v", got, expected)
	}

	if images := (AnimalRecord{}).Images(); len(images) != 0 {
		t.Errorf("Expected no images, got %v", images)
	}
}

func TestFilteredReport_Names(t *testing.T) {
	report := FilteredReport{
		Matches:   []AnimalRecord{{Name: "Pepper"}, {Name: "Scout"}},
		TotalSeen: 5,
	}

	if report.MatchCount() != 2 {
		t.Errorf("Expected 2 matches, got %d", report.MatchCount())
	}
	if !reflect.DeepEqual(report.Names(), []string{"Pepper", "Scout"}) {
		t.Errorf("Unexpected names: %v", report.Names())
	}
}

func TestStatus_StatusCode(t *testing.T) {
	tests := map[Status]int{
		StatusSent:           200,
		StatusDryRun:         200,
		StatusConfigError:    400,
		StatusParseFailed:    422,
		StatusFetchFailed:    502,
		StatusDeliveryFailed: 503,
		StatusTimeout:        504,
		Status("bogus"):      500,
	}

	for status, code := range tests {
		if got := status.StatusCode(); got != code {
			t.Errorf("%s: expected %d, got %d", status, code, got)
		}
	}

	if !StatusSent.Succeeded() || StatusFetchFailed.Succeeded() {
		t.Error("Succeeded() classification is wrong")
	}
}

func TestNewInvocationID(t *testing.T) {
	ts := time.Date(2024, 3, 9, 14, 5, 0, 0, time.UTC)

	first := NewInvocationID(ts)
	second := NewInvocationID(ts)

	if !strings.HasPrefix(first, "inv_20240309T140500Z_") {
		t.Errorf("Unexpected invocation id format: %s", first)
	}
	if first == second {
		t.Error("Invocation ids should be unique even for the same timestamp")
	}
}

func TestSnapshotKey(t *testing.T) {
	ts := time.Date(2024, 3, 9, 23, 59, 0, 0, time.UTC)
	key := SnapshotKey("inv_abc", ts)
	if key != "snapshots/2024-03-09/inv_abc.html" {
		t.Errorf("Unexpected snapshot key: %s", key)
	}
}
