package services

import (
	"reflect"
	"regexp"
	"sort"
	"strings"
	"testing"

	"puppy-adoption-notifier/internal/models"
)

// namesFromText recovers animal names from a rendered text report
func namesFromText(text string) []string {
	re := regexp.MustCompile(`(?m)^\d+\. (.+)$`)
	var names []string
	for _, match := range re.FindAllStringSubmatch(text, -1) {
		names = append(names, match[1])
	}
	return names
}

func sampleReport() models.FilteredReport {
	return models.FilteredReport{
		TotalSeen:    3,
		MaxAgeMonths: 6,
		Matches: []models.AnimalRecord{
			{
				Name:      "Pepper",
				ID:        "58100001",
				Species:   "Dog",
				Breed:     "Labrador Retriever/Mix",
				Sex:       "Female",
				Size:      "Medium",
				AgeText:   "2 months",
				AgeMonths: 2,
				AgeKnown:  true,
				DetailURL: "https://ws.petango.com/webservices/adoptablesearch/wsAdoptableAnimalDetails.aspx?id=58100001",
				PhotoURL:  "https://g.petango.com/photos/1001/a1.jpg",
			},
			{
				Name:      "Scout",
				Species:   "Dog",
				AgeMonths: 5,
				AgeKnown:  true,
			},
		},
	}
}

func TestReporter_RenderMatches(t *testing.T) {
	rendered, err := NewReporter("Daily Adoptable Puppies Report").Render(sampleReport())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if rendered.Subject != "Daily Adoptable Puppies Report" {
		t.Errorf("Unexpected subject %q", rendered.Subject)
	}

	expectedText := `Adoptable Puppies (<= 6 Months) - 2 Found
Checked 3 listings, 2 matched.

1. Pepper
   Breed: Labrador Retriever/Mix
   Age: 2 months
   Sex: Female
   Link: https://ws.petango.com/webservices/adoptablesearch/wsAdoptableAnimalDetails.aspx?id=58100001

2. Scout
   Breed: Unknown
   Age: 5 months
`
	if rendered.Text != expectedText {
		t.Errorf("Unexpected text report:\n%s\nexpected:\n%s", rendered.Text, expectedText)
	}

	for _, want := range []string{
		"Adoptable Puppies (&lt;= 6 Months) - 2 Found",
		"<h2>Pepper</h2>",
		"<h2>Scout</h2>",
		"58100001",
		`<img src="https://g.petango.com/photos/1001/a1.jpg"`,
		"View Details",
	} {
		if !strings.Contains(rendered.HTML, want) {
			t.Errorf("HTML report missing %q", want)
		}
	}
	if strings.Contains(rendered.HTML, NoMatchesMessage) {
		t.Error("HTML report should not claim zero matches")
	}
}

func TestReporter_RenderNoMatches(t *testing.T) {
	report := models.FilteredReport{TotalSeen: 5, MaxAgeMonths: 6, Matches: []models.AnimalRecord{}}

	rendered, err := NewReporter("subject").Render(report)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if strings.TrimSpace(rendered.Text) == "" || strings.TrimSpace(rendered.HTML) == "" {
		t.Fatal("Report bodies must not be empty")
	}
	if !strings.Contains(rendered.Text, "Checked 5 listings, 0 matched.") {
		t.Errorf("Text should state the counts, got:\n%s", rendered.Text)
	}
	if !strings.Contains(rendered.Text, NoMatchesMessage) {
		t.Errorf("Text should state zero matches, got:\n%s", rendered.Text)
	}
	if !strings.Contains(rendered.HTML, NoMatchesMessage) {
		t.Errorf("HTML should state zero matches, got:\n%s", rendered.HTML)
	}
	if names := namesFromText(rendered.Text); len(names) != 0 {
		t.Errorf("Expected no animal entries, got %v", names)
	}
}

func TestReporter_EscapesHTML(t *testing.T) {
	report := models.FilteredReport{
		TotalSeen:    1,
		MaxAgeMonths: 6,
		Matches:      []models.AnimalRecord{{Name: "<script>alert(1)</script>", Species: "Dog", AgeKnown: true}},
	}

	rendered, err := NewReporter("s").Render(report)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if strings.Contains(rendered.HTML, "<script>") {
		t.Error("Animal names must be escaped in the HTML body")
	}
}

func TestReporter_Deterministic(t *testing.T) {
	reporter := NewReporter("s")
	first, err := reporter.Render(sampleReport())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	second, err := reporter.Render(sampleReport())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Error("Rendering the same report twice should be identical")
	}
}

func TestReporter_NamesRoundTrip(t *testing.T) {
	report := sampleReport()
	report.Matches = append(report.Matches, models.AnimalRecord{Name: "Sir Barks-a-Lot", Species: "Puppy", AgeKnown: true})

	rendered, err := NewReporter("s").Render(report)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	got := namesFromText(rendered.Text)
	want := report.Names()
	sort.Strings(got)
	sort.Strings(want)
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Names recovered from text %v, expected %v", got, want)
	}
}

func TestReporter_FixtureScenario(t *testing.T) {
	records, _, err := newTestParser(t).Parse(readFixture(t, "listing.html"))
	if err != nil {
		t.Fatalf("Unexpected parse error: %v", err)
	}

	rendered, err := NewReporter("s").Render(FilterPuppies(records, 6))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	for _, body := range []string{rendered.Text, rendered.HTML} {
		if !strings.Contains(body, "Pepper") {
			t.Error("Report should contain the 2-month-old puppy")
		}
		if strings.Contains(body, "Duke") || strings.Contains(body, "Whiskers") {
			t.Error("Report should omit the adult dog and the cat")
		}
	}
}
