package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var ageComponent = regexp.MustCompile(`(\d*\.?\d+)\s*(years?|yrs?|months?|mos?|weeks?|wks?|days?)\b`)

// daysPerMonth is the divisor applied to the week and day components
const daysPerMonth = 30

// AgeToMonths normalizes a published age such as "2 years 3 months" or
// "1.5 years" to whole months: years*12 + months + (weeks*7 + days)/30,
// rounded down once at the end. ok is false when the text contains no
// recognizable age component.
func AgeToMonths(ageText string) (int, bool) {
	text := strings.ToLower(ageText)

	var years, months, days float64
	ok := false
	for _, match := range ageComponent.FindAllStringSubmatch(text, -1) {
		n, err := strconv.ParseFloat(match[1], 64)
		if err != nil {
			continue
		}
		ok = true

		switch unit := match[2]; {
		case strings.HasPrefix(unit, "y"):
			years += n
		case strings.HasPrefix(unit, "mo"):
			months += n
		case strings.HasPrefix(unit, "w"):
			days += n * 7
		case strings.HasPrefix(unit, "d"):
			days += n
		}
	}

	if !ok {
		return 0, false
	}
	return int(math.Floor(years*12 + months + days/daysPerMonth)), true
}
