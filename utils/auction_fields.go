package utils

import (
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

var isoInText = regexp.MustCompile(`ISO:\s*([0-9]{4}-[0-9]{2}-[0-9]{2}T[0-9:]{8}(?:Z|[+-][0-9]{2}:[0-9]{2}))`)

var auctionDateLayouts = []string{
	"02-01-2006 15:04:05",
	"02/01/2006 15:04:05",
	"02-01-2006 15:04",
	"02/01/2006 15:04",
	"02-01-2006",
	"02/01/2006",
}

// AuctionLocation is the zone used for source dates that carry no offset.
var AuctionLocation = func() *time.Location {
	loc, err := time.LoadLocation("Europe/Madrid")
	if err != nil {
		return time.UTC
	}
	return loc
}()

// ParseAuctionDate reads dates such as
// "19-04-2024 18:00:00 CET  (ISO: 2024-04-19T18:00:00+02:00)".
// The ISO part wins when present.
func ParseAuctionDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	if m := isoInText.FindStringSubmatch(text); m != nil {
		if t, err := time.Parse(time.RFC3339, m[1]); err == nil {
			return &t
		}
	}

	// drop the zone abbreviation and anything after it
	fields := strings.Fields(text)
	for n := min(len(fields), 2); n > 0; n-- {
		candidate := strings.Join(fields[:n], " ")
		for _, layout := range auctionDateLayouts {
			if t, err := time.ParseInLocation(layout, candidate, AuctionLocation); err == nil {
				return &t
			}
		}
	}
	return nil
}

// ParseLotsFlag keeps the source's binary notion of lots: 0 for "Sin lotes",
// 1 for anything else, nil when the row was not on the page.
func ParseLotsFlag(text string, present bool) *int {
	if !present {
		return nil
	}
	flag := 1
	if strings.Contains(strings.ToLower(text), "sin lotes") {
		flag = 0
	}
	return &flag
}
