package utils

import (
	"strconv"
	"time"
)

var spanishMonths = []string{
	"enero",
	"febrero",
	"marzo",
	"abril",
	"mayo",
	"junio",
	"julio",
	"agosto",
	"septiembre",
	"octubre",
	"noviembre",
	"diciembre",
}

// FormatSpanishDate returns e.g. "19 de abril de 2024, 18:00" in the source's zone.
func FormatSpanishDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}

	localTime := t.In(AuctionLocation)
	monthIndex := int(localTime.Month()) - 1
	if monthIndex < 0 || monthIndex >= len(spanishMonths) {
		return localTime.Format("02/01/2006 15:04")
	}

	return strconv.Itoa(localTime.Day()) + " de " + spanishMonths[monthIndex] + " de " +
		strconv.Itoa(localTime.Year()) + ", " + localTime.Format("15:04")
}

// FormatSpanishDatePtr returns the formatted date for pointer values.
func FormatSpanishDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return FormatSpanishDate(*t)
}
