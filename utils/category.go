package utils

import (
	"regexp"
	"sync"
)

// AuctionCategory is the category encoded in an auction identity
// (SUB-<CODE>-<YEAR>-<SEQ>). Codes outside the known table are kept as-is
// so that new source categories never break ingestion.
type AuctionCategory struct {
	Code  string
	Label string
	Known bool
}

// String returns the label for known codes and the raw code otherwise.
func (c AuctionCategory) String() string {
	if c.Known {
		return c.Label
	}
	if c.Code == "" {
		return CategoryUnknownLabel
	}
	return c.Code
}

const CategoryUnknownLabel = "Unknown"

var (
	CategoryJudicial           = AuctionCategory{Code: "JA", Label: "Judicial", Known: true}
	CategoryJudicialVehicles   = AuctionCategory{Code: "JV", Label: "Judicial-Vehicles", Known: true}
	CategoryNotarial           = AuctionCategory{Code: "NV", Label: "Notarial", Known: true}
	CategoryNotarialElectronic = AuctionCategory{Code: "NE", Label: "Notarial-Electronic", Known: true}
	CategoryTaxAuthority       = AuctionCategory{Code: "AT", Label: "Tax-Authority", Known: true}
	CategoryAdministrative     = AuctionCategory{Code: "SA", Label: "Administrative", Known: true}
)

var (
	categoryMu    sync.RWMutex
	categoryCodes = map[string]AuctionCategory{}
)

func init() {
	for _, c := range []AuctionCategory{
		CategoryJudicial,
		CategoryJudicialVehicles,
		CategoryNotarial,
		CategoryNotarialElectronic,
		CategoryTaxAuthority,
		CategoryAdministrative,
	} {
		categoryCodes[c.Code] = c
	}
}

// RegisterCategory adds or relabels a category code at runtime.
func RegisterCategory(code, label string) {
	categoryMu.Lock()
	defer categoryMu.Unlock()
	categoryCodes[code] = AuctionCategory{Code: code, Label: label, Known: true}
}

func lookupCategory(code string) AuctionCategory {
	categoryMu.RLock()
	defer categoryMu.RUnlock()
	if c, ok := categoryCodes[code]; ok {
		return c
	}
	return AuctionCategory{Code: code}
}

var identityCategory = regexp.MustCompile(`SUB-([A-Z]+)-`)

// ClassifyIdentity extracts the category token of an identity.
func ClassifyIdentity(identity string) AuctionCategory {
	m := identityCategory.FindStringSubmatch(identity)
	if m == nil {
		return AuctionCategory{}
	}
	return lookupCategory(m[1])
}

// Classify returns the display category for an identity.
func Classify(identity string) string {
	return ClassifyIdentity(identity).String()
}
