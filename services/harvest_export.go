package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"auction-harvester/models"
	"auction-harvester/utils"

	"github.com/xuri/excelize/v2"
)

const (
	exportBaseName    = "auctions"
	exportLatestTag   = "latest"
	exportTimeLayout  = "2006-01-02T15-04-05"
	exportSheet       = "Auctions"
	exportDateDisplay = "02/01/2006 15:04"
)

type ExportResult struct {
	JSONPath string `json:"json_path"`
	XLSXPath string `json:"xlsx_path"`
}

type exportPayload struct {
	Timestamp time.Time        `json:"timestamp"`
	Total     int              `json:"total"`
	Auctions  []models.Auction `json:"auctions"`
}

// HarvestExporter writes harvested auctions as JSON and XLSX. Each export is
// written twice: a timestamped file and a "latest" file that is overwritten.
type HarvestExporter struct {
	dir string
	now func() time.Time
}

func NewHarvestExporter(dir string) *HarvestExporter {
	if dir == "" {
		dir = "./data"
	}
	return &HarvestExporter{dir: dir, now: time.Now}
}

func (e *HarvestExporter) Export(records []models.Auction) (*ExportResult, error) {
	if err := os.MkdirAll(e.dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	now := e.now()

	// the two formats are independent; a failed one does not skip the other
	jsonPath, jsonErr := e.writeJSON(records, now)
	xlsxPath, xlsxErr := e.writeXLSX(records, now)
	return &ExportResult{JSONPath: jsonPath, XLSXPath: xlsxPath}, errors.Join(jsonErr, xlsxErr)
}

func (e *HarvestExporter) paths(ext string, now time.Time) (stamped, latest string) {
	stamped = filepath.Join(e.dir, fmt.Sprintf("%s_%s.%s", exportBaseName, now.UTC().Format(exportTimeLayout), ext))
	latest = filepath.Join(e.dir, fmt.Sprintf("%s_%s.%s", exportBaseName, exportLatestTag, ext))
	return stamped, latest
}

func (e *HarvestExporter) writeJSON(records []models.Auction, now time.Time) (string, error) {
	if records == nil {
		records = []models.Auction{}
	}
	data, err := json.MarshalIndent(exportPayload{
		Timestamp: now.UTC(),
		Total:     len(records),
		Auctions:  records,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode json export: %w", err)
	}

	stamped, latest := e.paths("json", now)
	for _, path := range []string{stamped, latest} {
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	return stamped, nil
}

type exportColumn struct {
	header string
	width  float64
	value  func(a *models.Auction) any
}

func assetValue(a *models.Auction, field func(*models.Asset) string) any {
	if a.Asset == nil {
		return ""
	}
	return field(a.Asset)
}

func amountValue(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func dateValue(t *time.Time, raw string) any {
	if t == nil {
		return raw
	}
	return t.In(utils.AuctionLocation).Format(exportDateDisplay)
}

var exportColumns = []exportColumn{
	{"Identity", 22, func(a *models.Auction) any { return a.Identity }},
	{"Category", 18, func(a *models.Auction) any { return a.Category }},
	{"Status", 24, func(a *models.Auction) any { return a.Status }},
	{"Authority", 40, func(a *models.Auction) any { return a.Authority }},
	{"Case reference", 20, func(a *models.Auction) any { return a.CaseReference }},
	{"Description", 60, func(a *models.Auction) any { return a.Description }},
	{"Start date", 20, func(a *models.Auction) any { return dateValue(a.StartDate, a.StartDateRaw) }},
	{"End date", 20, func(a *models.Auction) any { return dateValue(a.EndDate, a.EndDateRaw) }},
	{"Auction value (€)", 16, func(a *models.Auction) any { return amountValue(a.AuctionValue) }},
	{"Appraisal (€)", 16, func(a *models.Auction) any { return amountValue(a.Appraisal) }},
	{"Minimum bid (€)", 16, func(a *models.Auction) any { return amountValue(a.MinimumBid) }},
	{"Deposit (€)", 16, func(a *models.Auction) any { return amountValue(a.DepositAmount) }},
	{"Claimed amount (€)", 18, func(a *models.Auction) any { return amountValue(a.ClaimedAmount) }},
	{"BOE announcement", 20, func(a *models.Auction) any { return a.Announcement }},
	{"Address", 40, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.Address }) }},
	{"Postal code", 12, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.PostalCode }) }},
	{"Locality", 20, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.Locality }) }},
	{"Province", 16, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.Province }) }},
	{"Cadastral reference", 22, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.CadastralRef }) }},
	{"IDUFIR", 20, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.RegistryID }) }},
	{"Asset type", 25, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.Category }) }},
	{"Visitable", 12, func(a *models.Auction) any { return assetValue(a, func(x *models.Asset) string { return x.Visitable }) }},
	{"Detail URL", 80, func(a *models.Auction) any { return a.DetailURL }},
	{"Extracted at", 20, func(a *models.Auction) any {
		return a.ExtractedAt.In(utils.AuctionLocation).Format(exportDateDisplay)
	}},
}

func (e *HarvestExporter) writeXLSX(records []models.Auction, now time.Time) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", exportSheet); err != nil {
		return "", fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"4472C4"}},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	for i, col := range exportColumns {
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return "", err
		}
		if err := f.SetCellValue(exportSheet, name+"1", col.header); err != nil {
			return "", err
		}
		if err := f.SetColWidth(exportSheet, name, name, col.width); err != nil {
			return "", err
		}
	}

	lastCol, err := excelize.ColumnNumberToName(len(exportColumns))
	if err != nil {
		return "", err
	}
	if err := f.SetCellStyle(exportSheet, "A1", lastCol+"1", headerStyle); err != nil {
		return "", err
	}

	for r := range records {
		row := make([]any, len(exportColumns))
		for i, col := range exportColumns {
			row[i] = col.value(&records[r])
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return "", err
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return "", fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	lastRow := len(records) + 1
	if err := f.AutoFilter(exportSheet, fmt.Sprintf("A1:%s%d", lastCol, lastRow), nil); err != nil {
		return "", fmt.Errorf("set autofilter: %w", err)
	}

	stamped, latest := e.paths("xlsx", now)
	for _, path := range []string{stamped, latest} {
		if err := f.SaveAs(path); err != nil {
			return "", fmt.Errorf("write %s: %w", path, err)
		}
	}
	return stamped, nil
}
