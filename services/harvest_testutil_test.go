package services

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"auction-harvester/config"
	"auction-harvester/extraction"
	"auction-harvester/session"
)

const testSearchURL = "https://subastas.boe.example/subastas_ava.php"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harvest.db")
	db, err := gorm.Open(sqlite.Open(config.SQLiteDSN(path)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, config.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func detailURL(id string) string {
	return "https://subastas.boe.example/detalleSubasta.php?idSub=" + id
}

func listingPage(total int, ids ...string) *extraction.PageContent {
	page := &extraction.PageContent{
		URL:  testSearchURL,
		Text: fmt.Sprintf("Resultados 1 a %d de %d", len(ids), total),
	}
	for _, id := range ids {
		page.Blocks = append(page.Blocks, extraction.Block{
			Text: "SUBASTA " + id + "\nJUZGADO DE PRIMERA INSTANCIA Nº 1\nEstado: Celebrándose\n" +
				"VIVIENDA EN CALLE MAYOR DE RIVAS VACIAMADRID",
			Links: []extraction.Link{{Text: "Más...", Href: detailURL(id)}},
		})
	}
	return page
}

func detailPage(id string) *extraction.PageContent {
	return &extraction.PageContent{
		URL:  detailURL(id),
		Text: "Información general " + id,
		Rows: []extraction.Row{
			{Cells: []string{"Tipo de subasta", "JUDICIAL EN VIA DE APREMIO"}},
			{Cells: []string{"Fecha de conclusión", "20-05-2024 18:00:00 CET (ISO: 2024-05-20T18:00:00+02:00)"}},
			{Cells: []string{"Valor subasta", "100.000,00 €"}},
			{Cells: []string{"Lotes", "Sin lotes"}},
		},
	}
}

func assetPage(id string) *extraction.PageContent {
	return &extraction.PageContent{
		URL:  detailURL(id) + "&ver=3",
		Text: "Bienes\nBien 1 - Inmueble (Vivienda)",
		Rows: []extraction.Row{
			{Cells: []string{"Dirección", "CALLE MAYOR 1"}},
			{Cells: []string{"Localidad", "RIVAS-VACIAMADRID"}},
		},
	}
}

// fakeDriver serves scripted result pages. Result page i (0-based) has a
// next page when i < len(results)-1, or always when alwaysNext is set.
type fakeDriver struct {
	mu sync.Mutex

	results    []*extraction.PageContent
	details    map[string]*extraction.PageContent
	assets     map[string]*extraction.PageContent
	alwaysNext bool

	failSubmit   error
	failReadPage int // 1-based result page whose content cannot be read
	failDetail   map[string]bool
	blockSearch  chan struct{}
	onDetail     func(url string)

	cursor        int
	current       *extraction.PageContent
	currentDetail string
	onResults     bool
	opened        bool
	closed        bool
	locality      string
	detailVisits  []string
	visitTimes    []time.Time
	pagesAdvanced int
}

func newFakeDriver(pages ...[]string) *fakeDriver {
	d := &fakeDriver{
		details:    map[string]*extraction.PageContent{},
		assets:     map[string]*extraction.PageContent{},
		failDetail: map[string]bool{},
	}
	total := 0
	for _, ids := range pages {
		total += len(ids)
	}
	for _, ids := range pages {
		d.results = append(d.results, listingPage(total, ids...))
		for _, id := range ids {
			d.details[detailURL(id)] = detailPage(id)
			d.assets[detailURL(id)] = assetPage(id)
		}
	}
	return d
}

func (d *fakeDriver) factory() DriverFactory {
	return func() (session.Driver, error) { return d, nil }
}

func (d *fakeDriver) fail(op, url string) error {
	return &session.SessionError{Op: op, URL: url, Err: fmt.Errorf("scripted failure")}
}

func (d *fakeDriver) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.opened = true
	return nil
}

func (d *fakeDriver) Close(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

func (d *fakeDriver) Navigate(ctx context.Context, url string) error {
	if url == testSearchURL {
		if d.blockSearch != nil {
			<-d.blockSearch
		}
		d.mu.Lock()
		d.current = &extraction.PageContent{URL: url, Text: "Buscar"}
		d.onResults = false
		d.mu.Unlock()
		return nil
	}

	d.mu.Lock()
	d.detailVisits = append(d.detailVisits, url)
	d.visitTimes = append(d.visitTimes, time.Now())
	hook := d.onDetail
	page, ok := d.details[url]
	failed := d.failDetail[url]
	d.mu.Unlock()

	if hook != nil {
		hook(url)
	}
	if failed || !ok {
		return d.fail("navigate", url)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.current = page
	d.currentDetail = url
	d.onResults = false
	return nil
}

func (d *fakeDriver) ApplyLocalityFilter(ctx context.Context, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.locality = value
	return nil
}

func (d *fakeDriver) SubmitSearch(ctx context.Context) error {
	if d.failSubmit != nil {
		return d.failSubmit
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cursor = 0
	d.current = d.results[0]
	d.onResults = true
	return nil
}

func (d *fakeDriver) HasNextPage(ctx context.Context) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.alwaysNext || d.cursor < len(d.results)-1, nil
}

func (d *fakeDriver) AdvancePage(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cursor < len(d.results)-1 {
		d.cursor++
	}
	d.pagesAdvanced++
	d.current = d.results[d.cursor]
	d.onResults = true
	return nil
}

func (d *fakeDriver) CurrentPageContent(ctx context.Context) (*extraction.PageContent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.onResults && d.failReadPage == d.cursor+1 {
		return nil, d.fail("read page", fmt.Sprintf("page %d", d.cursor+1))
	}
	return d.current, nil
}

func (d *fakeDriver) OpenTab(ctx context.Context, label string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	page, ok := d.assets[d.currentDetail]
	if !ok || label != extraction.AssetTabLabel {
		return false, nil
	}
	d.current = page
	return true, nil
}

func (d *fakeDriver) visits() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.detailVisits...)
}

func newTestJob(db *gorm.DB, d *fakeDriver) *HarvestJobService {
	return NewHarvestJobService(db, d.factory(), HarvestOptions{
		SearchURL: testSearchURL,
		Locality:  "Rivas Vaciamadrid",
		MaxPages:  10,
	})
}

func (d *fakeDriver) visitedAt() []time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]time.Time(nil), d.visitTimes...)
}
