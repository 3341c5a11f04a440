package extraction

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func listingFixture() *PageContent {
	return &PageContent{
		URL:  "https://subastas.boe.es/subastas_ava.php?campo%5B0%5D=x",
		Text: "Resultados 1 a 3 de 57\n...",
		Blocks: []Block{
			{
				Text: "SUBASTA SUB-JA-2024-001122\nJUZGADO 1ª INST. E INSTR. Nº 2 DE ARGANDA DEL REY\n" +
					"Expediente: 0000123/2022\nEstado: Celebrándose - [Conclusión prevista: 20/05/2024 a las 18:00:00]\n" +
					"VIVIENDA EN CALLE MAYOR 12, RIVAS VACIAMADRID\nMás...",
				Links: []Link{
					{Text: "Más...", Href: "./detalleSubasta.php?idSub=SUB-JA-2024-001122&idBus=abc"},
				},
			},
			{
				Text:  "Publicidad de la plataforma sin identificador",
				Links: nil,
			},
			{
				Text: "SUBASTA SUB-NE-2024-000045\nNotaría de Don Juan Pérez\nExpediente: 45/2024\nEstado: Próxima apertura\n" +
					"Plaza de garaje\nLOCAL COMERCIAL Y PLAZA DE GARAJE EN AVENIDA",
				Links: []Link{
					{Text: "Otro", Href: "https://example.com/elsewhere"},
					{Text: "Más...", Href: "https://subastas.boe.es/detalleSubasta.php?idSub=SUB-NE-2024-000045"},
				},
			},
			{
				Text:  "SUBASTA SUB-AT-2024-99\nAGENCIA TRIBUTARIA\nEstado: Celebrándose",
				Links: []Link{{Text: "Más...", Href: "detalleSubasta/%zz.php"}},
			},
		},
	}
}

func TestExtractListingPage(t *testing.T) {
	res, err := ExtractListingPage(listingFixture(), fixedNow)
	require.NoError(t, err)
	require.Len(t, res.Stubs, 2)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 1, res.Errors)
	require.Len(t, res.Issues, 1)

	first := res.Stubs[0]
	require.Equal(t, "SUB-JA-2024-001122", first.Identity)
	require.Equal(t, "Judicial", first.Category)
	require.Equal(t, "JUZGADO 1ª INST. E INSTR. Nº 2 DE ARGANDA DEL REY", first.Authority)
	require.Equal(t, "0000123/2022", first.CaseReference)
	require.Equal(t, "Celebrándose - [Conclusión prevista: 20/05/2024 a las 18:00:00]", first.Status)
	require.Equal(t, "VIVIENDA EN CALLE MAYOR 12, RIVAS VACIAMADRID", first.Description)
	require.Equal(t, "https://subastas.boe.es/detalleSubasta.php?idSub=SUB-JA-2024-001122&idBus=abc", first.DetailURL)
	require.Equal(t, fixedNow, first.ExtractedAt)

	second := res.Stubs[1]
	require.Equal(t, "Notarial-Electronic", second.Category)
	require.Equal(t, "Notaría de Don Juan Pérez", second.Authority)
	require.Equal(t, "LOCAL COMERCIAL Y PLAZA DE GARAJE EN AVENIDA", second.Description)
	require.Equal(t, "https://subastas.boe.es/detalleSubasta.php?idSub=SUB-NE-2024-000045", second.DetailURL)
}

func TestExtractListingPage_NilContent(t *testing.T) {
	_, err := ExtractListingPage(nil, fixedNow)
	require.ErrorIs(t, err, ErrPageUnavailable)
}

func TestExtractListingPage_DuplicateBlocks(t *testing.T) {
	content := &PageContent{Blocks: []Block{
		{Text: "SUBASTA SUB-SA-2024-1"},
		{Text: "SUBASTA SUB-SA-2024-1 repeated"},
	}}
	res, err := ExtractListingPage(content, fixedNow)
	require.NoError(t, err)
	require.Len(t, res.Stubs, 1)
	require.Empty(t, res.Stubs[0].DetailURL)
}

func TestFindDescriptionComparesCharacters(t *testing.T) {
	plain := "VIVIENDA EN CALLE MAYOR, MADRID"
	accented := "VIVIENDA EN CALLE ÁLAMO, MÉRIDA"
	require.Equal(t, len([]rune(plain)), len([]rune(accented)))

	// equal length keeps the first candidate even though accents take more bytes
	require.Equal(t, plain, findDescription([]string{plain, accented}, "SUB-JA-2024-1", ""))
	require.Equal(t, accented, findDescription([]string{accented, plain}, "SUB-JA-2024-1", ""))

	longer := accented + " Y GARAJE"
	require.Equal(t, longer, findDescription([]string{plain, longer}, "SUB-JA-2024-1", ""))
}

func TestExtractTotalResults(t *testing.T) {
	total, ok := ExtractTotalResults(&PageContent{Text: "Resultados 1 a 50 de 1.204"})
	require.True(t, ok)
	require.Equal(t, 1204, total)

	_, ok = ExtractTotalResults(&PageContent{Text: "No se han encontrado resultados"})
	require.False(t, ok)
}

func detailFixture() *PageContent {
	return &PageContent{
		URL:  "https://subastas.boe.es/detalleSubasta.php?idSub=SUB-JA-2024-001122",
		Text: "Información general",
		Rows: []Row{
			{Cells: []string{"Identificador", "SUB-JA-2024-001122"}},
			{Cells: []string{"Tipo de subasta", "JUDICIAL EN VIA DE APREMIO"}},
			{Cells: []string{"Cuenta expediente", "2345 0000 00 0123 22"}},
			{Cells: []string{"Fecha de inicio", "29-04-2024 18:00:00 CET  (ISO: 2024-04-29T18:00:00+02:00)"}},
			{Cells: []string{"Fecha de conclusión", "20-05-2024 18:00:00 CET  (ISO: 2024-05-20T18:00:00+02:00)"}},
			{Cells: []string{"Cantidad reclamada", "95.340,12 €"}},
			{Cells: []string{"Lotes", "Sin lotes"}},
			{Cells: []string{"Anuncio BOE", "BOE-B-2024-12345"}},
			{Cells: []string{"Valor subasta", "210.000,00 €"}},
			{Cells: []string{"Tasación", "210.000,00 €"}},
			{Cells: []string{"Puja mínima", "Sin puja mínima"}},
			{Cells: []string{"Importe del depósito", "10.500,00 €"}},
		},
	}
}

func TestExtractDetailPage(t *testing.T) {
	d, err := ExtractDetailPage(detailFixture())
	require.NoError(t, err)
	require.Equal(t, "JUDICIAL EN VIA DE APREMIO", d.AuctionType)
	require.Equal(t, "2345 0000 00 0123 22", d.FilingAccount)
	require.NotNil(t, d.StartDate)
	require.NotNil(t, d.EndDate)
	require.True(t, d.EndDate.Equal(time.Date(2024, 5, 20, 16, 0, 0, 0, time.UTC)))
	require.InDelta(t, 95340.12, *d.ClaimedAmount, 0.001)
	require.InDelta(t, 210000, *d.AuctionValue, 0.001)
	require.InDelta(t, 210000, *d.Appraisal, 0.001)
	require.Nil(t, d.MinimumBid)
	require.InDelta(t, 10500, *d.DepositAmount, 0.001)
	require.Equal(t, 0, *d.Lots)
	require.Equal(t, "BOE-B-2024-12345", d.Announcement)
	require.Empty(t, d.Issues)
}

func TestExtractDetailPage_MissingRows(t *testing.T) {
	d, err := ExtractDetailPage(&PageContent{
		Text: "Información general",
		Rows: []Row{
			{Cells: []string{"Tipo de subasta", "NOTARIAL"}},
			{Cells: []string{"Tasación", "a consultar"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "NOTARIAL", d.AuctionType)
	require.Nil(t, d.ClaimedAmount)
	require.Nil(t, d.Appraisal)
	require.Nil(t, d.Lots)
	require.Nil(t, d.EndDate)
	require.Len(t, d.Issues, 1)
}

func TestExtractDetailPage_Unavailable(t *testing.T) {
	_, err := ExtractDetailPage(nil)
	require.ErrorIs(t, err, ErrPageUnavailable)

	_, err = ExtractDetailPage(&PageContent{URL: "https://subastas.boe.es/x"})
	require.ErrorIs(t, err, ErrPageUnavailable)
}

func TestExtractAssetPage(t *testing.T) {
	a, err := ExtractAssetPage(&PageContent{
		Text: "Bienes\nBien 1 - Inmueble (Vivienda)\nDatos del bien",
		Rows: []Row{
			{Cells: []string{"Descripción", "VIVIENDA EN CALLE MAYOR 12"}},
			{Cells: []string{"IDUFIR", "28123000456789"}},
			{Cells: []string{"Referencia catastral", "1234567VK5713S0001AB"}},
			{Cells: []string{"Dirección", "CALLE MAYOR 12, 3º B"}},
			{Cells: []string{"Código Postal", "28522"}},
			{Cells: []string{"Localidad", "RIVAS-VACIAMADRID"}},
			{Cells: []string{"Provincia", "Madrid"}},
			{Cells: []string{"Situación posesoria", "Ocupado"}},
			{Cells: []string{"Visitable", "No consta"}},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "Inmueble (Vivienda)", a.Category)
	require.Equal(t, "28123000456789", a.RegistryID)
	require.Equal(t, "1234567VK5713S0001AB", a.CadastralRef)
	require.Equal(t, "28522", a.PostalCode)
	require.Equal(t, "RIVAS-VACIAMADRID", a.Locality)
	require.Equal(t, "No consta", a.Visitable)
	require.False(t, a.Empty())
}

func TestExtractAssetPage_HeaderOnly(t *testing.T) {
	a, err := ExtractAssetPage(&PageContent{Text: "Asset 2 - Vehicle"})
	require.NoError(t, err)
	require.Equal(t, "Vehicle", a.Category)
	require.Empty(t, a.Address)
}

func TestLookup(t *testing.T) {
	p := &PageContent{Rows: []Row{
		{Cells: []string{"  Localidad  ", "  RIVAS   VACIAMADRID "}},
		{Cells: []string{"Provincia"}},
	}}
	v, ok := p.Lookup("Localidad")
	require.True(t, ok)
	require.Equal(t, "RIVAS VACIAMADRID", v)

	v, ok = p.Lookup("Provincia")
	require.True(t, ok)
	require.Empty(t, v)

	_, ok = p.Lookup("IDUFIR")
	require.False(t, ok)
}
