package extraction

import (
	"regexp"
)

const (
	AssetTabLabel = "Bienes"

	LabelAssetDescription = "Descripción"
	LabelRegistryID       = "IDUFIR"
	LabelCadastralRef     = "Referencia catastral"
	LabelAddress          = "Dirección"
	LabelPostalCode       = "Código Postal"
	LabelLocality         = "Localidad"
	LabelProvince         = "Provincia"
	LabelPossession       = "Situación posesoria"
	LabelVisitable        = "Visitable"
)

var assetHeader = regexp.MustCompile(`(?m)(?:Bien|Asset)\s+\d+\s+-\s+(.+)$`)

type AssetFields struct {
	Category         string
	Description      string
	RegistryID       string
	CadastralRef     string
	Address          string
	PostalCode       string
	Locality         string
	Province         string
	PossessionStatus string
	Visitable        string
}

// ExtractAssetPage reads the asset tab of a detail page.
func ExtractAssetPage(content *PageContent) (*AssetFields, error) {
	if content.Empty() {
		return nil, ErrPageUnavailable
	}

	a := &AssetFields{}
	if m := assetHeader.FindStringSubmatch(content.Text); m != nil {
		a.Category = normalizeSpace(m[1])
	}
	a.Description, _ = content.Lookup(LabelAssetDescription)
	a.RegistryID, _ = content.Lookup(LabelRegistryID)
	a.CadastralRef, _ = content.Lookup(LabelCadastralRef)
	a.Address, _ = content.Lookup(LabelAddress)
	a.PostalCode, _ = content.Lookup(LabelPostalCode)
	a.Locality, _ = content.Lookup(LabelLocality)
	a.Province, _ = content.Lookup(LabelProvince)
	a.PossessionStatus, _ = content.Lookup(LabelPossession)
	a.Visitable, _ = content.Lookup(LabelVisitable)
	return a, nil
}

// Empty reports whether no asset field was found at all.
func (a *AssetFields) Empty() bool {
	return a == nil || *a == (AssetFields{})
}
