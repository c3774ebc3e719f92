package refdata

import (
	"github.com/shopspring/decimal"

	"megatex/internal/quote"
)

type fabricRow struct {
	fabricType string
	ref        string
	price      int64
	colors     []string
}

// builtinFabrics is the shop's fabric list used when no fabrics sheet is
// configured. Prices of 1 are placeholders the shop had not priced yet.
var builtinFabrics = []fabricRow{
	{"Loneta", "NATALIA", 38000, []string{"MARFIL", "CAMEL", "PLATA"}},
	{"Loneta", "FINESTRA", 24000, []string{"BLANCO", "MARFIL", "CREMA", "LINO", "TAUPE", "ROSA", "PLATA", "GRIS", "INDIGO"}},
	{"Velo", "CALMA", 44000, []string{"MARFIL", "NUEZ", "CAMEL", "PLATA", "GRIS"}},
	{"Velo", "LINK", 26000, []string{"BLANCO", "MARFIL", "SAHARA", "CAMEL", "TAUPE", "PLATA", "ACERO", "INDIGO"}},
	{"Pesada", "ECLYPSE", 46000, []string{"MARFIL", "CAPUCHINO", "HOJA SECA", "AZUL", "PLATA", "GRIS"}},
	{"Pesada", "POLYJACQUARD BITONO BILBAO", 24000, []string{"BEIGE", "TABACO", "AZUL", "ROSA", "PLATA", "GRIS"}},
	{"Blackout", "UNITY", 1, []string{"BLANCO", "MARFIL", "PERLA", "PLATA", "TAUPE", "INDIGO"}},
	{"Blackout", "QUANTUM", 26000, []string{"BLANCO", "MARFIL", "PERLA", "PLATA", "TAUPE", "INDIGO"}},
	{"Blackout", "OCASO", 1, []string{"MARFIL", "CAMEL", "TAUPE", "PLATA", "AZUL"}},
	{"Blackout", "FLAT", 1, []string{"BLANCO", "MARFIL", "BEIGE", "TAUPE", "CAMEL", "PLATA"}},
}

// DefaultFabrics returns a fresh copy of the built-in fabric catalog.
func DefaultFabrics() quote.FabricCatalog {
	var c quote.FabricCatalog
	for _, row := range builtinFabrics {
		for _, color := range row.colors {
			c.Add(row.fabricType, row.ref, quote.FabricVariant{Color: color, UnitPrice: decimal.NewFromInt(row.price)})
		}
	}
	return c
}
