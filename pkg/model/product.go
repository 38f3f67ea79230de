package model

import "strings"

// Product identifies one of the shift products the orchestrator plans.
type Product string

const (
	// ProductIncidents is the business-hours primary rotation (Mon-Fri 08:00-17:00).
	ProductIncidents Product = "incidents"
	// ProductIncidentsStandby is the business-hours backup rotation.
	ProductIncidentsStandby Product = "incidents_standby"
	// ProductWaakdienst is the evening/weekend on-call rotation (Wed 17:00 - Wed 08:00).
	ProductWaakdienst Product = "waakdienst"
)

// productAliases maps accepted wire spellings onto canonical codes.
var productAliases = map[string]Product{
	"incidents":         ProductIncidents,
	"incident":          ProductIncidents,
	"incidents_standby": ProductIncidentsStandby,
	"incidents-standby": ProductIncidentsStandby,
	"standby":           ProductIncidentsStandby,
	"waakdienst":        ProductWaakdienst,
	"waak":              ProductWaakdienst,
	"on_call":           ProductWaakdienst,
}

// ParseProduct normalizes a wire code to its canonical Product.
func ParseProduct(s string) (Product, bool) {
	p, ok := productAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// Valid reports whether p is a canonical product code.
func (p Product) Valid() bool {
	switch p {
	case ProductIncidents, ProductIncidentsStandby, ProductWaakdienst:
		return true
	}
	return false
}

// BusinessHours reports whether the product runs during business hours only.
// Waakdienst is the complement: evenings, nights and weekends.
func (p Product) BusinessHours() bool {
	return p == ProductIncidents || p == ProductIncidentsStandby
}

// String returns the canonical wire code.
func (p Product) String() string {
	return string(p)
}

// PlanningOrder is the fixed order in which products are planned within a
// team run, so later products see earlier products' plan debit.
func PlanningOrder() []Product {
	return []Product{ProductIncidents, ProductIncidentsStandby, ProductWaakdienst}
}
