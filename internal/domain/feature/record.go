// Package feature transforms a raw lead record into the fixed-order vector
// the trained model consumes.
package feature

// Sentinel is substituted for any categorical field the source did not
// provide. Encoding an absent field without it would produce a column name
// that matches nothing in the registry.
const Sentinel = "desconhecido"

// Column name constants for the numeric fields.
const (
	columnValor = "valor"
)

// Record is one raw lead as received from the API or the CRM webhook.
// It lives for a single request and is never persisted.
type Record struct {
	Valor       float64
	UTMCampaign string
	UTMContent  string
	UTMMedium   string
	UTMSource   string
	UTMTerm     string
}

// categorical pairs a field's column prefix with its observed value.
type categorical struct {
	field string
	value string
}

// normalized returns a copy with every absent categorical coerced to the
// sentinel. Valor needs no defaulting: the zero value is the documented
// default.
func (r Record) normalized() Record {
	r.UTMCampaign = orSentinel(r.UTMCampaign)
	r.UTMContent = orSentinel(r.UTMContent)
	r.UTMMedium = orSentinel(r.UTMMedium)
	r.UTMSource = orSentinel(r.UTMSource)
	r.UTMTerm = orSentinel(r.UTMTerm)
	return r
}

func (r Record) categoricals() []categorical {
	return []categorical{
		{field: "utm_campaign", value: r.UTMCampaign},
		{field: "utm_content", value: r.UTMContent},
		{field: "utm_medium", value: r.UTMMedium},
		{field: "utm_source", value: r.UTMSource},
		{field: "utm_term", value: r.UTMTerm},
	}
}

func orSentinel(v string) string {
	if v == "" {
		return Sentinel
	}
	return v
}
