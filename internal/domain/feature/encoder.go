package feature

// Encode one-hot encodes a single record into a column-name to value
// mapping. Each categorical field produces exactly one "field_value" column
// with value 1; every other column of that field is simply absent, which the
// aligner later reads as 0. Numeric fields pass through under their own
// name.
//
// A single-record encoder cannot tell "known category, not this record"
// apart from "category the model never saw"; both resolve during alignment.
func Encode(rec Record) map[string]float64 {
	rec = rec.normalized()

	cats := rec.categoricals()
	out := make(map[string]float64, 1+len(cats))
	out[columnValor] = rec.Valor
	for _, c := range cats {
		out[c.field+"_"+c.value] = 1
	}
	return out
}
