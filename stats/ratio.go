package stats

import (
	"encoding/json"
	"math"

	"github.com/teranos/fuzzykea/contingency"
)

// OddsRatio is the sample odds ratio (a*d)/(b*c); +Inf when b or c is zero.
func OddsRatio(t contingency.Table) Ratio {
	b, c := t[0][1], t[1][0]
	if b == 0 || c == 0 {
		return Ratio(math.Inf(1))
	}
	return Ratio(float64(t[0][0]) * float64(t[1][1]) / (float64(b) * float64(c)))
}

// Ratio is an odds ratio that survives JSON encoding when infinite or undefined
type Ratio float64

// MarshalJSON encodes +Inf as "inf" and NaN as null
func (r Ratio) MarshalJSON() ([]byte, error) {
	f := float64(r)
	switch {
	case math.IsNaN(f):
		return []byte("null"), nil
	case math.IsInf(f, 1):
		return []byte(`"inf"`), nil
	case math.IsInf(f, -1):
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(f)
}

// UnmarshalJSON accepts the forms MarshalJSON produces
func (r *Ratio) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*r = Ratio(math.NaN())
		return nil
	case `"inf"`:
		*r = Ratio(math.Inf(1))
		return nil
	case `"-inf"`:
		*r = Ratio(math.Inf(-1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*r = Ratio(f)
	return nil
}
