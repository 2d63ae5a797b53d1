package schemas

import (
	"math"
	"strconv"

	json "github.com/json-iterator/go"
)

// Cost is a monetary amount in USD that may be unknown. The zero value is
// unknown; use KnownCost for a real figure.
type Cost struct {
	Value float64
	Valid bool
}

// KnownCost wraps a numeric amount. NaN, infinities and negative values are
// not amounts and produce an unknown cost.
func KnownCost(v float64) Cost {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return Cost{}
	}
	return Cost{Value: v, Valid: true}
}

// UnknownCost is the poisoned value.
func UnknownCost() Cost { return Cost{} }

// Add returns the running total plus delta. Once either side is unknown the
// result is unknown, and it stays that way for every later Add.
func (c Cost) Add(delta Cost) Cost {
	if !c.Valid || !delta.Valid {
		return Cost{}
	}
	return KnownCost(c.Value + delta.Value)
}

func (c Cost) String() string {
	if !c.Valid {
		return "unknown"
	}
	return "$" + strconv.FormatFloat(c.Value, 'f', 4, 64)
}

// MarshalJSON encodes an unknown cost as null.
func (c Cost) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(c.Value)
}

// UnmarshalJSON accepts a number or null. Anything else yields an unknown cost
// rather than an error, matching how a non-numeric report is treated.
func (c *Cost) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	f, ok := v.(float64)
	if !ok {
		*c = Cost{}
		return nil
	}
	*c = KnownCost(f)
	return nil
}
