package models

import (
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Coins is a user balance. Older documents may store it as a double, a
// decimal, a numeric string or not at all. Numbers truncate toward zero and
// anything unreadable decodes as 0, matching how the user store reads the
// field in its update pipelines.
type Coins int64

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (c *Coins) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bson.RawValue{Type: t, Value: data}
	*c = 0
	switch t {
	case bsontype.Int32:
		if n, ok := v.Int32OK(); ok {
			*c = Coins(n)
		}
	case bsontype.Int64:
		if n, ok := v.Int64OK(); ok {
			*c = Coins(n)
		}
	case bsontype.Double:
		if f, ok := v.DoubleOK(); ok {
			*c = truncate(f)
		}
	case bsontype.Decimal128:
		if d, ok := v.Decimal128OK(); ok {
			if f, err := strconv.ParseFloat(d.String(), 64); err == nil {
				*c = truncate(f)
			}
		}
	case bsontype.String:
		if s, ok := v.StringValueOK(); ok && !strings.ContainsAny(s, "xX") {
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				*c = truncate(f)
			}
		}
	}
	return nil
}

// truncate drops the fraction; values a long cannot hold become 0
func truncate(f float64) Coins {
	if math.IsNaN(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0
	}
	return Coins(int64(f))
}
