package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money is a cash amount, stored in Mongo as Decimal128.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps d
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// MarshalBSONValue implements bson.ValueMarshaler.
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	d128, err := primitive.ParseDecimal128(m.Decimal.String())
	if err != nil {
		return 0, nil, fmt.Errorf("encode money %s: %w", m.Decimal.String(), err)
	}
	return bson.MarshalValue(d128)
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler.
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	v := bson.RawValue{Type: t, Value: data}
	switch t {
	case bsontype.Decimal128:
		d128, ok := v.Decimal128OK()
		if !ok {
			return fmt.Errorf("malformed decimal128 money value")
		}
		d, err := decimal.NewFromString(d128.String())
		if err != nil {
			return err
		}
		m.Decimal = d
	case bsontype.Double:
		m.Decimal = decimal.NewFromFloat(v.Double())
	case bsontype.Int32:
		m.Decimal = decimal.NewFromInt32(v.Int32())
	case bsontype.Int64:
		m.Decimal = decimal.NewFromInt(v.Int64())
	case bsontype.String:
		d, err := decimal.NewFromString(v.StringValue())
		if err != nil {
			return err
		}
		m.Decimal = d
	default:
		m.Decimal = decimal.Zero
	}
	return nil
}
