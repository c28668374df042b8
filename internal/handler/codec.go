package handler

import (
	"sort"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/smartmenu/order-intake/internal/domain/order"
)

// DecodeSubmission parses the POST /api/orders body. Unknown fields are
// ignored and null values leave the field at its zero value. Anything but
// whitespace after the object is an error.
func DecodeSubmission(data []byte) (order.Submission, error) {
	var sub order.Submission
	d := jx.DecodeBytes(data)
	err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
		var err error
		switch string(key) {
		case "customerName":
			sub.CustomerName, err = decodeString(d)
		case "phoneNumber":
			sub.PhoneNumber, err = decodeString(d)
		case "address":
			sub.Address, err = decodeString(d)
		case "totalAmount":
			sub.TotalAmount, err = decodeDecimal(d)
		case "items":
			sub.Items, err = decodeItems(d)
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrapf(err, "decode %s", key)
		}
		return nil
	})
	if err != nil {
		return order.Submission{}, err
	}
	if d.Next() != jx.Invalid {
		return order.Submission{}, errors.New("unexpected data after object")
	}
	return sub, nil
}

func decodeItems(d *jx.Decoder) ([]order.SubmittedItem, error) {
	if d.Next() == jx.Null {
		return nil, d.Null()
	}
	items := []order.SubmittedItem{}
	err := d.Arr(func(d *jx.Decoder) error {
		var item order.SubmittedItem
		if err := d.ObjBytes(func(d *jx.Decoder, key []byte) error {
			var err error
			switch string(key) {
			case "itemName":
				item.ItemName, err = decodeString(d)
			case "price":
				item.Price, err = decodeDecimal(d)
			case "quantity":
				if d.Next() == jx.Null {
					return d.Null()
				}
				item.Quantity, err = d.Int()
			default:
				err = d.Skip()
			}
			if err != nil {
				return errors.Wrapf(err, "decode item %s", key)
			}
			return nil
		}); err != nil {
			return err
		}
		items = append(items, item)
		return nil
	})
	return items, err
}

func decodeString(d *jx.Decoder) (string, error) {
	if d.Next() == jx.Null {
		return "", d.Null()
	}
	return d.Str()
}

// decodeDecimal accepts both JSON numbers and numeric strings.
func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	switch d.Next() {
	case jx.Null:
		return decimal.Zero, d.Null()
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(s)
	default:
		n, err := d.Num()
		if err != nil {
			return decimal.Zero, err
		}
		return decimal.NewFromString(n.String())
	}
}

func encodeOrder(e *jx.Encoder, o order.Order) {
	e.ObjStart()
	e.FieldStart("orderId")
	e.Int64(o.ID)
	e.FieldStart("customerName")
	e.Str(o.CustomerName)
	e.FieldStart("phoneNumber")
	e.Str(o.CustomerPhone)
	e.FieldStart("address")
	e.Str(o.CustomerAddress)
	e.FieldStart("totalAmount")
	e.Float64(o.Total.InexactFloat64())
	e.FieldStart("orderDate")
	e.Str(o.CreatedAt.UTC().Format(time.RFC3339Nano))
	e.FieldStart("items")
	e.ArrStart()
	for _, item := range o.Items {
		e.ObjStart()
		e.FieldStart("itemName")
		e.Str(item.Name)
		e.FieldStart("price")
		e.Float64(item.Price.InexactFloat64())
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

func encodeOrders(orders []order.Order) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, o := range orders {
		encodeOrder(&e, o)
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeCreated(id int64, message string) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("ok")
	e.Bool(true)
	e.FieldStart("orderId")
	e.Int64(id)
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	return e.Bytes()
}

// encodeMessage renders {"ok":false,"message":...}, or {"message":...} when
// withOK is false.
func encodeMessage(message string, withOK bool) []byte {
	var e jx.Encoder
	e.ObjStart()
	if withOK {
		e.FieldStart("ok")
		e.Bool(false)
	}
	e.FieldStart("message")
	e.Str(message)
	e.ObjEnd()
	return e.Bytes()
}

// encodeValidationProblem renders a problem document with a field to
// messages map. Fields are sorted for stable output.
func encodeValidationProblem(fields map[string][]string) []byte {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("title")
	e.Str("One or more validation errors occurred.")
	e.FieldStart("status")
	e.Int(422)
	e.FieldStart("errors")
	e.ObjStart()
	for _, name := range names {
		e.FieldStart(name)
		e.ArrStart()
		for _, msg := range fields[name] {
			e.Str(msg)
		}
		e.ArrEnd()
	}
	e.ObjEnd()
	e.ObjEnd()
	return e.Bytes()
}
