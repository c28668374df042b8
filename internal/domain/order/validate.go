package order

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/go-faster/errors"
	"github.com/ogen-go/ogen/ogenregex"
	"github.com/ogen-go/ogen/validate"
	"github.com/shopspring/decimal"
)

// Field names as they appear in the request body and in the error report.
const (
	FieldCustomerName = "customerName"
	FieldPhoneNumber  = "phoneNumber"
	FieldAddress      = "address"
	FieldItems        = "items"
	FieldTotalAmount  = "totalAmount"
)

// User-facing validation messages.
const (
	MsgNameTooShort     = "الاسم لازم يكون 3 حروف على الأقل"
	MsgInvalidPhone     = "رقم الموبايل لازم يبدأ بـ 01 ويتكون من 11 رقم"
	MsgUnclearAddress   = "اكتب عنوان واضح"
	MsgEmptyCart        = "السلة فارغة"
	MsgInvalidQuantity  = "الكمية لازم تكون 1 على الأقل"
	MsgNonPositiveTotal = "الإجمالي لازم يكون أكبر من صفر"
	MsgInvalidTotal     = "الإجمالي غير صالح"
	MsgInvalidPrice     = "سعر الصنف غير صالح"
	MsgQuantityTooLarge = "الكمية كبيرة جدا"
)

const (
	minNameLength    = 3
	minAddressLength = 6
	maxQuantity      = math.MaxInt32
)

// maxAmount bounds money values to what a NUMERIC(12,2) column holds.
var maxAmount = decimal.New(1, 10)

var phonePattern = ogenregex.MustCompile(`^01\d{9}$`)

// Submission is an order as submitted by a client, before validation.
type Submission struct {
	CustomerName string
	PhoneNumber  string
	Address      string
	TotalAmount  decimal.Decimal
	Items        []SubmittedItem
}

// SubmittedItem is a single cart line as submitted by a client.
type SubmittedItem struct {
	ItemName string
	Price    decimal.Decimal
	Quantity int
}

// Validate runs every field rule and returns a *validate.Error listing all
// violations, or nil when the submission is acceptable.
func (s Submission) Validate() error {
	var fields []validate.FieldError
	fail := func(name, msg string) {
		fields = append(fields, validate.FieldError{Name: name, Error: errors.New(msg)})
	}

	if utf8.RuneCountInString(strings.TrimSpace(s.CustomerName)) < minNameLength {
		fail(FieldCustomerName, MsgNameTooShort)
	}
	if ok, err := phonePattern.MatchString(strings.TrimSpace(s.PhoneNumber)); err != nil || !ok {
		fail(FieldPhoneNumber, MsgInvalidPhone)
	}
	if utf8.RuneCountInString(strings.TrimSpace(s.Address)) < minAddressLength {
		fail(FieldAddress, MsgUnclearAddress)
	}
	if len(s.Items) == 0 {
		fail(FieldItems, MsgEmptyCart)
	}
	var badQuantity, hugeQuantity, badPrice bool
	for _, item := range s.Items {
		badQuantity = badQuantity || item.Quantity < 1
		hugeQuantity = hugeQuantity || item.Quantity > maxQuantity
		badPrice = badPrice || item.Price.IsNegative() || !isMoney(item.Price)
	}
	if badQuantity {
		fail(FieldItems, MsgInvalidQuantity)
	}
	if hugeQuantity {
		fail(FieldItems, MsgQuantityTooLarge)
	}
	if badPrice {
		fail(FieldItems, MsgInvalidPrice)
	}
	switch {
	case !s.TotalAmount.IsPositive():
		fail(FieldTotalAmount, MsgNonPositiveTotal)
	case !isMoney(s.TotalAmount):
		fail(FieldTotalAmount, MsgInvalidTotal)
	}

	if len(fields) > 0 {
		return &validate.Error{Fields: fields}
	}
	return nil
}

// isMoney reports whether d has at most two decimal places and fits the
// storage precision.
func isMoney(d decimal.Decimal) bool {
	return d.Equal(d.Round(2)) && d.Abs().LessThan(maxAmount)
}

// FieldMessages groups the messages of a validation error by field name.
// It returns nil if err is not a *validate.Error.
func FieldMessages(err error) map[string][]string {
	var verr *validate.Error
	if !errors.As(err, &verr) {
		return nil
	}
	out := make(map[string][]string, len(verr.Fields))
	for _, f := range verr.Fields {
		out[f.Name] = append(out[f.Name], f.Error.Error())
	}
	return out
}
