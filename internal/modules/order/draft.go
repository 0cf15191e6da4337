package order

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/georgemunganga/footcare-storefront/internal/modules/selection"
)

// ErrNoProductsSelected blocks submission of a draft whose subtotal is zero.
var ErrNoProductsSelected = errors.New("select at least one product")

const (
	maxPhoneDigits = 11

	// ValidationSummary is the single notification shown for any field error.
	ValidationSummary = "Please fill in all fields correctly"
)

var (
	mobilePattern = regexp.MustCompile(`^01[3-9]\d{8}$`)
	nonDigits     = regexp.MustCompile(`\D`)
)

// Contact holds the customer fields of an order draft.
type Contact struct {
	CustomerName   string `json:"customerName" validate:"required"`
	CustomerPhone  string `json:"customerPhone" validate:"required,bdmobile"`
	DeliverAddress string `json:"deliverAddress" validate:"required"`
	Area           string `json:"area" validate:"required,district"`
	Notes          string `json:"notes"`
}

// Draft is a prospective order: contact fields plus the selected quantities.
type Draft struct {
	Contact
	Quantities selection.Quantities `json:"quantities"`
}

func NewDraft() Draft {
	return Draft{Quantities: selection.Quantities{}}
}

// DigitsOnly strips everything but digits.
func DigitsOnly(s string) string { return nonDigits.ReplaceAllString(s, "") }

// NormalizePhone keeps at most eleven digits of user input.
func NormalizePhone(s string) string {
	d := DigitsOnly(s)
	if len(d) > maxPhoneDigits {
		d = d[:maxPhoneDigits]
	}
	return d
}

// SetContact replaces the customer fields; the phone is normalised as typed.
func (d *Draft) SetContact(c Contact) {
	c.CustomerPhone = NormalizePhone(c.CustomerPhone)
	d.Contact = c
}

// ValidationErrors maps a field's JSON name to its message.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "invalid order draft: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	_ = v.RegisterValidation("bdmobile", func(fl validator.FieldLevel) bool {
		return mobilePattern.MatchString(DigitsOnly(fl.Field().String()))
	})
	_ = v.RegisterValidation("district", func(fl validator.FieldLevel) bool {
		return IsDistrict(fl.Field().String())
	})
	return v
}

// fieldMessages holds the message per field and failed tag.
var fieldMessages = map[string]map[string]string{
	"customerName":   {"required": "Name is required"},
	"deliverAddress": {"required": "Address is required"},
	"customerPhone": {
		"required": "Mobile number is required",
		"bdmobile": "Enter a valid 11-digit mobile number (01XXXXXXXXX)",
	},
	"area": {
		"required": "Select a delivery area",
		"district": "Select a delivery area from the list",
	},
}

// Validate checks the contact fields. It returns nil when the draft may be
// submitted as far as contact data goes; quantities are checked by BuildPayload.
func (c Contact) Validate() ValidationErrors {
	trimmed := c
	trimmed.CustomerName = strings.TrimSpace(c.CustomerName)
	trimmed.DeliverAddress = strings.TrimSpace(c.DeliverAddress)
	trimmed.CustomerPhone = strings.TrimSpace(c.CustomerPhone)

	err := validate.Struct(trimmed)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return ValidationErrors{"form": err.Error()}
	}
	out := ValidationErrors{}
	for _, fe := range verrs {
		msg, ok := fieldMessages[fe.Field()][fe.Tag()]
		if !ok {
			msg = fe.Field() + " is invalid"
		}
		out[fe.Field()] = msg
	}
	return out
}

// BuildPayload turns the draft into a create-order body: only lines with a
// positive quantity, totalAmount equal to the subtotal.
func BuildPayload(d Draft, m *selection.Model) (CreateOrderRequest, error) {
	q := m.Normalize(d.Quantities)
	totals := m.Totals(q)
	if totals.Subtotal <= 0 {
		return CreateOrderRequest{}, ErrNoProductsSelected
	}

	lines := m.Lines(q)
	products := make([]ProductLine, 0, len(lines))
	for _, l := range lines {
		products = append(products, ProductLine{
			ProductID:       l.ProductID,
			ProductName:     l.Name,
			ProductPrice:    l.Price,
			ProductQuantity: l.Quantity,
		})
	}

	return CreateOrderRequest{
		CustomerName:   strings.TrimSpace(d.CustomerName),
		CustomerPhone:  DigitsOnly(d.CustomerPhone),
		DeliverAddress: strings.TrimSpace(d.DeliverAddress),
		Area:           d.Area,
		Notes:          strings.TrimSpace(d.Notes),
		Products:       products,
		TotalAmount:    totals.Subtotal,
	}, nil
}
