package pricing

import (
	"database/sql/driver"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Unit is the display unit stored together with the magnitude.
const Unit = "tonna"

var (
	tonsInput   = regexp.MustCompile(`^\d+(?:[.,]\d+)?$`)
	firstNumber = regexp.MustCompile(`[0-9]+(?:[.,][0-9]+)?`)
)

// Quantity is an order quantity. The canonical text ("2.3 tonna") is what gets
// persisted; the kilogram magnitude is derived once when the value is built or scanned.
type Quantity struct {
	text  string
	kg    float64
	valid bool
}

// NewQuantity builds the canonical quantity for a tonnage.
func NewQuantity(tons float64) Quantity {
	return FromText(FormatPrice(tons) + " " + Unit)
}

// FromText wraps a stored quantity string. Unparsable text is kept verbatim and
// reports no magnitude.
func FromText(text string) Quantity {
	kg, ok := parseKilograms(text)
	return Quantity{text: text, kg: kg, valid: ok}
}

// ParseTons accepts "2", "2.3" or "2,3".
func ParseTons(input string) (float64, error) {
	cleaned := strings.TrimSpace(input)
	if !tonsInput.MatchString(cleaned) {
		return 0, ErrInvalidQuantity
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(cleaned, ",", "."), 64)
	if err != nil {
		return 0, ErrInvalidQuantity
	}
	return v, nil
}

// ParseOrderQuantity validates tonnage typed into an order flow. minTons of zero means
// any positive amount is accepted.
func ParseOrderQuantity(input string, minTons float64) (Quantity, error) {
	tons, err := ParseTons(input)
	if err != nil {
		return Quantity{}, err
	}
	if minTons > 0 && tons < minTons {
		return Quantity{}, ErrBelowMinimum
	}
	if tons <= 0 {
		return Quantity{}, ErrInvalidQuantity
	}
	return NewQuantity(tons), nil
}

// Normalize maps raw input or an already canonical string to the canonical form.
// Normalize(Normalize(x)) == Normalize(x).
func Normalize(input string) (string, error) {
	cleaned := strings.TrimSpace(input)
	cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, Unit))
	tons, err := ParseTons(cleaned)
	if err != nil {
		return "", err
	}
	return NewQuantity(tons).String(), nil
}

func ParsePrice(input string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(input), ",", ".")
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, ErrInvalidPrice
	}
	return v, nil
}

// parseKilograms reads the first number in the text; any "t" marker (tonna, t)
// scales it to kilograms.
func parseKilograms(text string) (float64, bool) {
	cleaned := strings.ToLower(strings.TrimSpace(text))
	match := firstNumber.FindString(cleaned)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	if strings.Contains(cleaned, "tonna") || strings.Contains(cleaned, "t") {
		v *= 1000
	}
	return v, true
}

func (q Quantity) String() string { return q.text }

func (q Quantity) IsZero() bool { return q.text == "" }

func (q Quantity) Kilograms() (float64, bool) { return q.kg, q.valid }

func (q Quantity) Tons() (float64, bool) { return q.kg / 1000, q.valid }

// Total multiplies the magnitude by a per-kilogram price.
func (q Quantity) Total(pricePerKg float64) (float64, bool) {
	if !q.valid {
		return 0, false
	}
	return q.kg * pricePerKg, true
}

func (q Quantity) MarshalText() ([]byte, error) { return []byte(q.text), nil }

func (q *Quantity) UnmarshalText(b []byte) error {
	*q = FromText(string(b))
	return nil
}

func (q Quantity) Value() (driver.Value, error) { return q.text, nil }

func (q *Quantity) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*q = Quantity{}
	case string:
		*q = FromText(v)
	case []byte:
		*q = FromText(string(v))
	default:
		return fmt.Errorf("pricing: cannot scan %T into Quantity", src)
	}
	return nil
}
