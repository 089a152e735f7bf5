// pkg/cleaner/coerce.go
package cleaner

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/data-transform/pkg/model"
)

// Cleaning operation names recorded in the audit trail
const (
	OperationIncomeCoercion = "income_coercion"
	OperationBinaryCoercion = "binary_coercion"
	OperationAgeGrouping    = "age_grouping"
)

// ageBin is a half-open interval [lower, upper)
type ageBin struct {
	lower, upper float64
	group        model.AgeGroup
}

var ageBins = []ageBin{
	{0, 18, model.AgeGroupTeen},
	{18, 30, model.AgeGroupYoungAdult},
	{30, 50, model.AgeGroupMiddleAged},
	{50, 70, model.AgeGroupSenior},
	{70, 100, model.AgeGroupElderly},
}

// CoerceIncome converts an income cell to an integer.
// Missing, unparseable, non-finite and out of range values become 0 with defaulted set;
// fractional values are truncated toward zero.
func CoerceIncome(v model.Value) (income int64, defaulted bool) {
	f, ok := toFloat(v)
	if !ok || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, true
	}
	return int64(f), false
}

// CoerceBinary maps "Yes" to 1 and "No" to 0.
// Any other value, including a missing one, becomes 0 with defaulted set.
func CoerceBinary(v model.Value) (flag int64, defaulted bool) {
	s, ok := v.(string)
	if b, isBytes := v.([]byte); isBytes {
		s, ok = string(b), true
	}
	if !ok {
		return 0, true
	}

	switch s {
	case "Yes":
		return 1, false
	case "No":
		return 0, false
	default:
		return 0, true
	}
}

// ParseAge reads an age cell as a number
func ParseAge(v model.Value) (float64, bool) {
	return toFloat(v)
}

// AgeGroupFor buckets an age cell. Ages outside [0, 100) and non-numeric
// ages yield an invalid group; ok reports whether a group was assigned.
func AgeGroupFor(v model.Value) (group model.NullAgeGroup, ok bool) {
	age, parsed := ParseAge(v)
	if !parsed {
		return model.NullAgeGroup{}, false
	}
	for _, bin := range ageBins {
		if age >= bin.lower && age < bin.upper {
			return model.NullAgeGroup{AgeGroup: bin.group, Valid: true}, true
		}
	}
	return model.NullAgeGroup{}, false
}

// ToNullString converts a categorical cell to a nullable string
func ToNullString(v model.Value) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: toString(v), Valid: true}
}

// toString converts an interface to string
func toString(v interface{}) string {
	if v == nil {
		return ""
	}

	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	default:
		// Use Sprint as a fallback
		return fmt.Sprintf("%v", val)
	}
}

// toNullableString safely converts an interface to a nullable string
func toNullableString(v interface{}) *string {
	if v == nil {
		return nil
	}
	s := toString(v)
	return &s
}

// toFloat attempts to convert a value to a finite float64
func toFloat(v interface{}) (float64, bool) {
	var f float64

	switch val := v.(type) {
	case nil:
		return 0, false
	case int:
		f = float64(val)
	case int8:
		f = float64(val)
	case int16:
		f = float64(val)
	case int32:
		f = float64(val)
	case int64:
		f = float64(val)
	case uint:
		f = float64(val)
	case uint8:
		f = float64(val)
	case uint16:
		f = float64(val)
	case uint32:
		f = float64(val)
	case uint64:
		f = float64(val)
	case float32:
		f = float64(val)
	case float64:
		f = val
	case string:
		return parseFloat(val)
	case []byte:
		return parseFloat(string(val))
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func parseFloat(s string) (float64, bool) {
	cleaned := strings.TrimSpace(s)
	if cleaned == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
