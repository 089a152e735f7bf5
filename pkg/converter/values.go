// pkg/converter/values.go
package converter

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/David-Botos/data-transform/pkg/model"
)

// NormalizeValue standardizes a driver value to nil, int64, float64, bool,
// string or time.Time
func NormalizeValue(v model.Value) model.Value {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return string(val)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}

// ConvertValueForSQL converts a value to match the column type it is written to
func (c *TypeConverter) ConvertValueForSQL(value model.Value, sqlType string) (model.Value, error) {
	value = NormalizeValue(value)
	if value == nil {
		return nil, nil
	}

	switch sqlType {
	case TypeText:
		return c.convertToText(value), nil
	case TypeDouble:
		switch v := value.(type) {
		case int64:
			return float64(v), nil
		case float64:
			return v, nil
		}
	case TypeBigInt:
		if v, ok := value.(int64); ok {
			return v, nil
		}
	case TypeBoolean:
		if v, ok := value.(bool); ok {
			return v, nil
		}
	case TypeTimestamp:
		if v, ok := value.(time.Time); ok {
			return v, nil
		}
	default:
		return value, nil
	}

	return nil, fmt.Errorf("cannot convert %T to %s", value, sqlType)
}

// convertToText converts a value to text/string
func (c *TypeConverter) convertToText(value model.Value) model.Value {
	switch v := value.(type) {
	case string:
		if c.config.EmptyStringAsNull && strings.TrimSpace(v) == "" {
			return nil
		}
		return v
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func isTime(v model.Value) bool {
	_, ok := v.(time.Time)
	return ok
}
