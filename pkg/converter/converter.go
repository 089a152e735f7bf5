// pkg/converter/converter.go
package converter

import (
	"fmt"

	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/David-Botos/data-transform/pkg/model"
)

// SQL column types used for the clean table
const (
	TypeBigInt    = "BIGINT"
	TypeDouble    = "DOUBLE PRECISION"
	TypeBoolean   = "BOOLEAN"
	TypeTimestamp = "TIMESTAMP WITH TIME ZONE"
	TypeText      = "TEXT"
)

// TypeConverter handles mapping and conversion of data types and values
type TypeConverter struct {
	logger *zap.Logger
	// Configuration options
	config TypeConverterConfig
}

// TypeConverterConfig provides configuration options for type conversion
type TypeConverterConfig struct {
	// Type used when a column has no non-NULL values or mixed kinds
	FallbackType string
	// Whether to treat empty strings as NULL
	EmptyStringAsNull bool
}

// DefaultConfig returns the default configuration
func DefaultConfig() TypeConverterConfig {
	return TypeConverterConfig{
		FallbackType:      TypeText,
		EmptyStringAsNull: false,
	}
}

// NewTypeConverter creates a new TypeConverter with default configuration
func NewTypeConverter(logger *zap.Logger) *TypeConverter {
	return NewTypeConverterWithConfig(logger, DefaultConfig())
}

// NewTypeConverterWithConfig creates a TypeConverter with custom configuration
func NewTypeConverterWithConfig(logger *zap.Logger, config TypeConverterConfig) *TypeConverter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.FallbackType == "" {
		config.FallbackType = TypeText
	}
	return &TypeConverter{
		logger: logger,
		config: config,
	}
}

// InferColumnType picks the narrowest SQL type that holds every value
func (c *TypeConverter) InferColumnType(values []model.Value) string {
	var ints, floats, bools, times, texts int

	for _, v := range values {
		switch NormalizeValue(v).(type) {
		case nil:
		case int64:
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case string:
			texts++
		default:
			if isTime(v) {
				times++
			} else {
				texts++
			}
		}
	}

	switch {
	case texts > 0:
		return TypeText
	case ints+floats+bools+times == 0:
		return c.config.FallbackType
	case bools > 0 && ints+floats+times == 0:
		return TypeBoolean
	case times > 0 && ints+floats+bools == 0:
		return TypeTimestamp
	case floats == 0 && bools+times == 0:
		return TypeBigInt
	case bools+times == 0:
		return TypeDouble
	default:
		return c.config.FallbackType
	}
}

// BuildMetadata infers the column types of a table about to be written
func (c *TypeConverter) BuildMetadata(name string, t *model.Table) *model.TableMetadata {
	meta := &model.TableMetadata{Table: name, Columns: make([]model.Column, len(t.Columns))}

	values := make([]model.Value, len(t.Rows))
	for j, col := range t.Columns {
		for i, row := range t.Rows {
			values[i] = nil
			if j < len(row) {
				values[i] = row[j]
			}
		}
		meta.Columns[j] = model.Column{
			Name:     col,
			SQLType:  c.InferColumnType(values),
			Nullable: true,
		}
	}

	c.logger.Debug("Inferred table metadata",
		zap.String("table", name),
		zap.Int("columns", len(meta.Columns)))
	return meta
}

// GenerateColumnDefinitions creates column definitions for CREATE TABLE
func (c *TypeConverter) GenerateColumnDefinitions(metadata *model.TableMetadata) []string {
	definitions := make([]string, 0, len(metadata.Columns))

	for _, col := range metadata.Columns {
		sqlType := col.SQLType
		if sqlType == "" {
			sqlType = c.config.FallbackType
		}

		nullability := "NULL"
		if !col.Nullable {
			nullability = "NOT NULL"
		}

		definitions = append(definitions, fmt.Sprintf("%s %s %s",
			QuoteIdentifier(col.Name),
			sqlType,
			nullability))
	}

	return definitions
}

// QuoteIdentifier properly quotes and escapes an SQL identifier
func QuoteIdentifier(name string) string {
	return pq.QuoteIdentifier(name)
}
