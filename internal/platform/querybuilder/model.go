package querybuilder

import (
	"fmt"
	"reflect"
	"strings"
)

// InsertModel builds an INSERT for a row struct, taking the column list from
// its `db` tags. Fields without a tag, or tagged "-", stay out of the
// statement; the suffix lands verbatim after the VALUES clause, which is
// where RETURNING goes.
func InsertModel(table string, model any, suffix string) (string, []any, error) {
	cols, vals, err := taggedColumns(model)
	if err != nil {
		return "", nil, err
	}
	return InsertInto(table).
		Columns(cols...).
		Values(vals...).
		Suffix(suffix).
		ToSQL()
}

// taggedColumns walks the struct's exported fields and pairs each db tag with
// the field value. Pointers are followed so both row structs and pointers to
// them work.
func taggedColumns(model any) ([]string, []any, error) {
	value := reflect.ValueOf(model)
	for value.Kind() == reflect.Pointer {
		if value.IsNil() {
			return nil, nil, fmt.Errorf("model cannot be nil")
		}
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, nil, fmt.Errorf("model must be struct")
	}

	typ := value.Type()
	cols := make([]string, 0, typ.NumField())
	vals := make([]any, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		if field.PkgPath != "" {
			continue
		}
		col := dbColumn(field.Tag.Get("db"))
		if col == "" {
			continue
		}
		cols = append(cols, col)
		vals = append(vals, value.Field(i).Interface())
	}

	if len(cols) == 0 {
		return nil, nil, fmt.Errorf("model has no db columns")
	}
	return cols, vals, nil
}

// dbColumn extracts the column name from a db tag, dropping options after the
// first comma. Returns "" for untagged or skipped fields.
func dbColumn(tag string) string {
	col := strings.TrimSpace(strings.Split(strings.TrimSpace(tag), ",")[0])
	if col == "-" {
		return ""
	}
	return col
}
