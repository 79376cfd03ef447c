package utils

import (
	"reflect"
	"strings"
)

// SetStructProperties copies values from a loosely-typed map (typically
// decoded JSON) onto the matching exported fields of dst, which must be a
// pointer to a struct. Field names match case-insensitively. Numeric
// values convert across int/uint/float kinds; anything incompatible is
// skipped.
func SetStructProperties(values map[string]interface{}, dst interface{}) {
	s := reflect.ValueOf(dst).Elem()
	if s.Kind() != reflect.Struct {
		return
	}

	for name, value := range values {
		f := fieldByNameFold(s, name)
		if !f.IsValid() || !f.CanSet() {
			continue
		}
		setField(f, value)
	}
}

func fieldByNameFold(s reflect.Value, name string) reflect.Value {
	t := s.Type()
	for i := 0; i < t.NumField(); i++ {
		if strings.EqualFold(t.Field(i).Name, name) {
			return s.Field(i)
		}
	}
	return reflect.Value{}
}

func setField(f reflect.Value, value interface{}) {
	switch f.Kind() {
	case reflect.String:
		if v, ok := value.(string); ok {
			f.SetString(v)
		}
	case reflect.Bool:
		if v, ok := value.(bool); ok {
			f.SetBool(v)
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v, ok := toFloat(value); ok {
			f.SetInt(int64(v))
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v, ok := toFloat(value); ok && v >= 0 {
			f.SetUint(uint64(v))
		}
	case reflect.Float32, reflect.Float64:
		if v, ok := toFloat(value); ok {
			f.SetFloat(v)
		}
	}
}

func toFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int8:
		return float64(v), true
	case int16:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint8:
		return float64(v), true
	case uint16:
		return float64(v), true
	case uint32:
		return float64(v), true
	case uint64:
		return float64(v), true
	}
	return 0, false
}
