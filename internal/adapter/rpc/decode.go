package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"wallet-ledger/internal/core/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	errMissingSuccess = errors.New("missing success flag")
	errMissingData    = errors.New("successful result without data")

	decimalType = reflect.TypeOf(decimal.Decimal{})
	uuidType    = reflect.TypeOf(uuid.UUID{})
	timeType    = reflect.TypeOf(time.Time{})
)

// DecodeResult decodes a ledger response envelope into a typed Result.
// It accepts booleans encoded as JSON booleans, "true"/"false" or 1/0, result
// codes as strings or numbers (errorCode or cod_error), and numbers encoded
// as strings anywhere inside data.
func DecodeResult[T any](body []byte) (domain.Result[T], error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return domain.Result[T]{}, fmt.Errorf("decode envelope: %w", err)
	}

	successRaw, ok := raw["success"]
	if !ok {
		return domain.Result[T]{}, errMissingSuccess
	}
	success, err := flexBool(successRaw)
	if err != nil {
		return domain.Result[T]{}, fmt.Errorf("success: %w", err)
	}

	codeRaw, ok := raw["errorCode"]
	if !ok {
		codeRaw, ok = raw["cod_error"]
	}
	var code string
	if ok {
		if code, err = normalizeCode(codeRaw); err != nil {
			return domain.Result[T]{}, err
		}
	} else if success {
		code = "00"
	} else {
		return domain.Result[T]{}, errors.New("failed result without error code")
	}
	if success != (code == "00") {
		return domain.Result[T]{}, fmt.Errorf("success=%t disagrees with code %s", success, code)
	}

	message, _ := raw["message"].(string)

	if !success {
		return domain.Fail[T](code, message), nil
	}

	dataRaw := raw["data"]
	if dataRaw == nil {
		return domain.Result[T]{}, errMissingData
	}
	var data T
	if err := coerceInto(dataRaw, &data); err != nil {
		return domain.Result[T]{}, fmt.Errorf("data: %w", err)
	}
	return domain.OK(message, &data), nil
}

// coerceInto reshapes v to match the JSON layout of target's type and then
// unmarshals it.
func coerceInto(v any, target any) error {
	shaped, err := coerce(v, reflect.TypeOf(target).Elem())
	if err != nil {
		return err
	}
	b, err := json.Marshal(shaped)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, target)
}

func coerce(v any, t reflect.Type) (any, error) {
	if v == nil {
		return nil, nil
	}
	if t.Kind() == reflect.Ptr {
		return coerce(v, t.Elem())
	}

	switch t {
	case decimalType:
		s, err := numberText(v)
		if err != nil {
			return nil, err
		}
		if _, err := decimal.NewFromString(s); err != nil {
			return nil, fmt.Errorf("not a decimal: %q", s)
		}
		return json.Number(s), nil
	case uuidType, timeType:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string for %s, got %T", t, v)
		}
		return s, nil
	}

	switch t.Kind() {
	case reflect.String:
		switch x := v.(type) {
		case string:
			return x, nil
		case json.Number:
			return x.String(), nil
		case bool:
			return strconv.FormatBool(x), nil
		}
		return nil, fmt.Errorf("expected string, got %T", v)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		s, err := numberText(v)
		if err != nil {
			return nil, err
		}
		if _, err := strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("not an integer: %q", s)
		}
		return json.Number(s), nil
	case reflect.Float32, reflect.Float64:
		s, err := numberText(v)
		if err != nil {
			return nil, err
		}
		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return nil, fmt.Errorf("not a number: %q", s)
		}
		return json.Number(s), nil
	case reflect.Bool:
		return flexBool(v)
	case reflect.Slice:
		items, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", v)
		}
		out := make([]any, len(items))
		for i, item := range items {
			c, err := coerce(item, t.Elem())
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = c
		}
		return out, nil
	case reflect.Struct:
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected object, got %T", v)
		}
		out := make(map[string]any, len(obj))
		for i := 0; i < t.NumField(); i++ {
			field := t.Field(i)
			name := jsonName(field)
			if name == "" {
				continue
			}
			fv, present := obj[name]
			if !present {
				continue
			}
			c, err := coerce(fv, field.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", name, err)
			}
			out[name] = c
		}
		return out, nil
	default:
		return v, nil
	}
}

func jsonName(f reflect.StructField) string {
	if !f.IsExported() {
		return ""
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return ""
	}
	if name := strings.SplitN(tag, ",", 2)[0]; name != "" {
		return name
	}
	return f.Name
}

func numberText(v any) (string, error) {
	switch x := v.(type) {
	case json.Number:
		return x.String(), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return "", errors.New("empty number")
		}
		return s, nil
	}
	return "", fmt.Errorf("expected number, got %T", v)
}

func flexBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(x)) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	case json.Number:
		switch x.String() {
		case "1":
			return true, nil
		case "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("not a boolean: %v", v)
}

// normalizeCode maps the result code onto 00, 400, 401 or 500.
func normalizeCode(v any) (string, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = strings.TrimSpace(x)
	case json.Number:
		s = x.String()
	default:
		return "", fmt.Errorf("error code of type %T", v)
	}
	switch s {
	case "0", "00":
		return "00", nil
	case "400", "404":
		return "400", nil
	case "401":
		return "401", nil
	case "500":
		return "500", nil
	}
	return "", fmt.Errorf("unknown error code %q", s)
}
