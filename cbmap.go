package otterreceiver

import "fmt"

// cbmap decodes one line of the replay harness's JSON wire format into a
// generic map, validated field by field as each is read. This typedef
// only exists to keep the awkward Go map syntax out of the call sites.
type cbmap map[string]interface{}

// Optional keys return a pointer to the value so a missing key reads as a
// nil pointer rather than an overloaded zero value. A key present with
// the wrong type is still an error, since the wire format is fixed, not
// freeform.
//
// All variants follow these rules:
//
//	Returns (p, nil) when successful.
//	Returns (nil, nil) if not present.
//	Returns (nil, err) if the value in the map is of a different type.
func (cm *cbmap) getOptionalString(key string) (*string, error) {
	v, ok := (*cm)[key]
	if !ok {
		return nil, nil
	}
	switch v := v.(type) {
	case string:
		s := v
		return &s, nil
	default:
		return nil, fmt.Errorf("optional key '%s' does not have string value", key)
	}
}

func (cm *cbmap) getOptionalInt64(key string) (*int64, error) {
	v, ok := (*cm)[key]
	if !ok {
		return nil, nil
	}
	// float64 because encoding/json always decodes numbers as float64
	// absent a struct with explicit integer fields.
	switch v := v.(type) {
	case int64:
		i := v
		return &i, nil
	case int:
		i := int64(v)
		return &i, nil
	case float64:
		i := int64(v)
		return &i, nil
	default:
		return nil, fmt.Errorf("key '%s' does not have an integer value", key)
	}
}

func (cm *cbmap) getOptionalBool(key string) (*bool, error) {
	v, ok := (*cm)[key]
	if !ok {
		return nil, nil
	}
	switch v := v.(type) {
	case bool:
		b := v
		return &b, nil
	default:
		return nil, fmt.Errorf("optional key '%s' does not have bool value", key)
	}
}

// Required keys return a hard error if the key is missing or the wrong
// type.
//
//	Returns (v, nil) when successful.
//	Returns (_, err) if not present or the value type is wrong.
func (cm *cbmap) getRequired(key string) (interface{}, error) {
	v, ok := (*cm)[key]
	if !ok {
		return nil, fmt.Errorf("key '%s' not present in replay event", key)
	}
	return v, nil
}

func (cm *cbmap) getRequiredString(key string) (string, error) {
	v, err := cm.getRequired(key)
	if err != nil {
		return "", err
	}
	switch v := v.(type) {
	case string:
		return v, nil
	default:
		return "", fmt.Errorf("key '%s' does not have string value", key)
	}
}

func (cm *cbmap) getRequiredInt64(key string) (int64, error) {
	v, err := cm.getRequired(key)
	if err != nil {
		return 0, err
	}
	switch v := v.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, fmt.Errorf("key '%s' does not have an integer value", key)
	}
}

func (cm *cbmap) getRequiredBool(key string) (bool, error) {
	v, err := cm.getRequired(key)
	if err != nil {
		return false, err
	}
	switch v := v.(type) {
	case bool:
		return v, nil
	default:
		return false, fmt.Errorf("key '%s' does not have bool value", key)
	}
}
