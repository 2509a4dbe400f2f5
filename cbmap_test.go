package otterreceiver

import "testing"

var cm *cbmap = &cbmap{
	"optional-string":       "a",
	"optional-int":          42,
	"optional-int-as-float": 13.0,
	"optional-bool":         true,

	"required-string": "b",
	"required-int":    99,
	"required-bool":   true,
}

func Test_getOptionalString_Present(t *testing.T) {
	ps, err := cm.getOptionalString("optional-string")
	if err != nil || ps == nil || *ps != "a" {
		t.Fatalf("getOptionalString")
	}
}

func Test_getOptionalString_NotPresent(t *testing.T) {
	ps, err := cm.getOptionalString("not-present")
	if err != nil || ps != nil {
		t.Fatalf("getOptionalString")
	}
}

func Test_getOptionalString_WrongType(t *testing.T) {
	if _, err := cm.getOptionalString("optional-int"); err == nil {
		t.Fatal("getOptionalString")
	}
}

func Test_getOptionalInt64_Present(t *testing.T) {
	pi, err := cm.getOptionalInt64("optional-int")
	if err != nil || pi == nil || *pi != 42 {
		t.Fatalf("getOptionalInt64")
	}
}

func Test_getOptionalInt64_Present_AsFloat(t *testing.T) {
	pi, err := cm.getOptionalInt64("optional-int-as-float")
	if err != nil || pi == nil || *pi != 13 {
		t.Fatalf("getOptionalInt64")
	}
}

func Test_getOptionalInt64_NotPresent(t *testing.T) {
	pi, err := cm.getOptionalInt64("not-present")
	if err != nil || pi != nil {
		t.Fatalf("getOptionalInt64")
	}
}

func Test_getOptionalBool_Present(t *testing.T) {
	pb, err := cm.getOptionalBool("optional-bool")
	if err != nil || pb == nil || !*pb {
		t.Fatalf("getOptionalBool")
	}
}

func Test_getRequiredString_Present(t *testing.T) {
	s, err := cm.getRequiredString("required-string")
	if err != nil || s != "b" {
		t.Fatalf("getRequiredString")
	}
}

func Test_getRequiredString_NotPresent(t *testing.T) {
	if _, err := cm.getRequiredString("not-present"); err == nil {
		t.Fatal("getRequiredString")
	}
}

func Test_getRequiredInt64_Present(t *testing.T) {
	i, err := cm.getRequiredInt64("required-int")
	if err != nil || i != 99 {
		t.Fatalf("getRequiredInt64")
	}
}

func Test_getRequiredBool_Present(t *testing.T) {
	b, err := cm.getRequiredBool("required-bool")
	if err != nil || !b {
		t.Fatalf("getRequiredBool")
	}
}

func Test_getRequiredBool_WrongType(t *testing.T) {
	if _, err := cm.getRequiredBool("required-string"); err == nil {
		t.Fatal("getRequiredBool")
	}
}
