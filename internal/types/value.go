package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ValueKind classifies domain values on the application bus.
type ValueKind string

const (
	KindSwitch  ValueKind = "switch"
	KindPercent ValueKind = "percent"
	KindFloat   ValueKind = "float"
	KindString  ValueKind = "string"
)

// Value is a domain value travelling over the application bus.
// String returns the canonical serialized form; the bridge uses it
// for echo-suppression keys, so it must be stable per value.
type Value interface {
	Kind() ValueKind
	String() string
}

type Switch bool

func (s Switch) Kind() ValueKind { return KindSwitch }

func (s Switch) String() string {
	if s {
		return "ON"
	}
	return "OFF"
}

// Percent is a percentage value in the range 0..100
type Percent uint8

func (p Percent) Kind() ValueKind { return KindPercent }

func (p Percent) String() string { return strconv.Itoa(int(p)) }

type Float float64

func (f Float) Kind() ValueKind { return KindFloat }

func (f Float) String() string { return strconv.FormatFloat(float64(f), 'f', -1, 64) }

type String string

func (s String) Kind() ValueKind { return KindString }

func (s String) String() string { return string(s) }

// ParseValue parses the canonical serialized form back into a value.
func ParseValue(kind ValueKind, s string) (Value, error) {
	switch kind {
	case KindSwitch:
		switch strings.ToUpper(s) {
		case "ON":
			return Switch(true), nil
		case "OFF":
			return Switch(false), nil
		}
		return nil, fmt.Errorf("invalid switch value: %q", s)
	case KindPercent:
		v, err := strconv.Atoi(s)
		if err != nil || v < 0 || v > 100 {
			return nil, fmt.Errorf("invalid percent value: %q", s)
		}
		return Percent(v), nil
	case KindFloat:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid float value: %q", s)
		}
		return Float(v), nil
	case KindString:
		return String(s), nil
	}
	return nil, fmt.Errorf("unknown value kind: %q", kind)
}

// KindForDPT maps a KNX datapoint type to the value kind it carries.
// Only the main number is significant ("1.001" and "1.008" are both switches).
func KindForDPT(dpt string) (ValueKind, bool) {
	main, _, _ := strings.Cut(dpt, ".")
	switch main {
	case "1":
		return KindSwitch, true
	case "5":
		return KindPercent, true
	case "9":
		return KindFloat, true
	case "16":
		return KindString, true
	}
	return "", false
}
