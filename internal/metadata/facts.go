// Package metadata turns heterogeneous EXIF tag values into the canonical
// string fields stored on catalog records.
package metadata

import (
	"encoding/json"
	"math"
	"strconv"
)

// Tag names as reported by exiftool in JSON mode with -n.
const (
	TagExposureTime      = "ExposureTime"
	TagShutterSpeedValue = "ShutterSpeedValue"
	TagFNumber           = "FNumber"
	TagApertureValue     = "ApertureValue"
	TagISO               = "ISO"
	TagDateTimeOriginal  = "DateTimeOriginal"
	TagCreateDate        = "CreateDate"
	TagModifyDate        = "ModifyDate"
	TagModel             = "Model"
	TagUniqueCameraModel = "UniqueCameraModel"
	TagMake              = "Make"
	TagLensModel         = "LensModel"
	TagLensID            = "LensID"
	TagLensSpec          = "LensSpec"
	TagOrientation       = "Orientation"
)

// Kind discriminates the shape of a raw tag value.
type Kind int

const (
	Absent Kind = iota
	String
	Number
)

func (k Kind) String() string {
	switch k {
	case String:
		return "string"
	case Number:
		return "number"
	default:
		return "absent"
	}
}

// Fact is one raw tag value: a string, a number, or nothing at all.
type Fact struct {
	kind   Kind
	text   string
	number float64
}

// Str returns a string fact.
func Str(s string) Fact {
	return Fact{kind: String, text: s}
}

// Num returns a numeric fact.
func Num(f float64) Fact {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Fact{}
	}
	return Fact{kind: Number, number: f, text: strconv.FormatFloat(f, 'f', -1, 64)}
}

// NumLiteral returns a numeric fact that keeps the literal spelling of the
// number, e.g. "1.50" from a JSON document. Invalid literals are absent.
func NumLiteral(literal string) Fact {
	f, err := strconv.ParseFloat(literal, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Fact{}
	}
	return Fact{kind: Number, number: f, text: literal}
}

// FromValue converts a decoded JSON value into a Fact. Anything that is not
// a string or a number (nil, bool, arrays, objects) is absent.
func FromValue(v any) Fact {
	switch val := v.(type) {
	case string:
		return Str(val)
	case json.Number:
		return NumLiteral(val.String())
	case float64:
		return Num(val)
	case float32:
		return Num(float64(val))
	case int:
		return Num(float64(val))
	case int32:
		return Num(float64(val))
	case int64:
		return Num(float64(val))
	case uint16:
		return Num(float64(val))
	case uint32:
		return Num(float64(val))
	case uint64:
		return Num(float64(val))
	default:
		return Fact{}
	}
}

func (f Fact) Kind() Kind {
	return f.kind
}

// Text is the string value, or the textual rendering of a number.
func (f Fact) Text() string {
	return f.text
}

// Float is the numeric value; zero unless Kind is Number.
func (f Fact) Float() float64 {
	return f.number
}

// Facts is the raw record for one file, keyed by tag name.
type Facts map[string]Fact

// FactsFromFields converts a decoded tag map into Facts.
func FactsFromFields(fields map[string]any) Facts {
	facts := make(Facts, len(fields))
	for name, value := range fields {
		fact := FromValue(value)
		if fact.Kind() == Absent {
			continue
		}
		facts[name] = fact
	}
	return facts
}

// Get returns the fact for name, or an absent fact.
func (f Facts) Get(name string) Fact {
	if f == nil {
		return Fact{}
	}
	return f[name]
}
