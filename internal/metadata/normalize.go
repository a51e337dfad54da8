package metadata

import "strings"

var (
	createdCandidates = []string{TagDateTimeOriginal, TagCreateDate, TagModifyDate}
	cameraCandidates  = []string{TagModel, TagUniqueCameraModel}
	lensCandidates    = []string{TagLensModel, TagLensID, TagLensSpec}
)

// Normalize derives canonical metadata from a raw record. Fields without a
// usable value are left out.
func Normalize(facts Facts) Fields {
	var out Fields
	set := func(key, value string) {
		if value != "" {
			out.Set(key, value)
		}
	}

	set(FieldShutterSpeed, ShutterSpeed(facts))
	set(FieldAperture, Aperture(facts))
	set(FieldISO, ISO(facts))
	set(FieldCreatedDateTime, firstText(facts, createdCandidates))
	set(FieldCameraModel, firstText(facts, cameraCandidates))
	set(FieldLensModel, firstText(facts, lensCandidates))

	return out
}

// ShutterSpeed prefers ExposureTime over ShutterSpeedValue.
func ShutterSpeed(facts Facts) string {
	for _, tag := range []string{TagExposureTime, TagShutterSpeedValue} {
		if v := numberOrText(facts.Get(tag)); v != "" {
			return v
		}
	}
	return ""
}

// Aperture prefers FNumber over ApertureValue and renders "f/<n>".
func Aperture(facts Facts) string {
	for _, tag := range []string{TagFNumber, TagApertureValue} {
		fact := facts.Get(tag)
		switch fact.Kind() {
		case Number:
			return "f/" + TrimNumber(fact.Text())
		case String:
			cleaned := strings.TrimSpace(fact.Text())
			if cleaned == "" {
				continue
			}
			if strings.HasPrefix(cleaned, "f/") {
				return cleaned
			}
			return "f/" + cleaned
		case Absent:
			continue
		}
	}
	return ""
}

// ISO renders the ISO tag.
func ISO(facts Facts) string {
	return numberOrText(facts.Get(TagISO))
}

func numberOrText(fact Fact) string {
	switch fact.Kind() {
	case Number:
		return TrimNumber(fact.Text())
	case String:
		return strings.TrimSpace(fact.Text())
	default:
		return ""
	}
}

func firstText(facts Facts, tags []string) string {
	for _, tag := range tags {
		fact := facts.Get(tag)
		switch fact.Kind() {
		case String:
			if v := strings.TrimSpace(fact.Text()); v != "" {
				return v
			}
		case Number, Absent:
		}
	}
	return ""
}

// TrimNumber strips trailing zeros and then a dangling decimal point from a
// number rendered as text. Text without a decimal point is returned as is,
// and so is text that would be trimmed to nothing.
func TrimNumber(text string) string {
	if !strings.Contains(text, ".") {
		return text
	}
	trimmed := strings.TrimRight(text, "0")
	trimmed = strings.TrimSuffix(trimmed, ".")
	if trimmed == "" {
		return text
	}
	return trimmed
}
