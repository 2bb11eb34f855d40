package part

import (
	"regexp"
	"strings"
)

// Family groups device models for classification and filtering.
type Family string

const (
	FamilyAT90    Family = "at90"
	FamilyATtiny  Family = "attiny"
	FamilyATmega  Family = "atmega"
	FamilyATxmega Family = "atxmega"
	FamilyAVRDxEx Family = "avr_de"
	FamilyOther   Family = "other"
)

// avrDxExRe matches the modern AVR Dx/Ex naming scheme, e.g. AVR64DA48.
var avrDxExRe = regexp.MustCompile(`^AVR\d+[DE][A-Z]\d+`)

// Classify derives the device family from a part description.
func Classify(desc string) Family {
	switch {
	case strings.HasPrefix(desc, "AT90"):
		return FamilyAT90
	case strings.HasPrefix(desc, "ATtiny"):
		return FamilyATtiny
	case strings.HasPrefix(desc, "ATmega"):
		return FamilyATmega
	case strings.HasPrefix(desc, "ATxmega"):
		return FamilyATxmega
	case avrDxExRe.MatchString(desc):
		return FamilyAVRDxEx
	default:
		return FamilyOther
	}
}

// Families lists all families in display order.
func Families() []Family {
	return []Family{
		FamilyAT90, FamilyATtiny, FamilyATmega,
		FamilyATxmega, FamilyAVRDxEx, FamilyOther,
	}
}
