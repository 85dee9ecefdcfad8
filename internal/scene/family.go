package scene

import (
	"fmt"
	"strings"
)

// Family groups missions that share a processing pipeline generation.
type Family int

const (
	FamilyUnknown Family = iota
	FamilyL47            // Landsat 4, 5 and 7 (TM / ETM+)
	FamilyL8             // Landsat 8 and 9 (OLI / TIRS)
)

// Families lists the known families in output order.
var Families = []Family{FamilyL47, FamilyL8}

// FamilyForMission maps a mission number to its family.
func FamilyForMission(mission int) Family {
	switch {
	case mission >= 8:
		return FamilyL8
	case mission >= 1:
		return FamilyL47
	}
	return FamilyUnknown
}

func (f Family) String() string {
	switch f {
	case FamilyL47:
		return "L47"
	case FamilyL8:
		return "L8"
	}
	return "unknown"
}

// ParseFamily accepts the short family names and bare mission numbers.
func ParseFamily(s string) (Family, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L47", "L4", "L5", "L7", "4", "5", "7":
		return FamilyL47, nil
	case "L8", "L9", "8", "9":
		return FamilyL8, nil
	}
	return FamilyUnknown, fmt.Errorf("unknown sensor family %q", s)
}

// Level is the degree of geometric correction of a Level-1 product.
type Level int

const (
	LevelUnknown Level = iota
	LevelL1TP          // precision and terrain corrected
	LevelL1GT          // systematic terrain corrected
	LevelL1GS          // systematic only
)

func (l Level) String() string {
	switch l {
	case LevelL1TP:
		return "L1TP"
	case LevelL1GT:
		return "L1GT"
	case LevelL1GS:
		return "L1GS"
	}
	return ""
}

// ParseLevel decodes a processing level, including pre-collection aliases.
func ParseLevel(s string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L1TP", "L1T":
		return LevelL1TP, nil
	case "L1GT":
		return LevelL1GT, nil
	case "L1GS", "L1G":
		return LevelL1GS, nil
	}
	return LevelUnknown, fmt.Errorf("unknown processing level %q", s)
}
