package scene

import (
	"fmt"
	"strings"
	"time"
)

// ParseProductName recovers the scene prefix from the basename of a locally
// held artifact. Three layouts are recognised:
//
//	LC82070232018093LGN00_ref_ITM.dat             legacy scene id
//	LC08_L1TP_207023_20180403_20180417_01_T1...   collection product id
//	LC082070232018040301T1-SC20180501121212...    ESPA order name
func ParseProductName(name string) (ID, error) {
	if len(name) >= PrefixLen {
		if id, err := Parse(name[:PrefixLen]); err == nil {
			return id, nil
		}
	}

	if parts := strings.Split(name, "_"); len(parts) >= 4 && len(parts[0]) == 4 {
		return fromProduct(name, parts[0], parts[2], parts[3])
	}

	if i := strings.IndexByte(name, '-'); i >= 18 {
		return fromProduct(name, name[0:4], name[4:10], name[10:18])
	}

	return ID{}, &ParseError{Input: name, Field: "name", Reason: "not a scene or product name"}
}

func fromProduct(name, sensor, pathRow, date string) (ID, error) {
	if len(sensor) != 4 || sensor[2] != '0' {
		return ID{}, &ParseError{Input: name, Field: "sensor", Reason: fmt.Sprintf("%q is not a product sensor code", sensor)}
	}
	if len(pathRow) != 6 {
		return ID{}, &ParseError{Input: name, Field: "path/row", Reason: fmt.Sprintf("%q is not PPPRRR", pathRow)}
	}
	t, err := time.Parse("20060102", date)
	if err != nil {
		return ID{}, &ParseError{Input: name, Field: "date", Reason: fmt.Sprintf("%q is not YYYYMMDD", date)}
	}
	prefix := fmt.Sprintf("%s%c%s%s", sensor[:2], sensor[3], pathRow, DateKeyOf(t))
	id, err := Parse(prefix)
	if err != nil {
		return ID{}, &ParseError{Input: name, Field: "name", Reason: err.Error()}
	}
	return id, nil
}
