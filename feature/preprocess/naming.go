package preprocess

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

var memberToken = regexp.MustCompile(`^m(\d+)$`)

// ForecastHour reads the forecast hour from a source file name such as
// cde2017010200.03.m01.grib2, where it is the third component from the end.
// Some archives carry it in the second component instead.
func ForecastHour(name string) (int, error) {
	parts := strings.Split(filepath.Base(name), ".")
	if len(parts) >= 3 {
		if h, err := strconv.Atoi(parts[len(parts)-3]); err == nil {
			return h, nil
		}
	}
	if len(parts) >= 2 {
		if h, err := strconv.Atoi(parts[1]); err == nil {
			return h, nil
		}
	}
	return 0, fmt.Errorf("no forecast hour in %q", name)
}

// Member reads the ensemble member from the last m<NN> component of a source file name.
func Member(name string) (int, error) {
	parts := strings.Split(filepath.Base(name), ".")
	for i := len(parts) - 1; i >= 0; i-- {
		if m := memberToken.FindStringSubmatch(parts[i]); m != nil {
			return strconv.Atoi(m[1])
		}
	}
	return 0, fmt.Errorf("no ensemble member in %q", name)
}

// VariableOf is the variable name of a split file (<shortName>.grib<edition>).
func VariableOf(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i >= 0 {
		return base[:i]
	}
	return base
}

func stem(name string) string {
	base := filepath.Base(name)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
