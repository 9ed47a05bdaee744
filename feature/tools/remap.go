package tools

import (
	"fmt"
	"sort"
	"strings"
)

// RemapMethod names a regridding method.
type RemapMethod string

const (
	RemapBilinear            RemapMethod = "bilinear"
	RemapBicubic             RemapMethod = "bicubic"
	RemapNearestNeighbor     RemapMethod = "nearest_neighbor"
	RemapDistanceWeighted    RemapMethod = "distance_weighted"
	RemapConservative        RemapMethod = "conservative"
	RemapConservative2       RemapMethod = "conservative2"
	RemapLargestAreaFraction RemapMethod = "largest_area_fraction"
)

var cdoRemapOperators = map[RemapMethod]string{
	RemapBilinear:            "remapbil",
	RemapBicubic:             "remapbic",
	RemapNearestNeighbor:     "remapnn",
	RemapDistanceWeighted:    "remapdis",
	RemapConservative:        "remapcon",
	RemapConservative2:       "remapcon2",
	RemapLargestAreaFraction: "remaplaf",
}

// CDOOperator returns the CDO operator implementing the method.
func (m RemapMethod) CDOOperator() (string, error) {
	op, ok := cdoRemapOperators[m]
	if !ok {
		return "", fmt.Errorf("unknown remap method %q, choose one of: %s", string(m), strings.Join(RemapMethods(), ", "))
	}
	return op, nil
}

// ParseRemapMethod validates a configured method name.
func ParseRemapMethod(name string) (RemapMethod, error) {
	m := RemapMethod(strings.ToLower(strings.TrimSpace(name)))
	if _, err := m.CDOOperator(); err != nil {
		return "", err
	}
	return m, nil
}

// RemapMethods lists the known method names, sorted.
func RemapMethods() []string {
	names := make([]string, 0, len(cdoRemapOperators))
	for m := range cdoRemapOperators {
		names = append(names, string(m))
	}
	sort.Strings(names)
	return names
}
