// Package regions maps Brazilian state codes (UF) to their geographic
// region. The mapping is fixed: every valid state belongs to exactly one of
// the five regions, and an unknown state is an error, never a default.
package regions

import (
	"fmt"
	"sort"
	"strings"
)

const (
	Norte       = "Norte"
	Nordeste    = "Nordeste"
	CentroOeste = "Centro-Oeste"
	Sudeste     = "Sudeste"
	Sul         = "Sul"
)

// All lists the valid region names.
var All = []string{Norte, Nordeste, CentroOeste, Sudeste, Sul}

var stateToRegion = map[string]string{
	// Norte
	"AC": Norte, "AP": Norte, "AM": Norte, "PA": Norte,
	"RO": Norte, "RR": Norte, "TO": Norte,
	// Nordeste
	"AL": Nordeste, "BA": Nordeste, "CE": Nordeste, "MA": Nordeste,
	"PB": Nordeste, "PE": Nordeste, "PI": Nordeste, "RN": Nordeste,
	"SE": Nordeste,
	// Centro-Oeste
	"DF": CentroOeste, "GO": CentroOeste, "MT": CentroOeste, "MS": CentroOeste,
	// Sudeste
	"ES": Sudeste, "MG": Sudeste, "RJ": Sudeste, "SP": Sudeste,
	// Sul
	"PR": Sul, "RS": Sul, "SC": Sul,
}

// ErrUnknownState reports a state code outside the fixed table. It signals
// bad reference data, not a runtime condition callers should retry.
type ErrUnknownState struct {
	State string
}

func (e *ErrUnknownState) Error() string {
	return fmt.Sprintf("unknown state code %q", e.State)
}

// ByState returns the region of a state code. The lookup is
// case-insensitive on the state code.
func ByState(state string) (string, error) {
	region, ok := stateToRegion[strings.ToUpper(state)]
	if !ok {
		return "", &ErrUnknownState{State: state}
	}
	return region, nil
}

// IsValidState reports whether the code is one of the 27 known states.
func IsValidState(state string) bool {
	_, ok := stateToRegion[strings.ToUpper(state)]
	return ok
}

// IsValid reports whether name is a valid region name. Region names are
// case-sensitive; targeting data stores them verbatim.
func IsValid(name string) bool {
	for _, r := range All {
		if r == name {
			return true
		}
	}
	return false
}

// StatesByRegion returns the state codes belonging to a region, sorted.
func StatesByRegion(region string) []string {
	var states []string
	for state, r := range stateToRegion {
		if r == region {
			states = append(states, state)
		}
	}
	sort.Strings(states)
	return states
}
