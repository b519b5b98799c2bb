package enums

import "fmt"

// Scenario identifies one of the three payment presentations a devis can be
// sold under.
type Scenario string

const (
	ScenarioDirect             Scenario = "direct"
	ScenarioLocationSansApport Scenario = "location_sans_apport"
	ScenarioLocationAvecApport Scenario = "location_avec_apport"
)

var validScenarios = []Scenario{
	ScenarioDirect,
	ScenarioLocationSansApport,
	ScenarioLocationAvecApport,
}

// String implements fmt.Stringer.
func (s Scenario) String() string {
	return string(s)
}

// IsValid reports whether the value is a known Scenario.
func (s Scenario) IsValid() bool {
	for _, candidate := range validScenarios {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseScenario converts raw input into a Scenario.
func ParseScenario(value string) (Scenario, error) {
	for _, candidate := range validScenarios {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown scenario %q", value)
}
