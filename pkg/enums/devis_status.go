package enums

import "fmt"

// DevisStatus tracks the signing lifecycle of a devis. Values are persisted
// as the French labels the business uses on documents.
type DevisStatus string

const (
	DevisStatusBrouillon DevisStatus = "Brouillon"
	DevisStatusEnvoye    DevisStatus = "Envoyé"
	DevisStatusEnAttente DevisStatus = "En attente de signature"
	DevisStatusSigne     DevisStatus = "Signé"
	DevisStatusRefuse    DevisStatus = "Refusé"
	DevisStatusAnnule    DevisStatus = "Annulé"
)

var validDevisStatuses = []DevisStatus{
	DevisStatusBrouillon,
	DevisStatusEnvoye,
	DevisStatusEnAttente,
	DevisStatusSigne,
	DevisStatusRefuse,
	DevisStatusAnnule,
}

// String implements fmt.Stringer.
func (s DevisStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known DevisStatus.
func (s DevisStatus) IsValid() bool {
	for _, candidate := range validDevisStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the signing workflow can still move the devis.
// Signed, declined, and voided devis never transition again.
func (s DevisStatus) IsTerminal() bool {
	switch s {
	case DevisStatusSigne, DevisStatusRefuse, DevisStatusAnnule:
		return true
	}
	return false
}

// ParseDevisStatus converts raw input into a DevisStatus.
func ParseDevisStatus(value string) (DevisStatus, error) {
	for _, candidate := range validDevisStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("unknown devis status %q", value)
}
