// Package classifier assigns a coarse domain label to a text by keyword
// presence. It is total and deterministic: unmatched text is General.
package classifier

import "strings"

// Label is a context label.
type Label string

const (
	Legal     Label = "legal"
	Technical Label = "technical"
	Marketing Label = "marketing"
	General   Label = "general"
)

// wire names used by the HTTP surface.
var wireNames = map[Label]string{
	Legal:     "juridique",
	Technical: "technique",
	Marketing: "marketing",
	General:   "general",
}

// rules are evaluated in order; the first label with a matching keyword wins.
var rules = []struct {
	label    Label
	keywords []string
}{
	{Legal, []string{"contrat", "loi", "clause", "justice", "litige"}},
	{Technical, []string{"moteur", "code", "système", "serveur", "algorithme"}},
	{Marketing, []string{"campagne", "client", "vente", "promotion", "marque"}},
}

// Classify returns the first label whose keyword occurs in text, case-insensitively.
func Classify(text string) Label {
	lower := strings.ToLower(text)
	for _, r := range rules {
		for _, kw := range r.keywords {
			if strings.Contains(lower, kw) {
				return r.label
			}
		}
	}
	return General
}

// Labels returns every label in evaluation order, General last.
func Labels() []Label {
	return []Label{Legal, Technical, Marketing, General}
}

// Wire returns the name used on the wire ("juridique", "technique", ...).
func (l Label) Wire() string {
	if name, ok := wireNames[l]; ok {
		return name
	}
	return wireNames[General]
}

func (l Label) String() string {
	return string(l)
}

// ParseLabel accepts both English and wire names. Unknown names map to General.
func ParseLabel(name string) Label {
	name = strings.ToLower(strings.TrimSpace(name))
	for label, wire := range wireNames {
		if name == string(label) || name == wire {
			return label
		}
	}
	return General
}
