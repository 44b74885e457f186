package portion

import "strings"

type Portion struct {
	Name string
}

func (p Portion) Code() string {
	return p.Name
}

func (p Portion) Label() string {
	if len(p.Name) == 0 {
		return ""
	}
	return strings.ToUpper(p.Name[:1]) + p.Name[1:]
}

type Enum struct {
	Full Portion
	Half Portion
}

var Portions = Enum{
	Full: Portion{Name: "full"},
	Half: Portion{Name: "half"},
}

var All = []Portion{
	Portions.Full,
	Portions.Half,
}

// ByName returns the portion for a given name, or nil if not found.
// Matching ignores case and surrounding spaces.
func ByName(name string) *Portion {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, p := range All {
		if p.Name == name {
			return &p
		}
	}
	return nil
}

// Normalize maps empty or unknown values to the full portion.
func Normalize(name string) string {
	if p := ByName(name); p != nil {
		return p.Name
	}
	return Portions.Full.Name
}
