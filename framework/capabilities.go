package framework

import "strings"

// Capabilities is a list of strings describing optional behaviors of the application under
// test. The meanings of the strings are defined in the servicedef package.
type Capabilities []string

// Has returns true if the specified string appears in the list.
func (cs Capabilities) Has(name string) bool {
	for _, c := range cs {
		if c == name {
			return true
		}
	}
	return false
}

// Without returns a copy of the list with every occurrence of name removed.
func (cs Capabilities) Without(name string) Capabilities {
	ret := make(Capabilities, 0, len(cs))
	for _, c := range cs {
		if c != name {
			ret = append(ret, c)
		}
	}
	return ret
}

func (cs Capabilities) String() string {
	return strings.Join(cs, ", ")
}
