package assemble

import "encoding/xml"

// Selections is the root of a produced selections document: one
// Selection per interface actually reached by the solve, in
// lexicographic interface order; an interface whose chosen
// implementation requires compilation gets a second Selection for its
// source implementation right after it. Command is empty unless the root
// requirement named one.
type Selections struct {
	XMLName    xml.Name     `xml:"selections"`
	Interface  string       `xml:"interface,attr"`
	Command    string       `xml:"command,attr,omitempty"`
	Selections []*Selection `xml:"selection"`
}

// Selection is a single participating interface's chosen
// implementation: its (dynamic) attribute set, encoded via Attrs since
// the attribute names are only known at assembly time, followed by the
// raw XML fragments copied verbatim from its commands, bindings,
// dependencies, and manifest digest. InnerXML is pre-serialized and
// written byte-for-byte; encoding/xml never re-escapes a field tagged
// ",innerxml".
type Selection struct {
	XMLName   xml.Name   `xml:"selection"`
	Interface string     `xml:"interface,attr"`
	Attrs     []xml.Attr `xml:",any,attr"`
	InnerXML  []byte     `xml:",innerxml"`
}
