// SPDX-License-Identifier: GPL-3.0-or-later

package click

// astDecl is a parsed `name [:: class] [(args)] [, name ...]` statement,
// see spec.md §4.3 grammar rule `decl`.
type astDecl struct {
	Names []string
	Class string // empty if this name should resolve to an existing declaration
	Args  []string
}

// astPortDecl is one endpoint of a connection chain, see spec.md §4.3
// grammar rule `port_decl`. InIndex/OutIndex of -1 mean "unspecified",
// resolved to 0 when the endpoint is actually used as a connection side.
type astPortDecl struct {
	InIndex  int
	Elem     string
	OutIndex int
}

// astConnection is a chain `p0 -> p1 -> ... -> pn`, desugared by the
// linker into one [Connection] per adjacent pair.
type astConnection struct {
	Ports []astPortDecl
}

// astClassDef is a compound element definition, see spec.md §4.3 grammar
// rule `classdef`. Body is the raw statement list to be expanded at
// every reference, with Params substituted for the `$name` variables
// used inside.
type astClassDef struct {
	Name   string
	Params []string
	Body   *astConfig
}

// astConfig is one parsed configuration document (or compound-element
// body), see spec.md §4.3 grammar rule `config`.
type astConfig struct {
	Decls       []astDecl
	Connections []astConnection
	ClassDefs   []astClassDef
	Requires    []string
}
