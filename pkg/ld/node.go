package ld

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/matzehuels/annograph/pkg/vocab"
)

// JSON-LD keywords used by the node model.
const (
	keyID       = "@id"
	keyType     = "@type"
	keyValue    = "@value"
	keyLanguage = "@language"
	keyList     = "@list"
	keyGraph    = "@graph"
)

// BlankPrefix starts every blank node identifier.
const BlankPrefix = "_:"

// Node is a typed view of one expanded JSON-LD object: a node object with an
// identifier, types and predicate values, or a value object carrying a
// literal. Props maps full predicate IRIs to their objects in document order;
// list objects are flattened into their items.
type Node struct {
	ID       string
	Types    []string
	Value    any
	Language string
	Props    map[string][]Node

	raw map[string]any
}

// NewNode parses an expanded JSON-LD object.
func NewNode(m map[string]any) Node {
	n := Node{raw: m}
	for k, v := range m {
		switch k {
		case keyID:
			n.ID, _ = v.(string)
		case keyType:
			n.Types = stringList(v)
		case keyValue:
			n.Value = v
		case keyLanguage:
			n.Language, _ = v.(string)
		default:
			if strings.HasPrefix(k, "@") {
				continue
			}
			if n.Props == nil {
				n.Props = make(map[string][]Node)
			}
			n.Props[k] = objects(v)
		}
	}
	return n
}

// FromExpanded converts the output of an expansion into nodes. Top-level
// graph containers are flattened into their member nodes.
func FromExpanded(expanded []any) ([]Node, error) {
	var nodes []Node
	for i, item := range expanded {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expanded item %d: want object, got %T", i, item)
		}
		if g, ok := m[keyGraph]; ok {
			members, err := FromExpanded(asList(g))
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, members...)
			if _, hasID := m[keyID]; !hasID {
				continue
			}
		}
		nodes = append(nodes, NewNode(m))
	}
	return nodes, nil
}

// Select returns the node identified by uri, or the first node when none is.
// It reports false only when nodes is empty.
func Select(nodes []Node, uri string) (Node, bool) {
	if len(nodes) == 0 {
		return Node{}, false
	}
	for _, n := range nodes {
		if n.ID == uri {
			return n, true
		}
	}
	return nodes[0], true
}

// HasID reports whether the node carries an identifier that is not a blank
// node label.
func (n Node) HasID() bool {
	return n.ID != "" && !strings.HasPrefix(n.ID, BlankPrefix)
}

// IsValue reports whether n is a value object.
func (n Node) IsValue() bool {
	_, ok := n.raw[keyValue]
	return ok
}

// HasType reports whether iri is among the node's types.
func (n Node) HasType(iri string) bool {
	return slices.Contains(n.Types, iri)
}

// Objects returns the values of predicate iri.
func (n Node) Objects(iri string) []Node {
	return n.Props[iri]
}

// String returns the literal of a value object, or the node identifier.
func (n Node) String() string {
	if n.IsValue() {
		if s, ok := n.Value.(string); ok {
			return s
		}
		return fmt.Sprint(n.Value)
	}
	return n.ID
}

// Text joins the literals of the node's rdf:value objects with newlines.
func (n Node) Text() string {
	var parts []string
	for _, v := range n.Props[vocab.Value] {
		if v.IsValue() {
			parts = append(parts, v.String())
		}
	}
	return strings.Join(parts, "\n")
}

// Map returns the expanded object the node was parsed from.
func (n Node) Map() map[string]any {
	return n.raw
}

// MarshalJSON encodes the node in its expanded form.
func (n Node) MarshalJSON() ([]byte, error) {
	if n.raw == nil {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}

func objects(v any) []Node {
	var out []Node
	for _, item := range asList(v) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if l, ok := m[keyList]; ok {
			out = append(out, objects(l)...)
			continue
		}
		out = append(out, NewNode(m))
	}
	return out
}

func asList(v any) []any {
	if l, ok := v.([]any); ok {
		return l
	}
	if v == nil {
		return nil
	}
	return []any{v}
}

func stringList(v any) []string {
	var out []string
	for _, item := range asList(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
