package vocab

// Namespace IRIs of the vocabularies annograph understands.
const (
	OA   = "http://www.w3.org/ns/oa#"
	MAO  = "https://domestic-beethoven.eu/ontology/1.0/music-annotation-ontology.ttl#"
	FRBR = "http://purl.org/vocab/frbr/core#"
	DC   = "http://purl.org/dc/terms/"
	RDFS = "http://www.w3.org/2000/01/rdf-schema#"
	RDF  = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	MO   = "http://purl.org/ontology/mo/"
	TL   = "http://purl.org/NET/c4dm/timeline.owl#"
	SSV  = "https://w3id.org/ssv/0.9/data/vocab#"
)

// Class IRIs.
const (
	Annotation      = OA + "Annotation"
	TextualBody     = OA + "TextualBody"
	MusicalIdea     = MAO + "MusicalIdea"
	MusicalMaterial = MAO + "MusicalMaterial"
	Extract         = MAO + "Extract"
	Selection       = MAO + "Selection"
)

// Predicate IRIs.
const (
	HasTarget   = OA + "hasTarget"
	HasBody     = OA + "hasBody"
	Setting     = MAO + "setting"
	SettingOf   = MAO + "settingOf"
	Embodiment  = FRBR + "embodiment"
	Realization = FRBR + "realization"
	Part        = FRBR + "part"
	Value       = RDF + "value"
	Label       = RDFS + "label"
)

// Type is the closed set of declared document types the engine acts on.
type Type int

const (
	TypeUnknown Type = iota
	TypeAnnotation
	TypeMusicalMaterial
	TypeExtract
	TypeSelection
)

var typeIRIs = map[Type]string{
	TypeAnnotation:      Annotation,
	TypeMusicalMaterial: MusicalMaterial,
	TypeExtract:         Extract,
	TypeSelection:       Selection,
}

var iriTypes = func() map[string]Type {
	m := make(map[string]Type, len(typeIRIs))
	for t, iri := range typeIRIs {
		m[iri] = t
	}
	return m
}()

// ParseType maps a class IRI to its Type, or TypeUnknown.
func ParseType(iri string) Type {
	return iriTypes[iri]
}

// IRI returns the class IRI of t, or "" for TypeUnknown.
func (t Type) IRI() string { return typeIRIs[t] }

func (t Type) String() string {
	switch t {
	case TypeAnnotation:
		return "Annotation"
	case TypeMusicalMaterial:
		return "MusicalMaterial"
	case TypeExtract:
		return "Extract"
	case TypeSelection:
		return "Selection"
	default:
		return "Unknown"
	}
}

// TraversalPredicates lists, per declared type, the outbound predicates
// whose objects are eligible for traversal.
var TraversalPredicates = map[Type][]string{
	TypeAnnotation:      {HasTarget},
	TypeMusicalMaterial: {Setting},
	TypeExtract:         {Embodiment},
	TypeSelection:       {Part},
}

// PredicatesFor returns the traversal predicates of t. The second result is
// false when t has no entry in [TraversalPredicates].
func PredicatesFor(t Type) ([]string, bool) {
	p, ok := TraversalPredicates[t]
	return p, ok
}

// DisplayPredicates are drawn as edges when exporting the discovered graph.
var DisplayPredicates = []string{
	HasTarget,
	HasBody,
	Setting,
	SettingOf,
	Embodiment,
	Realization,
	Part,
}
