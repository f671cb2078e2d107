package schema

// Kind classifies a form element
type Kind int

const (
	KindField Kind = iota // ordinary input field (text, numeric, date, yes/no, ...)
	KindForm
	KindSection
	KindLabel
	KindRepeatable
	KindChoice
	KindPhoto
	KindAudio
	KindVideo
	KindSignature
	KindRecordLink
)

var kindNames = map[Kind]string{
	KindField:      "field",
	KindForm:       "form",
	KindSection:    "section",
	KindLabel:      "label",
	KindRepeatable: "repeatable",
	KindChoice:     "choice",
	KindPhoto:      "photo",
	KindAudio:      "audio",
	KindVideo:      "video",
	KindSignature:  "signature",
	KindRecordLink: "record_link",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// KindFromType maps a Fulcrum element type string to a Kind.
// Types without special handling are ordinary fields.
func KindFromType(t string) Kind {
	switch t {
	case "Section":
		return KindSection
	case "Label":
		return KindLabel
	case "Repeatable":
		return KindRepeatable
	case "ChoiceField":
		return KindChoice
	case "PhotoField":
		return KindPhoto
	case "AudioField":
		return KindAudio
	case "VideoField":
		return KindVideo
	case "SignatureField":
		return KindSignature
	case "RecordLinkField":
		return KindRecordLink
	default:
		return KindField
	}
}

// Form represents a Fulcrum form schema
type Form struct {
	ID          string
	Name        string
	Root        *Element // element of KindForm holding the top-level elements
	StatusField StatusField
}

// StatusField describes the optional record status field of a form
type StatusField struct {
	Enabled  bool
	DataName string
}

// Element represents one node of the form tree
type Element struct {
	Key             string
	Type            string // raw type string as reported by the API
	Kind            Kind
	DataName        string
	Label           string
	AllowOther      bool // choice fields
	AllowMultiple   bool // record link fields
	GeometryEnabled bool // repeatables and the form root
	Parent          *Element
	Elements        []*Element
}

// IsCosmetic reports whether the element only affects layout
func (e *Element) IsCosmetic() bool {
	return e.Kind == KindSection || e.Kind == KindLabel
}

// IsMultiRecordLink reports whether the element links many records
func (e *Element) IsMultiRecordLink() bool {
	return e.Kind == KindRecordLink && e.AllowMultiple
}

// HasMedia reports whether the element stores photos, audio or video
func (e *Element) HasMedia() bool {
	return e.Kind == KindPhoto || e.Kind == KindAudio || e.Kind == KindVideo
}

// NewForm creates a form whose root holds the given top-level elements.
// Parent links are set for the whole tree.
func NewForm(id, name string, geometryEnabled bool, elements ...*Element) *Form {
	root := &Element{Kind: KindForm, Type: "Form", GeometryEnabled: geometryEnabled, Elements: elements}
	root.Link()
	return &Form{ID: id, Name: name, Root: root}
}

// Link sets the Parent of every descendant to its containing element
func (e *Element) Link() {
	for _, child := range e.Elements {
		child.Parent = e
		child.Link()
	}
}

// AllElements returns every element below the root in depth-first document order
func (f *Form) AllElements() []*Element {
	if f.Root == nil {
		return nil
	}
	var all []*Element
	seen := map[*Element]bool{f.Root: true}
	var walk func(elements []*Element)
	walk = func(elements []*Element) {
		for _, el := range elements {
			if seen[el] {
				continue
			}
			seen[el] = true
			all = append(all, el)
			walk(el.Elements)
		}
	}
	walk(f.Root.Elements)
	return all
}
