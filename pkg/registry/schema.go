package registry

// FieldRegistry describes how an establishment record is laid out for
// display: ordered sections, each with ordered labelled fields.
type FieldRegistry struct {
	Version     string    `json:"version"`
	LastUpdated string    `json:"lastUpdated"`
	Sections    []Section `json:"sections"`
}

type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

// Kind selects how a value is rendered.
type Kind string

const (
	KindText Kind = "text"
	KindFlag Kind = "flag"
)

type Field struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Kind  Kind   `json:"kind"`
}

// View is a rendered record, ready to serialize.
type View struct {
	Sections []SectionView `json:"sections"`
}

type SectionView struct {
	ID     string      `json:"id"`
	Title  string      `json:"title"`
	Fields []FieldView `json:"fields"`
}

type FieldView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value string `json:"value"`
}
