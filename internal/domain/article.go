package domain

// Article is one parsed feed entry as a flat field-name to value mapping.
// After identity resolution it always carries the "id" and "idHash" fields.
// Immutable for the lifetime of one feed cycle.
type Article map[string]string

// Well-known article fields.
const (
	FieldID      = "id"
	FieldIDHash  = "idHash"
	FieldGUID    = "guid"
	FieldTitle   = "title"
	FieldPubDate = "pubdate"
	FieldLink    = "link"
)

// Field returns the value for name, or the empty string if the field
// is absent. Missing and empty fields are indistinguishable on purpose.
func (a Article) Field(name string) string {
	return a[name]
}

func (a Article) ID() string {
	return a[FieldID]
}

func (a Article) IDHash() string {
	return a[FieldIDHash]
}
