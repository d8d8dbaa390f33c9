// Package accessor decides how a class slot is exposed through its reader and
// writer methods.
package accessor

import "github.com/phobologic/docmeta/internal/model"

// Role is the part a method plays for a slot.
type Role string

const (
	Reader   Role = "reader"
	Writer   Role = "writer"
	Accessor Role = "accessor"
)

// Entry pairs a role with the method name that fills it.
type Entry struct {
	Role Role   `json:"role" yaml:"role"`
	Name string `json:"name" yaml:"name"`
}

// Relationship holds at most two entries. When an Accessor entry is present
// it is the only entry.
type Relationship []Entry

// Has reports whether r contains an entry for role.
func (r Relationship) Has(role Role) bool {
	for _, e := range r {
		if e.Role == role {
			return true
		}
	}
	return false
}

// Name returns the method name recorded for role, or "".
func (r Relationship) Name(role Role) string {
	for _, e := range r {
		if e.Role == role {
			return e.Name
		}
	}
	return ""
}

// Classify folds a reader and a writer candidate into a relationship. The
// zero MethodName means the candidate is absent. A writer that is the setter
// of the reader collapses the pair into a single Accessor entry.
func Classify(reader, writer model.MethodName) Relationship {
	switch {
	case reader.IsZero() && writer.IsZero():
		return Relationship{}
	case writer.IsZero():
		return Relationship{{Role: Reader, Name: reader.Text}}
	case reader.IsZero():
		return Relationship{{Role: Writer, Name: writer.Text}}
	case writer.Target != "" && writer.Target == reader.Text:
		return Relationship{{Role: Accessor, Name: reader.Text}}
	default:
		return Relationship{
			{Role: Reader, Name: reader.Text},
			{Role: Writer, Name: writer.Text},
		}
	}
}

// Discover picks the reader and writer candidates for one slot of one class.
// The first method of each kind in methods wins; a pick that exported
// rejects is nulled rather than replaced. A nil exported accepts everything.
func Discover(methods []model.SlotMethod, class, slot string, exported func(model.SlotMethod) bool) (reader, writer model.MethodName) {
	var readerFound, writerFound bool
	for _, m := range methods {
		if m.Class != class || m.Slot != slot {
			continue
		}
		switch m.Kind {
		case model.Reader:
			if readerFound {
				continue
			}
			readerFound = true
			if exported == nil || exported(m) {
				reader = m.Name
			}
		case model.Writer:
			if writerFound {
				continue
			}
			writerFound = true
			if exported == nil || exported(m) {
				writer = m.Name
			}
		}
	}
	return reader, writer
}

// ForSlot discovers the candidates for (class, slot) and classifies them.
func ForSlot(methods []model.SlotMethod, class, slot string, exported func(model.SlotMethod) bool) Relationship {
	return Classify(Discover(methods, class, slot, exported))
}
