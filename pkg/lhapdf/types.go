package lhapdf

import (
	"fmt"
	"sort"
)

// Info is the set-level metadata stored in <set>/<set>.info.
type Info struct {
	SetDesc     string  `yaml:"SetDesc"`
	SetIndex    int     `yaml:"SetIndex"`
	Authors     string  `yaml:"Authors"`
	Reference   string  `yaml:"Reference"`
	Format      string  `yaml:"Format"`
	DataVersion int     `yaml:"DataVersion"`
	NumMembers  int     `yaml:"NumMembers"`
	Particle    int     `yaml:"Particle"`
	Flavors     []int   `yaml:"Flavors"`
	OrderQCD    int     `yaml:"OrderQCD"`
	ErrorType   string  `yaml:"ErrorType"`
	XMin        float64 `yaml:"XMin"`
	XMax        float64 `yaml:"XMax"`
	QMin        float64 `yaml:"QMin"`
	QMax        float64 `yaml:"QMax"`
}

// Metadata is a flat key/value view of an info file or member header.
type Metadata map[string]interface{}

// Entry returns the value of key rendered as a string.
func (m Metadata) Entry(key string) (string, bool) {
	v, ok := m[key]
	if !ok {
		return "", false
	}
	return fmt.Sprint(v), true
}

// Keys returns the metadata keys in sorted order.
func (m Metadata) Keys() []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// PDFSet is an opened set.
type PDFSet struct {
	name string
	info Info
	meta Metadata
}

// NewPDFSetValue builds a PDFSet from already parsed metadata.
func NewPDFSetValue(name string, info Info, meta Metadata) *PDFSet {
	if meta == nil {
		meta = Metadata{}
	}
	return &PDFSet{name: name, info: info, meta: meta}
}

func (s *PDFSet) Name() string { return s.name }
func (s *PDFSet) Info() Info { return s.info }
func (s *PDFSet) Size() int { return s.info.NumMembers }
func (s *PDFSet) ErrorType() string { return s.info.ErrorType }
func (s *PDFSet) Description() string {
	return s.info.SetDesc
}

// LHAPDFID is the numeric ID of member 0.
func (s *PDFSet) LHAPDFID() int { return s.info.SetIndex }

// Entry looks up a raw info file key.
func (s *PDFSet) Entry(key string) (string, bool) { return s.meta.Entry(key) }

// Metadata returns the raw info file content.
func (s *PDFSet) Metadata() Metadata { return s.meta }

// PDF is one opened member of a set.
type PDF struct {
	set    *PDFSet
	member int
	header Metadata
}

// NewPDFValue builds a PDF from its set and the parsed member header.
func NewPDFValue(set *PDFSet, member int, header Metadata) *PDF {
	if header == nil {
		header = Metadata{}
	}
	return &PDF{set: set, member: member, header: header}
}

func (p *PDF) Set() *PDFSet { return p.set }
func (p *PDF) SetName() string { return p.set.name }
func (p *PDF) Member() int { return p.member }

// LHAPDFID is the set index plus the member number.
func (p *PDF) LHAPDFID() int { return p.set.info.SetIndex + p.member }

// Type is the member's PdfType header, e.g. "central" or "replica".
func (p *PDF) Type() string {
	v, _ := p.header.Entry("PdfType")
	return v
}

// Entry looks a key up in the member header first and the set info second.
func (p *PDF) Entry(key string) (string, bool) {
	if v, ok := p.header.Entry(key); ok {
		return v, true
	}
	return p.set.Entry(key)
}

// Flavors returns the parton IDs covered by the set.
func (p *PDF) Flavors() []int {
	out := make([]int, len(p.set.info.Flavors))
	copy(out, p.set.info.Flavors)
	return out
}

func (p *PDF) XMin() float64 { return p.set.info.XMin }
func (p *PDF) XMax() float64 { return p.set.info.XMax }

func (p *PDF) String() string {
	return fmt.Sprintf("%s/%d (LHAID %d)", p.set.name, p.member, p.LHAPDFID())
}
