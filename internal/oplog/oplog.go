// Package oplog is the append-only operation log that every derived mesh is
// rebuilt from.
package oplog

import (
	"errors"
	"fmt"

	"mesh-seam-merge/internal/fileformat"
	"mesh-seam-merge/internal/mathutil"
	"mesh-seam-merge/internal/seam"
	"mesh-seam-merge/internal/topology"
)

// ErrUnknownKind is returned when decoding an unrecognised record kind.
var ErrUnknownKind = errors.New("oplog: unknown operation kind")

// Kind tags a record.
type Kind int

const (
	Pair Kind = iota
	FaceSplit
	BodySplit
)

var kindNames = map[Kind]string{
	Pair:      "pair",
	FaceSplit: "face-split",
	BodySplit: "body-split",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	s, ok := kindNames[k]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
	}
	return []byte(s), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	for kind, name := range kindNames {
		if name == string(b) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, b)
}

// Record is one logged operation. Pair is set for Pair records and Split for
// the split kinds.
type Record struct {
	Kind  Kind          `json:"kind" toml:"kind" yaml:"kind"`
	Pair  seam.Pair     `json:"pair" toml:"pair" yaml:"pair"`
	Split topology.Edge `json:"split" toml:"split" yaml:"split"`
}

// NewPair returns a Pair record.
func NewPair(p seam.Pair) Record { return Record{Kind: Pair, Pair: p} }

// NewSplit returns a FaceSplit or BodySplit record.
func NewSplit(face bool, e topology.Edge) Record {
	if face {
		return Record{Kind: FaceSplit, Split: e}
	}
	return Record{Kind: BodySplit, Split: e}
}

// Label is the human-readable description shown in operation listings.
func (r Record) Label() string {
	switch r.Kind {
	case FaceSplit:
		return fmt.Sprintf("Face Split %d - %d", r.Split.V1, r.Split.V2)
	case BodySplit:
		return fmt.Sprintf("Body Split %d - %d", r.Split.V1, r.Split.V2)
	case Pair:
		return fmt.Sprintf("Pair Face %d / Body %d", r.Pair.Face, r.Pair.Body)
	}
	return "Unknown"
}

// Log is an ordered list of records.
type Log struct {
	records []Record
}

// New returns a log holding a copy of records.
func New(records ...Record) *Log {
	return &Log{records: append([]Record(nil), records...)}
}

// Len returns the number of records.
func (l *Log) Len() int { return len(l.records) }

// At returns record i.
func (l *Log) At(i int) (Record, bool) {
	if i < 0 || i >= len(l.records) {
		return Record{}, false
	}
	return l.records[i], true
}

// Records returns a copy of all records.
func (l *Log) Records() []Record {
	return append([]Record(nil), l.records...)
}

// Append adds r and returns its index.
func (l *Log) Append(r Record) int {
	l.records = append(l.records, r)
	return len(l.records) - 1
}

// RevertTo drops every record after index i, keeping 0..i. Out-of-range
// indices leave the log unchanged and report false.
func (l *Log) RevertTo(i int) bool {
	if i < 0 || i >= len(l.records) {
		return false
	}
	l.records = l.records[:i+1]
	return true
}

// Clear removes all records.
func (l *Log) Clear() { l.records = nil }

// Remove deletes the records at the given indices. Invalid indices are
// ignored.
func (l *Log) Remove(indices ...int) {
	drop := make(map[int]bool, len(indices))
	for _, i := range indices {
		drop[i] = true
	}
	kept := l.records[:0]
	for i, r := range l.records {
		if !drop[i] {
			kept = append(kept, r)
		}
	}
	l.records = kept
}

// SetPairOffset replaces the offset of the pair record at i.
func (l *Log) SetPairOffset(i int, offset mathutil.Vec3) bool {
	if i < 0 || i >= len(l.records) || l.records[i].Kind != Pair {
		return false
	}
	l.records[i].Pair.Offset = offset
	return true
}

// PairRef is a pair together with the index of the record holding it.
type PairRef struct {
	seam.Pair
	LogIndex int
}

// Pairs returns the pair records in log order.
func (l *Log) Pairs() []PairRef {
	var out []PairRef
	for i, r := range l.records {
		if r.Kind == Pair {
			out = append(out, PairRef{Pair: r.Pair, LogIndex: i})
		}
	}
	return out
}

// FindPair returns the log index of the pair with key k, or -1.
func (l *Log) FindPair(k seam.Key) int {
	for i, r := range l.records {
		if r.Kind == Pair && r.Pair.Key() == k {
			return i
		}
	}
	return -1
}

// Splits returns the edges of the split records of one kind, in log order.
func (l *Log) Splits(kind Kind) []topology.Edge {
	var out []topology.Edge
	for _, r := range l.records {
		if r.Kind == kind {
			out = append(out, r.Split)
		}
	}
	return out
}

type document struct {
	Operations []Record `json:"operations" toml:"operations" yaml:"operations"`
}

// Load reads a log saved with Save. The format follows the file extension.
func Load(path string) (*Log, error) {
	var doc document
	if err := fileformat.ReadFile(path, &doc); err != nil {
		return nil, fmt.Errorf("oplog: %w", err)
	}
	return New(doc.Operations...), nil
}

// Save writes the log to path as JSON, TOML or YAML.
func (l *Log) Save(path string) error {
	if err := fileformat.WriteFile(path, document{Operations: l.records}); err != nil {
		return fmt.Errorf("oplog: %w", err)
	}
	return nil
}
