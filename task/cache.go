package task

import (
	"io"

	"github.com/fxamacker/cbor/v2"
)

// TaskSummary is the part of a discovered Task worth persisting across
// CLI invocations: everything a caller needs to report what changed
// between two compiles without re-lowering a file that did not change.
type TaskSummary struct {
	Name      string `cbor:"name"`
	Index     int    `cbor:"index"`
	NumSteps  int    `cbor:"steps"`
	NumGlobal int    `cbor:"globals"`
}

// RegistrySummary is the on-disk shape of a Registry's ".tcpoc-cache"
// sidecar: name, index and step/global counts for every task
// discovered in one compile, so a later compile of a changed file can
// report which tasks are new or removed (Diff compares names only;
// the counts are stored but not compared).
type RegistrySummary struct {
	Tasks []TaskSummary `cbor:"tasks"`
}

// Summary extracts the cacheable view of r.
func (r *Registry) Summary() RegistrySummary {
	s := RegistrySummary{Tasks: make([]TaskSummary, len(r.tasks))}
	for i, t := range r.tasks {
		s.Tasks[i] = TaskSummary{
			Name:      t.Name,
			Index:     t.Index,
			NumSteps:  len(t.steps),
			NumGlobal: len(t.globals),
		}
	}
	return s
}

// WriteCache CBOR-encodes s to w.
func WriteCache(w io.Writer, s RegistrySummary) error {
	enc := cbor.NewEncoder(w)
	return enc.Encode(s)
}

// ReadCache decodes a RegistrySummary previously written by WriteCache.
func ReadCache(r io.Reader) (RegistrySummary, error) {
	var s RegistrySummary
	dec := cbor.NewDecoder(r)
	err := dec.Decode(&s)
	return s, err
}

// Diff reports, against a previously cached summary, which task names
// are newly discovered and which previously-cached names are gone —
// the information cmd/tcpoc logs after each compile.
func (s RegistrySummary) Diff(prev RegistrySummary) (added, removed []string) {
	have := make(map[string]bool, len(s.Tasks))
	for _, t := range s.Tasks {
		have[t.Name] = true
	}
	had := make(map[string]bool, len(prev.Tasks))
	for _, t := range prev.Tasks {
		had[t.Name] = true
		if !have[t.Name] {
			removed = append(removed, t.Name)
		}
	}
	for _, t := range s.Tasks {
		if !had[t.Name] {
			added = append(added, t.Name)
		}
	}
	return added, removed
}
