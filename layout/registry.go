package layout

import (
	"sort"
	"strconv"
)

// Registry is the ordered, immutable table of playable notes.
// Notes are sorted ascending by pitch number and each pitch number
// appears at most once.
type Registry struct {
	notes []Note

	// Lookup indices for the three ways a configuration file may identify
	// a note: display key ("C#4"), the layout's opaque idx, and the pitch
	// number written as a decimal string.
	byDisplay map[string]*Note
	byIdx     map[string]*Note
	byPitch   map[string]*Note
}

// NewRegistry derives the full note table from raw layout entries.
// Entries with an unrecognized pitch name are skipped, and a later entry
// for an already-seen pitch number replaces nothing (the first one wins).
func NewRegistry(entries []NoteEntry) *Registry {
	seen := make(map[int]bool, len(entries))
	notes := make([]Note, 0, len(entries))
	for _, e := range entries {
		pitch, ok := PitchNumber(e.Name, e.Octave)
		if !ok || seen[pitch] {
			continue
		}
		seen[pitch] = true
		notes = append(notes, Note{
			Name:     e.Name,
			Octave:   e.Octave,
			Ring:     e.Ring,
			Idx:      e.Idx,
			Pitch:    pitch,
			Freq:     Frequency(pitch),
			Filename: Filename(pitch),
		})
	}
	sort.Slice(notes, func(i, j int) bool { return notes[i].Pitch < notes[j].Pitch })

	r := &Registry{
		notes:     notes,
		byDisplay: make(map[string]*Note, len(notes)),
		byIdx:     make(map[string]*Note, len(notes)),
		byPitch:   make(map[string]*Note, len(notes)),
	}
	for i := range r.notes {
		n := &r.notes[i]
		r.byDisplay[n.Display()] = n
		if n.Idx != "" {
			r.byIdx[n.Idx] = n
		}
		r.byPitch[strconv.Itoa(n.Pitch)] = n
	}
	return r
}

// Notes returns the notes in ascending pitch order.
// The returned slice is shared; callers must not modify it.
func (r *Registry) Notes() []Note { return r.notes }

// Len returns the number of playable notes.
func (r *Registry) Len() int { return len(r.notes) }

// Find resolves a note identifier from a configuration file.
// Identifiers are tried as a display key first, then as a layout idx,
// then as a pitch number, so layout authors may use any of the three.
// It returns nil when nothing matches.
func (r *Registry) Find(id string) *Note {
	if n := r.byDisplay[id]; n != nil {
		return n
	}
	if n := r.byIdx[id]; n != nil {
		return n
	}
	return r.byPitch[id]
}

// ByPitch returns the note with the given pitch number, or nil.
func (r *Registry) ByPitch(pitch int) *Note {
	return r.byPitch[strconv.Itoa(pitch)]
}
