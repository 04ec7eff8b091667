package diplomacy

// EffectDelta is a transient set of pending mutations mirroring GameState's
// shape. All four sub-maps are always present, possibly empty; a delta is
// produced by a rule lookup, applied to the state once, then discarded.
type EffectDelta struct {
	Factions     map[string]int `json:"factions,omitempty"`
	PlayerTraits map[string]int `json:"player_traits,omitempty"`
	NPCOpinions  map[string]int `json:"npc_opinions,omitempty"`
	Flags        map[string]any `json:"flags,omitempty"`
}

// NewEffectDelta returns an empty delta with all sub-maps allocated.
func NewEffectDelta() *EffectDelta {
	return &EffectDelta{
		Factions:     make(map[string]int),
		PlayerTraits: make(map[string]int),
		NPCOpinions:  make(map[string]int),
		Flags:        make(map[string]any),
	}
}

// normalized ensures all sub-maps are non-nil. Content-authored deltas may
// omit sub-maps entirely.
func (d *EffectDelta) normalized() *EffectDelta {
	if d == nil {
		return NewEffectDelta()
	}
	if d.Factions == nil {
		d.Factions = make(map[string]int)
	}
	if d.PlayerTraits == nil {
		d.PlayerTraits = make(map[string]int)
	}
	if d.NPCOpinions == nil {
		d.NPCOpinions = make(map[string]int)
	}
	if d.Flags == nil {
		d.Flags = make(map[string]any)
	}
	return d
}

// Clone deep-copies the delta. Rule lookups return clones so the guard can
// soften a delta without mutating cached content tables.
func (d *EffectDelta) Clone() *EffectDelta {
	if d == nil {
		return NewEffectDelta()
	}
	out := NewEffectDelta()
	for k, v := range d.Factions {
		out.Factions[k] = v
	}
	for k, v := range d.PlayerTraits {
		out.PlayerTraits[k] = v
	}
	for k, v := range d.NPCOpinions {
		out.NPCOpinions[k] = v
	}
	for k, v := range d.Flags {
		out.Flags[k] = v
	}
	return out
}

// IsEmpty reports whether the delta carries no mutations at all.
func (d *EffectDelta) IsEmpty() bool {
	return d == nil || (len(d.Factions) == 0 &&
		len(d.PlayerTraits) == 0 &&
		len(d.NPCOpinions) == 0 &&
		len(d.Flags) == 0)
}
