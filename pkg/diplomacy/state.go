package diplomacy

// Standing bounds for faction and NPC-opinion scores. Player traits
// accumulate without bounds.
const (
	MinStanding = -100
	MaxStanding = 100
)

// Tier classifies the player's relationship with a character.
type Tier string

const (
	TierHostile  Tier = "hostile"
	TierCold     Tier = "cold"
	TierNeutral  Tier = "neutral"
	TierFriendly Tier = "friendly"
	TierAlly     Tier = "ally"
)

// GameState is the mutable numeric game state for one playthrough:
// faction standings, player trait scores, per-character opinions, and
// free-form narrative flags. There is exactly one instance per playthrough.
type GameState struct {
	Factions     map[string]int `json:"factions"`
	PlayerTraits map[string]int `json:"player_traits"`
	NPCOpinions  map[string]int `json:"npc_opinions"`
	Flags        map[string]any `json:"flags"`
}

// NewGameState seeds every known faction, trait, and character at zero.
// Flags start empty and are only ever set by effect application.
func NewGameState(factions, traits, characters []string) *GameState {
	gs := &GameState{
		Factions:     make(map[string]int, len(factions)),
		PlayerTraits: make(map[string]int, len(traits)),
		NPCOpinions:  make(map[string]int, len(characters)),
		Flags:        make(map[string]any),
	}
	for _, id := range factions {
		gs.Factions[id] = 0
	}
	for _, id := range traits {
		gs.PlayerTraits[id] = 0
	}
	for _, id := range characters {
		gs.NPCOpinions[id] = 0
	}
	return gs
}

// ApplyEffects mutates the state by the delta. Faction and opinion values
// are clamped into [-100,100] immediately; traits accumulate unbounded;
// flags are overwritten, not merged. Persisted states may unmarshal with
// nil sub-maps, so each map is allocated on first write.
func (gs *GameState) ApplyEffects(delta *EffectDelta) {
	if delta == nil {
		return
	}
	if len(delta.Factions) > 0 && gs.Factions == nil {
		gs.Factions = make(map[string]int)
	}
	for id, d := range delta.Factions {
		gs.Factions[id] = clampStanding(gs.Factions[id] + d)
	}
	if len(delta.PlayerTraits) > 0 && gs.PlayerTraits == nil {
		gs.PlayerTraits = make(map[string]int)
	}
	for id, d := range delta.PlayerTraits {
		gs.PlayerTraits[id] += d
	}
	if len(delta.NPCOpinions) > 0 && gs.NPCOpinions == nil {
		gs.NPCOpinions = make(map[string]int)
	}
	for id, d := range delta.NPCOpinions {
		gs.NPCOpinions[id] = clampStanding(gs.NPCOpinions[id] + d)
	}
	if len(delta.Flags) > 0 && gs.Flags == nil {
		gs.Flags = make(map[string]any)
	}
	for id, v := range delta.Flags {
		gs.Flags[id] = v
	}
}

// RelationshipTier classifies the current opinion of characterID.
func (gs *GameState) RelationshipTier(characterID string) Tier {
	opinion := gs.NPCOpinions[characterID]
	switch {
	case opinion <= -50:
		return TierHostile
	case opinion <= -10:
		return TierCold
	case opinion <= 9:
		return TierNeutral
	case opinion <= 49:
		return TierFriendly
	default:
		return TierAlly
	}
}

// TraitScore returns the current value of a player trait.
func (gs *GameState) TraitScore(name string) int {
	return gs.PlayerTraits[name]
}

// FactionStanding returns the current standing with a faction.
func (gs *GameState) FactionStanding(name string) int {
	return gs.Factions[name]
}

func clampStanding(v int) int {
	if v < MinStanding {
		return MinStanding
	}
	if v > MaxStanding {
		return MaxStanding
	}
	return v
}
