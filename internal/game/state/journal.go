package state

// JournalEntry is a structured record of one mutation.
type JournalEntry struct {
	Seq       int      `json:"seq"`
	Turn      int      `json:"turn"`
	Actor     string   `json:"actor"`
	Action    string   `json:"action"`
	Entities  []string `json:"entities,omitempty"`
	Requested int      `json:"requested"`
	Applied   int      `json:"applied"`
	Detail    string   `json:"detail,omitempty"`
}

// Log appends a journal entry and returns it.
func (gs *GameState) Log(actor, action string, requested, applied int, entities ...string) JournalEntry {
	entry := JournalEntry{
		Seq:       len(gs.Journal) + 1,
		Turn:      gs.Turn,
		Actor:     actor,
		Action:    action,
		Entities:  append([]string(nil), entities...),
		Requested: requested,
		Applied:   applied,
	}
	gs.Journal = append(gs.Journal, entry)
	return entry
}

// JournalFor returns the entries recorded for an action name.
func (gs *GameState) JournalFor(action string) []JournalEntry {
	var out []JournalEntry
	for _, e := range gs.Journal {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
