package rules

// Record is one parsed RulesElement: its attributes, its ordered specifics,
// the rule statements it declares, and any free text that trails the
// structured content.
type Record struct {
	SourceID     string
	Name         string
	Type         string
	SourceBook   string
	RevisionDate string

	// Specifics are the record's key/value children in declaration order.
	// Keys may repeat; each repetition is its own entry.
	Specifics []Specific

	Grants   []Grant
	StatAdds []StatAdd
	Modifies []Modify

	// RemainderText is the concatenation, in document order, of every free
	// character-data fragment found directly under the record element. It is
	// the record's rendered description and has no owning child element.
	RemainderText string
}

// Specific is one key/value pair from a record's specific children.
// Value may be the empty string (a self-closing specific); that is distinct
// from the key being absent, in which case no Specific exists at all.
type Specific struct {
	Key     string
	Value   string
	Ordinal int
}

// Grant is a directed "granter grants granted" statement. The Granted field
// holds the granted element's source id, not its display name.
type Grant struct {
	Granted     string
	GrantedType string
	Requires    string
	Level       string
	Ordinal     int
}

// StatAdd is a structured stat bonus. Value is kept as the raw signed string;
// the dump's numeric formats are inconsistent and are not interpreted here.
type StatAdd struct {
	Stat      string
	Value     string
	BonusType string
	Requires  string
	Ordinal   int
}

// Modify is an alteration of a named, typed target's field. The target is
// matched downstream by display name and type; it need not be a known record.
type Modify struct {
	TargetName   string
	TargetType   string
	Field        string
	Value        string
	ListAddition string
	Requires     string
	Ordinal      int
}

// StatementCount returns the number of extracted statements in the record.
func (r *Record) StatementCount() int {
	return len(r.Grants) + len(r.StatAdds) + len(r.Modifies)
}
