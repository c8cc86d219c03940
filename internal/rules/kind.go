// Package rules parses RulesElement records from the combined rules XML dump.
package rules

import "strings"

// Kind is the canonical kind of a rule statement.
type Kind int

const (
	KindUnknown Kind = iota
	KindGrant
	KindStatAdd
	KindModify
	KindSelect
	KindTextString
	KindSuggest
	KindReplace
	KindDrop
	KindStatAlias
)

// kindNames maps lowercased tag spellings to their canonical kind.
// The dump contains two documented case-variant pairs (statadd/statAdd,
// textstring/textString); lowercasing folds those and any future variant of
// a known kind. Genuinely new tag names stay KindUnknown and are tallied by
// the scanner rather than guessed at.
var kindNames = map[string]Kind{
	"grant":      KindGrant,
	"statadd":    KindStatAdd,
	"modify":     KindModify,
	"select":     KindSelect,
	"textstring": KindTextString,
	"suggest":    KindSuggest,
	"replace":    KindReplace,
	"removal":    KindDrop,
	"statalias":  KindStatAlias,
}

// NormalizeTag maps a raw statement tag name to its canonical kind.
// Matching is case-insensitive; unrecognized names return KindUnknown.
func NormalizeTag(tag string) Kind {
	return kindNames[strings.ToLower(tag)]
}

// String returns the canonical lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindGrant:
		return "grant"
	case KindStatAdd:
		return "statadd"
	case KindModify:
		return "modify"
	case KindSelect:
		return "select"
	case KindTextString:
		return "textstring"
	case KindSuggest:
		return "suggest"
	case KindReplace:
		return "replace"
	case KindDrop:
		return "removal"
	case KindStatAlias:
		return "statalias"
	default:
		return "unknown"
	}
}
