// Package namesearch generates display-name variants for catalog lookups.
//
// The dump and the compendium frequently disagree about the exact display
// name of the same entry: the dump appends enhancement bonuses, tier words,
// equipment and action-type suffixes that the compendium drops, and runs a
// few compound names together. Variants returns the candidate keys to try,
// most exact first, so the first hit is always the most literal one.
package namesearch

import (
	"regexp"
	"strings"

	"github.com/gosimple/slug"
)

var (
	reSpaces        = regexp.MustCompile(`\s+`)
	reParenTail     = regexp.MustCompile(`\s*\([^)]*\)\s*$`)
	reBracketTail   = regexp.MustCompile(`\s*\[[^\]]*\]\s*$`)
	rePlusTail      = regexp.MustCompile(`\s*\+\d+\s*$`)
	reCamelBoundary = regexp.MustCompile(`([a-z])([A-Z])`)
)

// compoundWords are common equipment words that dump names sometimes run
// together ("Soulsword" for "Soul sword").
var compoundWords = []string{
	"sword", "blade", "armor", "shield", "weapon", "staff", "rod", "orb", "cloak",
}

// typeSuffixes are trailing words the compendium drops from power names.
var typeSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+attack\s*$`),
	regexp.MustCompile(`(?i)\s+power\s*$`),
	regexp.MustCompile(`(?i)\s+\(daily\)\s*$`),
	regexp.MustCompile(`(?i)\s+\(encounter\)\s*$`),
	regexp.MustCompile(`(?i)\s+flight\s*$`),
	regexp.MustCompile(`(?i)\s+teleport\s*$`),
	regexp.MustCompile(`(?i)\s+strike\s*$`),
	regexp.MustCompile(`(?i)\s+buffet\s*$`),
}

var tierWords = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bepic\b`),
	regexp.MustCompile(`(?i)\bheroic\b`),
	regexp.MustCompile(`(?i)\bparagon\b`),
}

// equipmentSuffixes are trailing equipment-type words; "Anakore Armor" is
// just "Anakore" in the compendium.
var equipmentSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+armor\s*$`),
	regexp.MustCompile(`(?i)\s+weapon\s*$`),
	regexp.MustCompile(`(?i)\s+shield\s*$`),
	regexp.MustCompile(`(?i)\s+ring\s*$`),
	regexp.MustCompile(`(?i)\s+boots\s*$`),
	regexp.MustCompile(`(?i)\s+cloak\s*$`),
}

var implementSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s+rod\s*$`),
	regexp.MustCompile(`(?i)\s+staff\s*$`),
	regexp.MustCompile(`(?i)\s+orb\s*$`),
	regexp.MustCompile(`(?i)\s+wand\s*$`),
}

var (
	reAttackTail   = regexp.MustCompile(`(?i)\s+attack\s*$`)
	reSecondaryPow = regexp.MustCompile(`(?i)\s+secondary\s+power\s*$`)
	reSecondaryAtk = regexp.MustCompile(`(?i)\s+secondary\s+attack\s*$`)
)

// implementTypes enumerate the per-type entries the compendium holds for a
// generic "X Implement" name.
var implementTypes = []string{
	"orb", "rod", "staff", "wand", "tome", "totem", "holy symbol", "ki focus",
}

// Variants returns lowercase lookup keys for name, exact match first, then
// progressively normalized forms. Duplicates are dropped while preserving
// first-seen order. An empty or whitespace-only name yields nothing.
func Variants(name string) []string {
	s := strings.ToLower(strings.TrimSpace(name))
	if s == "" {
		return nil
	}
	seen := map[string]bool{s: true}
	variants := []string{s}

	add := func(v string) {
		v = strings.TrimSpace(reSpaces.ReplaceAllString(v, " "))
		if v != "" && !seen[v] {
			seen[v] = true
			variants = append(variants, v)
		}
	}

	base := strings.TrimSpace(reParenTail.ReplaceAllString(s, ""))
	add(base)
	add(reBracketTail.ReplaceAllString(s, ""))
	add(reBracketTail.ReplaceAllString(base, ""))
	add(rePlusTail.ReplaceAllString(base, ""))
	add(rePlusTail.ReplaceAllString(s, ""))

	// CamelCase split works on the original casing, then folds.
	spaced := strings.ToLower(strings.TrimSpace(
		reCamelBoundary.ReplaceAllString(strings.TrimSpace(name), "$1 $2")))
	add(spaced)
	if spaced != base {
		add(reParenTail.ReplaceAllString(spaced, ""))
	}

	for _, word := range compoundWords {
		if strings.Contains(s, word) &&
			!strings.Contains(s, " "+word) && !strings.Contains(s, word+" ") {
			if idx := strings.Index(s, word); idx > 0 {
				add(s[:idx] + " " + s[idx:])
			}
		}
	}

	for _, re := range typeSuffixes {
		add(re.ReplaceAllString(s, ""))
	}

	// "X Attack" secondary powers usually belong to "Form of the X".
	attackStripped := strings.TrimSpace(reAttackTail.ReplaceAllString(s, ""))
	if attackStripped != s && !strings.HasPrefix(attackStripped, "form of") {
		add("form of the " + attackStripped)
		add("form of " + attackStripped)
	}

	for _, re := range tierWords {
		add(re.ReplaceAllString(s, ""))
	}

	basePlain := strings.TrimSpace(rePlusTail.ReplaceAllString(s, ""))
	for _, re := range equipmentSuffixes {
		add(re.ReplaceAllString(s, ""))
		add(re.ReplaceAllString(basePlain, ""))
	}

	add(reSecondaryPow.ReplaceAllString(s, ""))
	add(reSecondaryAtk.ReplaceAllString(s, ""))

	// "X Form Y Attack" often appears as just "X form".
	if i := strings.Index(s, " form "); i >= 0 {
		add(s[:i] + " form")
	}

	for _, re := range implementSuffixes {
		add(re.ReplaceAllString(s, ""))
		add(re.ReplaceAllString(basePlain, ""))
	}

	// Dash compounds keep their full name in the per-kind tables even when
	// the name index only carries the head.
	if strings.Contains(s, " - ") {
		add(basePlain)
	}

	// Generic "X Implement" names exist in the compendium once per type.
	if strings.HasSuffix(basePlain, " implement") {
		head := strings.TrimSpace(strings.TrimSuffix(basePlain, " implement"))
		for _, impl := range implementTypes {
			add(head + " " + impl)
		}
	}

	// Last resort for accented or otherwise decorated names.
	add(strings.ReplaceAll(slug.Make(s), "-", " "))

	return variants
}
