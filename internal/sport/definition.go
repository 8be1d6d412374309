// Package sport holds the per-sport episode slot tables and the keyword
// matching used to bind feed events to slots.
package sport

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Slot is one fixed episode position within a round.
type Slot struct {
	Slug      string   `toml:"slug"`
	Title     string   `toml:"title"`
	Keywords  []string `toml:"keywords"`
	Exclude   []string `toml:"exclude"`
	Summary   string   `toml:"summary"`
	DayOffset int      `toml:"day_offset"`
	// Primary marks the slot whose event names the round.
	Primary bool `toml:"primary"`
}

// Variant swaps in a different slot list for rounds whose events mention
// one of the triggers (e.g. sprint weekends).
type Variant struct {
	Name     string   `toml:"name"`
	Triggers []string `toml:"triggers"`
	Slots    []Slot   `toml:"slot"`
}

// Definition describes how one sport maps onto seasons and episodes.
type Definition struct {
	ID            string    `toml:"id"`
	Name          string    `toml:"name"`
	LeagueID      int       `toml:"league_id"`
	ShowTitle     string    `toml:"show_title"`
	RoundLabel    string    `toml:"round_label"`
	Summary       string    `toml:"summary"`
	TitleSuffixes []string  `toml:"title_suffixes"`
	Slots         []Slot    `toml:"slot"`
	Variants      []Variant `toml:"variant"`
}

// ErrUnknownSport is returned by Catalog.Lookup.
var ErrUnknownSport = errors.New("unknown sport")

func (d *Definition) normalize() {
	d.ID = NormalizeID(d.ID)
	d.Name = strings.TrimSpace(d.Name)
	if d.Name == "" {
		d.Name = titleFromSlug(d.ID)
	}
	if strings.TrimSpace(d.RoundLabel) == "" {
		d.RoundLabel = "Round"
	}
	if strings.TrimSpace(d.ShowTitle) == "" {
		d.ShowTitle = d.Name + " {season}"
	}
	normalizeSlots(d.Slots)
	for i := range d.Variants {
		d.Variants[i].Name = strings.TrimSpace(d.Variants[i].Name)
		normalizeSlots(d.Variants[i].Slots)
	}
}

func normalizeSlots(slots []Slot) {
	for i := range slots {
		slots[i].Slug = strings.TrimSpace(slots[i].Slug)
		slots[i].Title = strings.TrimSpace(slots[i].Title)
		if slots[i].Title == "" {
			slots[i].Title = titleFromSlug(slots[i].Slug)
		}
	}
}

// Validate checks that the definition can classify events.
func (d Definition) Validate() error {
	if d.ID == "" {
		return errors.New("sport id is required")
	}
	if err := validateSlots(d.Slots); err != nil {
		return fmt.Errorf("sport %s: %w", d.ID, err)
	}
	seen := make(map[string]bool, len(d.Variants))
	for _, v := range d.Variants {
		if v.Name == "" {
			return fmt.Errorf("sport %s: variant name is required", d.ID)
		}
		if seen[v.Name] {
			return fmt.Errorf("sport %s: duplicate variant %q", d.ID, v.Name)
		}
		seen[v.Name] = true
		if len(v.Triggers) == 0 {
			return fmt.Errorf("sport %s: variant %s has no triggers", d.ID, v.Name)
		}
		if err := validateSlots(v.Slots); err != nil {
			return fmt.Errorf("sport %s variant %s: %w", d.ID, v.Name, err)
		}
	}
	return nil
}

func validateSlots(slots []Slot) error {
	if len(slots) == 0 {
		return errors.New("at least one slot is required")
	}
	seen := make(map[string]bool, len(slots))
	for i, s := range slots {
		if s.Slug == "" {
			return fmt.Errorf("slot %d: slug is required", i+1)
		}
		if seen[s.Slug] {
			return fmt.Errorf("duplicate slot %q", s.Slug)
		}
		seen[s.Slug] = true
		if len(s.Keywords) == 0 {
			return fmt.Errorf("slot %s: at least one keyword is required", s.Slug)
		}
		for _, kw := range s.Keywords {
			if len(Tokens(kw)) == 0 {
				return fmt.Errorf("slot %s: keyword %q has no letters or digits", s.Slug, kw)
			}
		}
	}
	return nil
}

// SlotsFor picks the slot list for a round from the texts of its events.
// The returned name is "" for the standard list.
func (d Definition) SlotsFor(texts []string) ([]Slot, string) {
	for _, v := range d.Variants {
		for _, text := range texts {
			if ContainsAny(text, v.Triggers) {
				return v.Slots, v.Name
			}
		}
	}
	return d.Slots, ""
}

// MaxSlots returns the largest slot count across the standard list and
// all variants.
func (d Definition) MaxSlots() int {
	n := len(d.Slots)
	for _, v := range d.Variants {
		if len(v.Slots) > n {
			n = len(v.Slots)
		}
	}
	return n
}

// ShowTitleFor expands {season} in the show title template.
func (d Definition) ShowTitleFor(season string) string {
	return strings.ReplaceAll(d.ShowTitle, "{season}", season)
}

// CleanTitle strips trailing session descriptors from an event name so it
// names the whole round ("Bahrain Grand Prix Qualifying" -> "Bahrain Grand
// Prix"). An empty result means nothing usable remained.
func (d Definition) CleanTitle(raw string) string {
	title := strings.TrimSpace(raw)
	re := suffixPattern(d.TitleSuffixes)
	if re == nil {
		return title
	}
	for {
		stripped := strings.Trim(re.ReplaceAllString(title, ""), " -–—,:")
		if stripped == title {
			return title
		}
		title = stripped
	}
}

func suffixPattern(suffixes []string) *regexp.Regexp {
	alts := make([]string, 0, len(suffixes))
	for _, s := range suffixes {
		words := strings.Fields(strings.ToLower(s))
		if len(words) == 0 {
			continue
		}
		for i, w := range words {
			words[i] = strings.ReplaceAll(regexp.QuoteMeta(w), "#", `\s*\d+`)
		}
		alts = append(alts, strings.Join(words, `[\s\-]+`))
	}
	if len(alts) == 0 {
		return nil
	}
	return regexp.MustCompile(`(?i)(?:^|[\s\-–—,:]+)(?:` + strings.Join(alts, "|") + `)$`)
}

// NormalizeID lowercases a sport id and uses hyphens as separators.
func NormalizeID(id string) string {
	return strings.Join(Tokens(id), "-")
}

func titleFromSlug(slug string) string {
	return cases.Title(language.English).String(strings.Join(Tokens(slug), " "))
}
