package services

import (
	"encoding/json"
	"sort"
	"strings"
)

// NotAvailable is the wire placeholder for a missing field or an empty skill list.
const NotAvailable = "Not Available"

var separatorReplacer = strings.NewReplacer("-", " ", "_", " ")

// NormalizeSkill lower-cases s, turns hyphens and underscores into spaces and
// collapses whitespace. Synonyms are left alone.
func NormalizeSkill(s string) string {
	s = separatorReplacer.Replace(strings.ToLower(s))
	return strings.Join(strings.Fields(s), " ")
}

// SkillSet is a set of normalized skills.
type SkillSet map[string]struct{}

func NewSkillSet(skills ...string) SkillSet {
	return NormalizeSkills(skills)
}

// NormalizeSkills normalizes every entry and drops blanks and the
// NotAvailable placeholder.
func NormalizeSkills(skills []string) SkillSet {
	set := make(SkillSet, len(skills))
	for _, raw := range skills {
		if strings.EqualFold(strings.TrimSpace(raw), NotAvailable) {
			continue
		}
		if s := NormalizeSkill(raw); s != "" {
			set[s] = struct{}{}
		}
	}
	return set
}

func (s SkillSet) Has(skill string) bool {
	_, ok := s[skill]
	return ok
}

func (s SkillSet) Len() int {
	return len(s)
}

// Add normalizes and inserts skill, ignoring blanks and the placeholder.
func (s SkillSet) Add(skill string) {
	for k := range NormalizeSkills([]string{skill}) {
		s[k] = struct{}{}
	}
}

func (s SkillSet) Union(other SkillSet) SkillSet {
	out := make(SkillSet, len(s)+len(other))
	for k := range s {
		out[k] = struct{}{}
	}
	for k := range other {
		out[k] = struct{}{}
	}
	return out
}

func (s SkillSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// SkillList is the display form: sorted skills, or a single NotAvailable
// entry when the set is empty.
func (s SkillSet) SkillList() []string {
	if len(s) == 0 {
		return []string{NotAvailable}
	}
	return s.Sorted()
}

func (s SkillSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

func (s *SkillSet) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*s = NormalizeSkills(list)
	return nil
}
