package services

import (
	"encoding/json"
	"regexp"
	"strings"
	"unicode"
)

// Field is either a found string or NotFound. The NotAvailable placeholder
// only appears in the JSON form.
type Field struct {
	value string
	found bool
}

func Found(value string) Field {
	value = strings.TrimSpace(value)
	if value == "" {
		return NotFound
	}
	return Field{value: value, found: true}
}

var NotFound = Field{}

func (f Field) Value() (string, bool) {
	return f.value, f.found
}

func (f Field) IsFound() bool {
	return f.found
}

func (f Field) String() string {
	if !f.found {
		return NotAvailable
	}
	return f.value
}

func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.String())
}

func (f *Field) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == nil || strings.EqualFold(strings.TrimSpace(*s), NotAvailable) {
		*f = NotFound
		return nil
	}
	*f = Found(*s)
	return nil
}

type CandidateFields struct {
	Name        Field `json:"name"`
	Email       Field `json:"email"`
	Phone       Field `json:"phone"`
	LinkedInURL Field `json:"linkedin_url"`
	GitHubURL   Field `json:"github_url"`
	Address     Field `json:"address"`
}

type EntityLabel string

const (
	LabelPerson    EntityLabel = "PERSON"
	LabelOrg       EntityLabel = "ORG"
	LabelProduct   EntityLabel = "PRODUCT"
	LabelWorkOfArt EntityLabel = "WORK_OF_ART"
	LabelGPE       EntityLabel = "GPE"
	LabelLoc       EntityLabel = "LOC"
)

type Entity struct {
	Text  string      `json:"text"`
	Label EntityLabel `json:"label"`
}

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`(?:\+\d{1,3}[\s.\-]?)?(?:\(\d{2,4}\)[\s.\-]?)?(?:\d{2,5}[\s.\-]?)?\d{3}[\s.\-]?\d{4}`)
	linkedInPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:www\.)?linkedin\.com/[^\s,;|()<>]+`)
	gitHubPattern   = regexp.MustCompile(`(?:https?://)?(?:www\.)?github\.com/[^\s,;|()<>]+`)
)

const addressScanLines = 10

var locationKeywords = map[string]struct{}{
	"street": {}, "st": {}, "road": {}, "rd": {}, "avenue": {}, "ave": {}, "lane": {},
	"boulevard": {}, "blvd": {}, "drive": {}, "suite": {}, "apartment": {},
	"apt": {}, "floor": {}, "block": {}, "sector": {}, "nagar": {}, "colony": {},
	"city": {}, "town": {}, "village": {}, "district": {}, "county": {}, "state": {},
	"province": {}, "country": {}, "zip": {}, "pin": {}, "postal": {},
	"india": {}, "usa": {}, "uk": {}, "canada": {}, "germany": {},
	"australia": {}, "singapore": {}, "indonesia": {}, "london": {}, "york": {},
	"bangalore": {}, "bengaluru": {}, "mumbai": {}, "delhi": {}, "hyderabad": {},
	"pune": {}, "chennai": {}, "jakarta": {}, "california": {}, "texas": {},
}

var contactIndicators = []string{"@", "http", "www.", "linkedin", "github"}

// ExtractFields locates contact fields with pattern rules only.
func ExtractFields(text string) CandidateFields {
	return ExtractFieldsWithEntities(text, nil)
}

// ExtractFieldsWithEntities prefers a PERSON entity for the name and a GPE
// or LOC entity for the address when entities are supplied.
func ExtractFieldsWithEntities(text string, entities []Entity) CandidateFields {
	lines := nonBlankLines(text)

	fields := CandidateFields{
		Email:       firstMatch(emailPattern, text),
		Phone:       firstMatch(phonePattern, text),
		LinkedInURL: firstMatch(linkedInPattern, text),
		GitHubURL:   firstMatch(gitHubPattern, text),
	}

	if e, ok := firstEntity(entities, LabelPerson); ok {
		fields.Name = Found(e.Text)
	} else if len(lines) > 0 {
		fields.Name = Found(lines[0])
	}

	if e, ok := firstEntity(entities, LabelGPE, LabelLoc); ok {
		fields.Address = Found(e.Text)
	} else {
		fields.Address = findAddressLine(lines)
	}

	return fields
}

func firstMatch(re *regexp.Regexp, text string) Field {
	if m := re.FindString(text); m != "" {
		return Found(m)
	}
	return NotFound
}

func firstEntity(entities []Entity, labels ...EntityLabel) (Entity, bool) {
	for _, e := range entities {
		for _, l := range labels {
			if e.Label == l && strings.TrimSpace(e.Text) != "" {
				return e, true
			}
		}
	}
	return Entity{}, false
}

func nonBlankLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func findAddressLine(lines []string) Field {
	if len(lines) > addressScanLines {
		lines = lines[:addressScanLines]
	}

	for _, line := range lines {
		lower := strings.ToLower(line)
		if containsAny(lower, contactIndicators) {
			continue
		}
		tokens := strings.FieldsFunc(lower, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsDigit(r)
		})
		for _, tok := range tokens {
			if _, ok := locationKeywords[tok]; ok {
				return Found(line)
			}
		}
	}

	return NotFound
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
