package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = `Jane Doe
Senior Backend Engineer
jane.doe@example.com | +1 (555) 123-4567
https://www.linkedin.com/in/jane-doe
github.com/janedoe
221B Baker Street, London

Skills: Python, Machine-Learning, SQL, Docker
Built REST API services with FastAPI and PostgreSQL.`

func TestExtractFieldsFromPatterns(t *testing.T) {
	fields := ExtractFields(sampleResume)

	assert.Equal(t, "Jane Doe", fields.Name.String())
	assert.Equal(t, "jane.doe@example.com", fields.Email.String())
	assert.Equal(t, "+1 (555) 123-4567", fields.Phone.String())
	assert.Equal(t, "https://www.linkedin.com/in/jane-doe", fields.LinkedInURL.String())
	assert.Equal(t, "github.com/janedoe", fields.GitHubURL.String())
	assert.Equal(t, "221B Baker Street, London", fields.Address.String())
}

func TestExtractFieldsMissingValues(t *testing.T) {
	fields := ExtractFields("just some words\nwith nothing useful")

	assert.Equal(t, "just some words", fields.Name.String())
	assert.False(t, fields.Email.IsFound())
	assert.False(t, fields.Phone.IsFound())
	assert.False(t, fields.LinkedInURL.IsFound())
	assert.False(t, fields.GitHubURL.IsFound())
	assert.False(t, fields.Address.IsFound())
	assert.Equal(t, NotAvailable, fields.Email.String())
}

func TestExtractFieldsEmptyText(t *testing.T) {
	fields := ExtractFields("   \n\n ")
	assert.False(t, fields.Name.IsFound())
}

func TestExtractFieldsPrefersEntities(t *testing.T) {
	entities := []Entity{
		{Text: "Acme Corp", Label: LabelOrg},
		{Text: "Jane Q. Doe", Label: LabelPerson},
		{Text: "Berlin", Label: LabelGPE},
	}

	fields := ExtractFieldsWithEntities(sampleResume, entities)

	assert.Equal(t, "Jane Q. Doe", fields.Name.String())
	assert.Equal(t, "Berlin", fields.Address.String())
}

func TestAddressSkipsContactLines(t *testing.T) {
	text := "John Smith\njohn@city.com\nhttps://github.com/state\n42 Elm Road, Springfield"
	fields := ExtractFields(text)
	assert.Equal(t, "42 Elm Road, Springfield", fields.Address.String())
}

func TestAddressOnlyScansLeadingLines(t *testing.T) {
	text := "a\nb\nc\nd\ne\nf\ng\nh\ni\nj\n10 Main Street"
	fields := ExtractFields(text)
	assert.False(t, fields.Address.IsFound())
}

func TestFieldJSON(t *testing.T) {
	data, err := json.Marshal(CandidateFields{Name: Found("Jane")})
	require.NoError(t, err)

	var raw map[string]string
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Jane", raw["name"])
	assert.Equal(t, NotAvailable, raw["email"])
	assert.Len(t, raw, 6)

	var back CandidateFields
	require.NoError(t, json.Unmarshal(data, &back))
	assert.True(t, back.Name.IsFound())
	assert.False(t, back.Email.IsFound())
}

func TestFoundTrimsAndRejectsBlank(t *testing.T) {
	assert.Equal(t, NotFound, Found("   "))
	v, ok := Found("  x ").Value()
	assert.True(t, ok)
	assert.Equal(t, "x", v)
}
