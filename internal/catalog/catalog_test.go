package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 11, c.Len())

	phishing, ok := c.Get("phishing")
	require.True(t, ok)
	assert.Equal(t, 1, phishing.Number)
	assert.Equal(t, "Phishing & Social Engineering Detection", phishing.Name)
	assert.Equal(t, MediaYouTube, phishing.Media.Type)
	assert.Len(t, phishing.Questions, 5)
	assert.Equal(t, 1, phishing.Questions[0].Correct)

	finance, ok := c.Get("finance")
	require.True(t, ok)
	assert.Equal(t, MediaPDF, finance.Media.Type)
	assert.NotEmpty(t, finance.Media.PDFURL)

	_, ok = c.Get("nope")
	assert.False(t, ok)
}

func TestCatalogAllKeepsOrder(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	all := c.All()
	require.Len(t, all, 11)
	assert.Equal(t, "phishing", all[0].ID)
	assert.Equal(t, "customer-service", all[len(all)-1].ID)

	all[0].Name = "mutated"
	first, _ := c.Get("phishing")
	assert.NotEqual(t, "mutated", first.Name)
}

func TestParseRejectsBadModules(t *testing.T) {
	cases := map[string]string{
		"duplicate id": `
modules:
- id: a
  name: A
- id: a
  name: A again
`,
		"too few options": `
modules:
- id: a
  name: A
  questions:
  - prompt: q
    options: [only]
    correct: 0
`,
		"correct out of range": `
modules:
- id: a
  name: A
  questions:
  - prompt: q
    options: [x, y]
    correct: 2
`,
		"empty id": `
modules:
- name: nameless
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}
}
