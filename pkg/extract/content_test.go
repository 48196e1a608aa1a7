package extract

import (
	"context"
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmstxt-audit/pkg/models"
)

const samplePage = `<html>
<head>
  <title>  Oakfield   Trust </title>
  <meta name="description" content="Supporting families across Manchester.">
</head>
<body>
  <nav><a href="/">Home</a><a href="/about">About</a></nav>
  <header>Site banner</header>
  <h1>Oakfield Trust</h1>
  <h2>What we do</h2>
  <p>We provide advice   and
     practical help.</p>
  <p>Email us at hello@oakfield.org.uk or call 0161 496 0000.</p>
  <p>Registered charity no. 1123456</p>
  <script>analytics();</script>
  <footer>Copyright</footer>
</body>
</html>`

func TestExtractContent(t *testing.T) {
	page := &models.FetchedPage{URL: "https://oakfield.org.uk/", RawHTML: samplePage}

	got, err := ExtractContent(page)
	require.NoError(t, err)

	assert.Equal(t, "Oakfield Trust", got.Title)
	assert.Equal(t, "Supporting families across Manchester.", got.Description)
	assert.Equal(t, []string{"Oakfield Trust", "What we do"}, got.Headings)

	// Chrome and scripts stripped, whitespace collapsed
	assert.NotContains(t, got.BodyText, "analytics")
	assert.NotContains(t, got.BodyText, "Site banner")
	assert.NotContains(t, got.BodyText, "Copyright")
	assert.Contains(t, got.BodyText, "advice and practical help")

	require.NotNil(t, got.Contact)
	assert.Equal(t, "hello@oakfield.org.uk", got.Contact.Email)
	assert.Equal(t, "0161 496 0000", got.Contact.Phone)
	assert.Equal(t, "1123456", got.CharityNumber)
}

func TestExtractContent_ChromeHeadingsExcluded(t *testing.T) {
	page := &models.FetchedPage{
		URL: "https://example.org/about",
		RawHTML: `<html><body>
  <nav><h2>Site Navigation</h2></nav>
  <h1>About Us</h1>
  <p>Our history.</p>
  <footer><h2>Quick Links</h2></footer>
</body></html>`,
	}

	got, err := ExtractContent(page)
	require.NoError(t, err)

	assert.Equal(t, []string{"About Us"}, got.Headings)
	assert.Equal(t, "About Us", got.Title)
}

func TestExtractContent_Deterministic(t *testing.T) {
	page := &models.FetchedPage{URL: "https://oakfield.org.uk/", RawHTML: samplePage}

	first, err := ExtractContent(page)
	require.NoError(t, err)
	second, err := ExtractContent(page)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestExtractContent_Fallbacks(t *testing.T) {
	page := &models.FetchedPage{
		URL:     "https://example.org/x",
		Title:   "From Crawler",
		RawHTML: `<html><head><meta property="og:description" content="OG text"></head><body><p>Body only.</p></body></html>`,
	}

	got, err := ExtractContent(page)
	require.NoError(t, err)

	assert.Equal(t, "From Crawler", got.Title)
	assert.Equal(t, "OG text", got.Description)
	assert.Nil(t, got.Contact)
	assert.Empty(t, got.CharityNumber)
}

func TestExtractCharityNumber(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Registered charity no. 1123456", "1123456"},
		{"Registered Charity Number: 209603", "209603"},
		{"registered charity no SC044246", "SC044246"},
		{"We are a charity.", ""},
	}

	for _, tt := range tests {
		if got := ExtractCharityNumber(tt.input); got != tt.want {
			t.Errorf("ExtractCharityNumber(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestPipeline_StableOrder(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	pages := []models.FetchedPage{
		{URL: "https://a.org/1", RawHTML: "<html><head><title>One</title></head><body>x</body></html>"},
		{URL: "https://a.org/2", RawHTML: "<html><head><title>Two</title></head><body>y</body></html>"},
		{URL: "https://a.org/3", RawHTML: "<html><head><title>Three</title></head><body>z</body></html>"},
	}

	classify := func(p *models.ExtractedPage) models.PageCategory {
		return models.CategoryOther
	}
	pipeline := NewPipeline(4, classify, logrus.NewEntry(log))

	got, err := pipeline.Run(context.Background(), pages)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "One", got[0].Title)
	assert.Equal(t, "Two", got[1].Title)
	assert.Equal(t, "Three", got[2].Title)
	for _, p := range got {
		assert.Equal(t, models.CategoryOther, p.Category)
	}
}

func TestPipeline_EveryPageYieldsAResult(t *testing.T) {
	log := logrus.New()
	log.SetOutput(io.Discard)

	pages := []models.FetchedPage{
		{URL: "https://a.org/ok", RawHTML: "<html><head><title>Fine</title></head><body>x</body></html>"},
		{URL: "https://a.org/empty", RawHTML: ""},
		{URL: "https://a.org/garbage", Title: "Garbage", RawHTML: "<<<%%% not markup"},
	}

	classify := func(p *models.ExtractedPage) models.PageCategory {
		return models.CategoryOther
	}
	pipeline := NewPipeline(2, classify, logrus.NewEntry(log))

	got, err := pipeline.Run(context.Background(), pages)
	require.NoError(t, err)
	require.Len(t, got, len(pages))

	for i, p := range got {
		assert.Equal(t, pages[i].URL, p.URL)
		assert.Equal(t, models.CategoryOther, p.Category)
	}
}

func TestDegradedPage_KeepsFetchMetadata(t *testing.T) {
	fetched := models.FetchedPage{URL: "https://a.org/broken", Title: "Broken Page"}

	got := degradedPage(&fetched)

	assert.Equal(t, "https://a.org/broken", got.URL)
	assert.Equal(t, "Broken Page", got.Title)
	assert.Empty(t, got.Description)
	assert.Empty(t, got.BodyText)
	assert.Empty(t, got.Headings)
}
