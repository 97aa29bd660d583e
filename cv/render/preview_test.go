package render

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portal-web/cv/model"
)

func sectionKeys(p Preview) []model.SectionKey {
	keys := make([]model.SectionKey, 0, len(p.Sections))
	for _, s := range p.Sections {
		keys = append(keys, s.Key)
	}
	return keys
}

func TestBuildOmitsEmptySections(t *testing.T) {
	r := NewRenderer("https://api.example.org")
	doc := model.New()
	doc.PersonalInfo.Name = "Tahmid"

	p := r.Build(doc)
	assert.Empty(t, p.Sections)
	assert.Equal(t, "Tahmid", p.Header.Name)

	doc.Experience = append(doc.Experience, model.Experience{Responsibilities: []string{}})
	p = r.Build(doc)
	require.Len(t, p.Sections, 1)
	assert.Equal(t, model.SectionExperience, p.Sections[0].Key)
	assert.Equal(t, "EXPERIENCE", p.Sections[0].Title)
	assert.Len(t, p.Sections[0].Entries, 1)
}

func TestBuildKeepsSectionOrder(t *testing.T) {
	r := NewRenderer("")
	doc := model.New()
	doc.References = []model.Reference{{Name: "Dr. Karim"}}
	doc.Skills = []string{"Go"}
	doc.PersonalInfo.Summary = "Backend developer"
	doc.Portfolio = []string{"https://example.org"}

	got := sectionKeys(r.Build(doc))

	assert.Equal(t, []model.SectionKey{
		model.SectionSummary,
		model.SectionSkills,
		model.SectionPortfolio,
		model.SectionReferences,
	}, got)
}

func TestBuildUsesSectionTitleOverride(t *testing.T) {
	r := NewRenderer("")
	doc := model.New()
	doc.Skills = []string{"SQL"}
	doc.SectionTitles[model.SectionSkills] = "CORE TOOLS"

	p := r.Build(doc)

	require.Len(t, p.Sections, 1)
	assert.Equal(t, "CORE TOOLS", p.Sections[0].Title)
	assert.NotEqual(t, "SKILLS", p.Sections[0].Title)
}

func TestBuildSanitizesRichText(t *testing.T) {
	r := NewRenderer("")
	doc := model.New()
	doc.PersonalInfo.Summary = `<b>Lead</b><script>alert(1)</script>`

	p := r.Build(doc)

	require.Len(t, p.Sections, 1)
	assert.Contains(t, p.Sections[0].BodyHTML, "<b>Lead</b>")
	assert.NotContains(t, p.Sections[0].BodyHTML, "script")
}

func TestBuildExperienceEntry(t *testing.T) {
	r := NewRenderer("")
	doc := model.New()
	doc.Experience = []model.Experience{{
		Position:         "Engineer",
		Company:          "Grameen",
		StartDate:        "2021",
		Location:         "Dhaka",
		Responsibilities: []string{"Built APIs", ""},
	}}

	entry := r.Build(doc).Sections[0].Entries[0]

	assert.Equal(t, "Engineer", entry.Heading)
	assert.Equal(t, "Grameen", entry.Subheading)
	assert.Equal(t, "2021 - Present | Dhaka", entry.Meta)
	assert.Equal(t, []string{"Built APIs"}, entry.Bullets)
}

func TestThemeColorDrivesHeadingsAndChips(t *testing.T) {
	r := NewRenderer("")
	doc := model.New()
	doc.PersonalInfo.Summary = "Summary"
	doc.Education = []model.Education{{Degree: "BSc"}}
	doc.Skills = []string{"Go", "SQL"}

	for _, color := range []string{"#059669", "#e11d48"} {
		doc.ThemeColor = color
		html, err := r.RenderHTML(doc)
		require.NoError(t, err)

		heading := `style="color: ` + color + `; border-bottom: 2px solid ` + color + `;"`
		chip := `style="color: ` + color + `; background-color: ` + color + `20;"`
		assert.Equal(t, 3, strings.Count(html, heading), "every heading uses %s", color)
		assert.Equal(t, 2, strings.Count(html, chip), "every chip uses %s", color)
	}
}

func TestThemeColorFallback(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "#ABC", want: "#aabbcc"},
		{in: "#7c3aed", want: "#7c3aed"},
		{in: "", want: model.DefaultThemeColor},
		{in: "red", want: model.DefaultThemeColor},
		{in: "#7c3aed80", want: model.DefaultThemeColor},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThemeColor(tt.in), "ThemeColor(%q)", tt.in)
	}
}

func TestResolvePhotoURL(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		photo string
		want  string
	}{
		{name: "empty", base: "https://api.example.org", photo: "", want: ""},
		{name: "data url", base: "https://api.example.org", photo: "data:image/png;base64,AAAA", want: "data:image/png;base64,AAAA"},
		{name: "blob url", base: "https://api.example.org", photo: "blob:https://app/1", want: "blob:https://app/1"},
		{name: "absolute", base: "https://api.example.org", photo: "https://cdn.example.org/a.png", want: "https://cdn.example.org/a.png"},
		{name: "protocol relative", base: "https://api.example.org", photo: "//cdn.example.org/a.png", want: "//cdn.example.org/a.png"},
		{name: "relative", base: "https://api.example.org/", photo: "/uploads/a.png", want: "https://api.example.org/uploads/a.png"},
		{name: "relative without slash", base: "https://api.example.org", photo: "uploads/a.png", want: "https://api.example.org/uploads/a.png"},
		{name: "no base", base: "", photo: "uploads/a.png", want: "uploads/a.png"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolvePhotoURL(tt.base, tt.photo))
		})
	}
}

func TestRenderHTMLEscapesUserText(t *testing.T) {
	r := NewRenderer("https://api.example.org")
	doc := model.New()
	doc.PersonalInfo.Name = `<img src=x onerror=alert(1)>`
	doc.PersonalInfo.Photo = "uploads/me.png"
	doc.Portfolio = []string{"javascript:alert(1)"}

	html, err := r.RenderHTML(doc)
	require.NoError(t, err)

	assert.NotContains(t, html, "<img src=x")
	assert.Contains(t, html, `src="https://api.example.org/uploads/me.png"`)
	assert.NotContains(t, html, `href="javascript:`)
}
