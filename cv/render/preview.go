package render

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"portal-web/cv/model"
)

const (
	// HeaderPreviewKind marks responses that carry the live preview rather than an export.
	HeaderPreviewKind = "X-Preview-Kind"
	// PreviewKindApproximate is the only preview kind: exports are rendered by the backend.
	PreviewKindApproximate = "approximate"

	// ChipAlphaSuffix is appended to the theme hex to tint chip backgrounds.
	ChipAlphaSuffix = "20"
)

// SectionKind selects how a section body is laid out.
type SectionKind string

const (
	KindText    SectionKind = "text"
	KindEntries SectionKind = "entries"
	KindChips   SectionKind = "chips"
	KindList    SectionKind = "list"
	KindLinks   SectionKind = "links"
)

// Preview is the structured visual document shown next to the editor.
type Preview struct {
	ThemeColor   string    `json:"themeColor"`
	HeadingStyle string    `json:"headingStyle"`
	ChipStyle    string    `json:"chipStyle"`
	Header       Header    `json:"header"`
	Sections     []Section `json:"sections"`
}

// Header is the top block of the preview.
type Header struct {
	Name     string `json:"name"`
	Title    string `json:"title"`
	Email    string `json:"email,omitempty"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`
	PhotoURL string `json:"photoUrl,omitempty"`
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

// Section is one headed block of the preview.
type Section struct {
	Key   model.SectionKey `json:"key"`
	Title string           `json:"title"`
	Kind  SectionKind      `json:"kind"`
	// BodyHTML is sanitized markup for KindText sections.
	BodyHTML string   `json:"bodyHtml,omitempty"`
	Entries  []Entry  `json:"entries,omitempty"`
	Items    []string `json:"items,omitempty"`
}

// Entry is one item of a repeatable section.
type Entry struct {
	Heading    string   `json:"heading"`
	Subheading string   `json:"subheading,omitempty"`
	Meta       string   `json:"meta,omitempty"`
	Note       string   `json:"note,omitempty"`
	BodyHTML   string   `json:"bodyHtml,omitempty"`
	Bullets    []string `json:"bullets,omitempty"`
	Link       string   `json:"link,omitempty"`
}

// Renderer projects documents into previews. It holds no per-document state and is safe
// for concurrent use.
type Renderer struct {
	assetBaseURL string
	policy       *bluemonday.Policy
}

// NewRenderer builds a renderer that resolves stored photo paths against assetBaseURL.
func NewRenderer(assetBaseURL string) *Renderer {
	return &Renderer{
		assetBaseURL: strings.TrimRight(strings.TrimSpace(assetBaseURL), "/"),
		policy:       bluemonday.UGCPolicy(),
	}
}

// Build projects doc into a Preview. A section appears as soon as its list has an entry,
// even a blank one, and the summary appears when it is non-empty.
func (r *Renderer) Build(doc model.Document) Preview {
	color := ThemeColor(doc.ThemeColor)
	p := Preview{
		ThemeColor:   color,
		HeadingStyle: HeadingStyle(color),
		ChipStyle:    ChipStyle(color),
		Header: Header{
			Name:     doc.PersonalInfo.Name,
			Title:    doc.PersonalInfo.Title,
			Email:    doc.PersonalInfo.Email,
			Phone:    doc.PersonalInfo.Phone,
			Location: doc.PersonalInfo.Location,
			PhotoURL: ResolvePhotoURL(r.assetBaseURL, doc.PersonalInfo.Photo),
			LinkedIn: doc.PersonalInfo.LinkedIn,
			GitHub:   doc.PersonalInfo.GitHub,
			Website:  doc.PersonalInfo.Website,
		},
		Sections: []Section{},
	}

	for _, key := range model.SectionKeys {
		section, ok := r.section(doc, key)
		if !ok {
			continue
		}
		section.Key = key
		section.Title = doc.SectionTitle(key)
		p.Sections = append(p.Sections, section)
	}
	return p
}

func (r *Renderer) section(doc model.Document, key model.SectionKey) (Section, bool) {
	switch key {
	case model.SectionSummary:
		if doc.PersonalInfo.Summary == "" {
			return Section{}, false
		}
		return Section{Kind: KindText, BodyHTML: r.sanitize(doc.PersonalInfo.Summary)}, true
	case model.SectionExperience:
		return entries(doc.Experience, r.experienceEntry)
	case model.SectionEducation:
		return entries(doc.Education, r.educationEntry)
	case model.SectionSkills:
		return lines(KindChips, doc.Skills)
	case model.SectionCertifications:
		return entries(doc.Certifications, certificationEntry)
	case model.SectionProjects:
		return entries(doc.Projects, r.projectEntry)
	case model.SectionPortfolio:
		return lines(KindLinks, doc.Portfolio)
	case model.SectionPersonalSkills:
		return lines(KindList, doc.PersonalSkills)
	case model.SectionActivities:
		return entries(doc.Activities, r.activityEntry)
	case model.SectionReferences:
		return entries(doc.References, referenceEntry)
	}
	return Section{}, false
}

func entries[T any](items []T, project func(T) Entry) (Section, bool) {
	if len(items) == 0 {
		return Section{}, false
	}
	out := make([]Entry, 0, len(items))
	for _, item := range items {
		out = append(out, project(item))
	}
	return Section{Kind: KindEntries, Entries: out}, true
}

func lines(kind SectionKind, items []string) (Section, bool) {
	if len(items) == 0 {
		return Section{}, false
	}
	return Section{Kind: kind, Items: append([]string{}, items...)}, true
}

func (r *Renderer) experienceEntry(e model.Experience) Entry {
	bullets := make([]string, 0, len(e.Responsibilities))
	for _, line := range e.Responsibilities {
		if line != "" {
			bullets = append(bullets, line)
		}
	}
	return Entry{
		Heading:    e.Position,
		Subheading: e.Company,
		Meta:       joinNonEmpty(" | ", dateRange(e.StartDate, e.EndDate), e.Location),
		BodyHTML:   r.sanitize(e.Description),
		Bullets:    bullets,
	}
}

func (r *Renderer) educationEntry(e model.Education) Entry {
	gpa := ""
	if e.GPA != "" {
		gpa = "GPA: " + e.GPA
	}
	return Entry{
		Heading:    e.Degree,
		Subheading: e.Institution,
		Meta:       joinNonEmpty(" | ", e.GraduationDate, gpa),
		BodyHTML:   r.sanitize(e.Details),
	}
}

func certificationEntry(c model.Certification) Entry {
	credential := ""
	if c.CredentialID != "" {
		credential = "Credential ID: " + c.CredentialID
	}
	return Entry{
		Heading:    c.Name,
		Subheading: c.Issuer,
		Meta:       c.Date,
		Note:       credential,
		Link:       c.URL,
	}
}

func (r *Renderer) projectEntry(p model.Project) Entry {
	return Entry{
		Heading:    p.Name,
		Subheading: p.Role,
		Meta:       p.Date,
		Note:       p.Technologies,
		BodyHTML:   r.sanitize(p.Description),
		Link:       p.URL,
	}
}

func (r *Renderer) activityEntry(a model.Activity) Entry {
	return Entry{
		Heading:    a.Title,
		Subheading: a.Organization,
		Meta:       a.Date,
		BodyHTML:   r.sanitize(a.Description),
	}
}

func referenceEntry(ref model.Reference) Entry {
	return Entry{
		Heading:    ref.Name,
		Subheading: joinNonEmpty(", ", ref.Position, ref.Company),
		Meta:       joinNonEmpty(" | ", ref.Email, ref.Phone),
	}
}

func (r *Renderer) sanitize(text string) string {
	if text == "" {
		return ""
	}
	return r.policy.Sanitize(text)
}

func dateRange(start, end string) string {
	switch {
	case start != "" && end != "":
		return start + " - " + end
	case start != "":
		return start + " - Present"
	default:
		return end
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := parts[:0:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
