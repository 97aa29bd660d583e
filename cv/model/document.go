package model

import "time"

// Document is the in-memory résumé edited in the CV builder. It is independent of the
// template that eventually renders it.
type Document struct {
	ID         string `json:"id,omitempty"`
	Title      string `json:"title"`
	TemplateID string `json:"templateId"`
	Content
}

// Content is the résumé body persisted by the backend as cv_data.
type Content struct {
	PersonalInfo   PersonalInfo          `json:"personalInfo"`
	Experience     []Experience          `json:"experience"`
	Education      []Education           `json:"education"`
	Skills         []string              `json:"skills"`
	Certifications []Certification       `json:"certifications"`
	Projects       []Project             `json:"projects"`
	Activities     []Activity            `json:"activities"`
	References     []Reference           `json:"references"`
	Portfolio      []string              `json:"portfolio"`
	PersonalSkills []string              `json:"personalSkills"`
	SectionTitles  map[SectionKey]string `json:"sectionTitles"`
	ThemeColor     string                `json:"themeColor"`
}

// PersonalInfo captures the header block of the résumé.
type PersonalInfo struct {
	Name     string `json:"name" validate:"required"`
	Title    string `json:"title" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	Photo    string `json:"photo"`
	Summary  string `json:"summary"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Website  string `json:"website"`
}

// New returns an empty document with non-nil lists and the default theme.
func New() Document {
	return Document{
		Content: Content{
			Experience:     []Experience{},
			Education:      []Education{},
			Skills:         []string{},
			Certifications: []Certification{},
			Projects:       []Project{},
			Activities:     []Activity{},
			References:     []Reference{},
			Portfolio:      []string{},
			PersonalSkills: []string{},
			SectionTitles:  map[SectionKey]string{},
			ThemeColor:     DefaultThemeColor,
		},
	}
}

// Clone returns a deep copy so drafts never share backing arrays with callers.
func (d Document) Clone() Document {
	out := d
	out.Experience = make([]Experience, len(d.Experience))
	for i, exp := range d.Experience {
		exp.Responsibilities = append([]string{}, exp.Responsibilities...)
		out.Experience[i] = exp
	}
	out.Education = append([]Education{}, d.Education...)
	out.Skills = append([]string{}, d.Skills...)
	out.Certifications = append([]Certification{}, d.Certifications...)
	out.Projects = append([]Project{}, d.Projects...)
	out.Activities = append([]Activity{}, d.Activities...)
	out.References = append([]Reference{}, d.References...)
	out.Portfolio = append([]string{}, d.Portfolio...)
	out.PersonalSkills = append([]string{}, d.PersonalSkills...)
	out.SectionTitles = make(map[SectionKey]string, len(d.SectionTitles))
	for k, v := range d.SectionTitles {
		out.SectionTitles[k] = v
	}
	return out
}

// Template is a backend-owned HTML/CSS shell used for exports.
type Template struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description,omitempty"`
	PreviewImage string `json:"previewImage,omitempty"`
	IsActive     bool   `json:"isActive"`
}

// StoredCV is a CV record owned by the backend.
type StoredCV struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	TemplateID string    `json:"templateId"`
	Title      string    `json:"title"`
	Document   Document  `json:"document"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ActiveTemplates filters templates down to those offered to end users.
func ActiveTemplates(templates []Template) []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		if t.IsActive {
			out = append(out, t)
		}
	}
	return out
}
