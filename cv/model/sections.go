package model

// SectionKey identifies a résumé section whose heading can be overridden.
type SectionKey string

const (
	SectionSummary        SectionKey = "summary"
	SectionExperience     SectionKey = "experience"
	SectionEducation      SectionKey = "education"
	SectionSkills         SectionKey = "skills"
	SectionCertifications SectionKey = "certifications"
	SectionProjects       SectionKey = "projects"
	SectionPortfolio      SectionKey = "portfolio"
	SectionPersonalSkills SectionKey = "personalSkills"
	SectionActivities     SectionKey = "activities"
	SectionReferences     SectionKey = "references"
)

var defaultSectionTitles = map[SectionKey]string{
	SectionSummary:        "SUMMARY",
	SectionExperience:     "EXPERIENCE",
	SectionEducation:      "EDUCATION",
	SectionSkills:         "SKILLS",
	SectionCertifications: "CERTIFICATIONS & LICENSES",
	SectionProjects:       "PROJECTS",
	SectionPortfolio:      "PORTFOLIO & WEBSITE",
	SectionPersonalSkills: "PERSONAL SKILLS & COMPETENCES",
	SectionActivities:     "ACTIVITIES",
	SectionReferences:     "REFERENCES",
}

// SectionKeys lists every section in preview order.
var SectionKeys = []SectionKey{
	SectionSummary,
	SectionExperience,
	SectionEducation,
	SectionSkills,
	SectionCertifications,
	SectionProjects,
	SectionPortfolio,
	SectionPersonalSkills,
	SectionActivities,
	SectionReferences,
}

// Valid reports whether k is a known section key.
func (k SectionKey) Valid() bool {
	_, ok := defaultSectionTitles[k]
	return ok
}

// DefaultSectionTitle returns the hard-coded heading for a section.
func DefaultSectionTitle(key SectionKey) string {
	return defaultSectionTitles[key]
}

// SectionTitle returns the user override for key when it is non-empty, else the default.
func (c Content) SectionTitle(key SectionKey) string {
	if title := c.SectionTitles[key]; title != "" {
		return title
	}
	return DefaultSectionTitle(key)
}
