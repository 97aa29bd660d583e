package model

// Experience is a work history entry.
type Experience struct {
	Position         string   `json:"position"`
	Company          string   `json:"company"`
	StartDate        string   `json:"startDate"`
	EndDate          string   `json:"endDate"`
	Location         string   `json:"location"`
	Description      string   `json:"description"`
	Responsibilities []string `json:"responsibilities"`
}

// IsEmpty reports whether every field is the empty string. Whitespace counts as content.
func (e Experience) IsEmpty() bool {
	if !allEmpty(e.Position, e.Company, e.StartDate, e.EndDate, e.Location, e.Description) {
		return false
	}
	return allEmpty(e.Responsibilities...)
}

// Education is an education entry.
type Education struct {
	Degree         string `json:"degree"`
	Institution    string `json:"institution"`
	GraduationDate string `json:"graduationDate"`
	GPA            string `json:"gpa"`
	Details        string `json:"details"`
}

func (e Education) IsEmpty() bool {
	return allEmpty(e.Degree, e.Institution, e.GraduationDate, e.GPA, e.Details)
}

// Certification is a certification or license.
type Certification struct {
	Name         string `json:"name"`
	Issuer       string `json:"issuer"`
	Date         string `json:"date"`
	CredentialID string `json:"credentialId"`
	URL          string `json:"url"`
}

func (c Certification) IsEmpty() bool {
	return allEmpty(c.Name, c.Issuer, c.Date, c.CredentialID, c.URL)
}

// Project is a notable project.
type Project struct {
	Name         string `json:"name"`
	Role         string `json:"role"`
	Technologies string `json:"technologies"`
	Date         string `json:"date"`
	URL          string `json:"url"`
	Description  string `json:"description"`
}

func (p Project) IsEmpty() bool {
	return allEmpty(p.Name, p.Role, p.Technologies, p.Date, p.URL, p.Description)
}

// Activity is a volunteer or extracurricular activity.
type Activity struct {
	Title        string `json:"title"`
	Organization string `json:"organization"`
	Date         string `json:"date"`
	Description  string `json:"description"`
}

func (a Activity) IsEmpty() bool {
	return allEmpty(a.Title, a.Organization, a.Date, a.Description)
}

// Reference is a professional reference.
type Reference struct {
	Name     string `json:"name"`
	Position string `json:"position"`
	Company  string `json:"company"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

func (r Reference) IsEmpty() bool {
	return allEmpty(r.Name, r.Position, r.Company, r.Email, r.Phone)
}

func allEmpty(values ...string) bool {
	for _, v := range values {
		if v != "" {
			return false
		}
	}
	return true
}
