package model

// Normalize prepares a document for persistence. Repeatable entries whose every field is
// the empty string are dropped, as are empty portfolio and personal-skill lines. Entries
// with any content, including whitespace, are kept verbatim. Skills are left untouched.
func Normalize(doc Document) Document {
	out := doc.Clone()
	out.Experience = dropEmpty(out.Experience)
	out.Education = dropEmpty(out.Education)
	out.Certifications = dropEmpty(out.Certifications)
	out.Projects = dropEmpty(out.Projects)
	out.Activities = dropEmpty(out.Activities)
	out.References = dropEmpty(out.References)
	out.Portfolio = dropBlankLines(out.Portfolio)
	out.PersonalSkills = dropBlankLines(out.PersonalSkills)
	return out
}

type emptiable interface {
	IsEmpty() bool
}

func dropEmpty[T emptiable](entries []T) []T {
	out := make([]T, 0, len(entries))
	for _, entry := range entries {
		if entry.IsEmpty() {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func dropBlankLines(lines []string) []string {
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}
