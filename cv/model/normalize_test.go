package model

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDropsOnlyFullyEmptyEntries(t *testing.T) {
	doc := New()
	doc.Experience = []Experience{
		{},
		{Company: "Acme", Responsibilities: []string{"Ship it"}},
		{Responsibilities: []string{"", ""}},
	}
	doc.Education = []Education{{}, {Degree: "BSc"}}
	doc.Certifications = []Certification{{}, {Issuer: "AWS"}}
	doc.Projects = []Project{{URL: "https://example.org"}, {}}
	doc.Activities = []Activity{{}}
	doc.References = []Reference{{Phone: "+880"}, {}}
	doc.Portfolio = []string{"", "https://portfolio.example", ""}
	doc.PersonalSkills = []string{"Teamwork", ""}

	got := Normalize(doc)

	want := doc.Clone()
	want.Experience = []Experience{{Company: "Acme", Responsibilities: []string{"Ship it"}}}
	want.Education = []Education{{Degree: "BSc"}}
	want.Certifications = []Certification{{Issuer: "AWS"}}
	want.Projects = []Project{{URL: "https://example.org"}}
	want.Activities = []Activity{}
	want.References = []Reference{{Phone: "+880"}}
	want.Portfolio = []string{"https://portfolio.example"}
	want.PersonalSkills = []string{"Teamwork"}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Normalize mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeKeepsEntryWithOnlyLocation(t *testing.T) {
	doc := New()
	doc.Experience = []Experience{{Location: "Dhaka", Responsibilities: []string{}}}

	got := Normalize(doc)

	require.Len(t, got.Experience, 1)
	assert.Equal(t, "Dhaka", got.Experience[0].Location)
	assert.Empty(t, got.Experience[0].Position)
}

func TestNormalizeTreatsWhitespaceAsContent(t *testing.T) {
	doc := New()
	doc.Education = []Education{{Details: " "}}
	doc.Portfolio = []string{" "}

	got := Normalize(doc)

	assert.Len(t, got.Education, 1)
	assert.Equal(t, []string{" "}, got.Portfolio)
}

func TestNormalizeLeavesSkillsAndInputUntouched(t *testing.T) {
	doc := New()
	doc.Skills = []string{"Go", "", "Go"}
	doc.Experience = []Experience{{}}

	got := Normalize(doc)

	assert.Equal(t, []string{"Go", "", "Go"}, got.Skills)
	assert.Len(t, doc.Experience, 1, "input document must not be mutated")
	assert.Empty(t, got.Experience)
}
