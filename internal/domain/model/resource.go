package model

import (
	"strings"
	"time"
)

type ResourceSection string

const (
	SectionDSA          ResourceSection = "dsa"
	SectionOS           ResourceSection = "os"
	SectionCN           ResourceSection = "cn"
	SectionDBMS         ResourceSection = "dbms"
	SectionSystemDesign ResourceSection = "system-design"
	SectionInterview    ResourceSection = "interview"
	SectionCompanyWise  ResourceSection = "company-wise"
)

func (s ResourceSection) Valid() bool {
	switch s {
	case SectionDSA, SectionOS, SectionCN, SectionDBMS, SectionSystemDesign, SectionInterview, SectionCompanyWise:
		return true
	}
	return false
}

type Resource struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	URL       string          `json:"url"`
	Note      string          `json:"note"`
	Section   ResourceSection `json:"section"`
	Tags      []string        `json:"tags"`
	Company   string          `json:"company,omitempty"`
	CreatedBy string          `json:"createdBy"`
	Approved  bool            `json:"approved"`
	Clicks    int             `json:"clicks"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// ResourceFilter narrows resource listings. A nil Approved lists both states.
type ResourceFilter struct {
	Query    string
	Section  ResourceSection
	Tags     []string
	Company  string
	Approved *bool
	Limit    int
}

// Matches applies the filter to a single resource. It mirrors the SQL
// built by the Postgres repository.
func (f ResourceFilter) Matches(r *Resource) bool {
	if f.Approved != nil && r.Approved != *f.Approved {
		return false
	}
	if f.Section != "" && r.Section != f.Section {
		return false
	}
	if f.Company != "" && r.Company != f.Company {
		return false
	}
	if len(f.Tags) > 0 && !anyTag(r.Tags, f.Tags) {
		return false
	}
	if q := strings.ToLower(f.Query); q != "" {
		hit := false
		for _, field := range []string{r.Title, r.Note, string(r.Section), r.Company} {
			if strings.Contains(strings.ToLower(field), q) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	return true
}

func anyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}
	return false
}

// NormalizeTags trims, lowercases and deduplicates tags, dropping empty
// ones and keeping first-occurrence order. It is idempotent.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
