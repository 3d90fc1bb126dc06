package school

import "fmt"

const DefaultSchoolType = "private"

// queryTemplates are interpolated with the school type then the region.
var queryTemplates = []string{
	"%[1]s schools in %[2]s Ethiopia phone number",
	"%[1]s academies in %[2]s contact",
	"list of %[1]s schools in %[2]s",
}

// Query describes which schools to look for.
type Query struct {
	Region     string
	SchoolType string
}

// Strings returns the search queries to issue, in order.
func (q Query) Strings() []string {
	schoolType := q.SchoolType
	if schoolType == "" {
		schoolType = DefaultSchoolType
	}

	queries := make([]string, 0, len(queryTemplates))
	for _, tmpl := range queryTemplates {
		queries = append(queries, fmt.Sprintf(tmpl, schoolType, q.Region))
	}

	return queries
}
