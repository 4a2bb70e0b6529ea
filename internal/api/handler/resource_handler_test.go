package handler

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryTags(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"absent", "", nil},
		{"single", "tags=dp", []string{"dp"}},
		{"comma list", "tags=dp,graphs", []string{"dp", "graphs"}},
		{"repeated", "tags=dp&tags=graphs", []string{"dp", "graphs"}},
		{"mixed", "tags=dp,os&tags=graphs", []string{"dp", "os", "graphs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := url.ParseQuery(tt.query)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, queryTags(q))
		})
	}
}
