package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanDirectorName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Jane Smith, PhD", "Jane Smith"},
		{"Jane Smith, Ph.D.", "Jane Smith"},
		{"Dr. John Doe", "John Doe"},
		{"Robert Brown, CPA, MBA", "Robert Brown"},
		{"James Wilson Jr.", "James Wilson Jr."},
		{"James Wilson, Esq.", "James Wilson"},
		{"Mary Jones", "Mary Jones"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanDirectorName(tt.in), "input %q", tt.in)
	}
}

func TestCleanCompanyName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corporation", "Acme"},
		{"Acme, Inc.", "Acme"},
		{"Globex Holdings LLC", "Globex Holdings"},
		{"Initech Co., Ltd.", "Initech"},
		{"Plain Name", "Plain Name"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, CleanCompanyName(tt.in), "input %q", tt.in)
	}
}

func TestBuildQuery(t *testing.T) {
	assert.Equal(t, "Jane Smith Acme", BuildQuery("Jane Smith, PhD", "Acme Inc."))
	assert.Empty(t, BuildQuery("", "Acme Inc."))
	assert.Empty(t, BuildQuery("Jane Smith", ""))
}
