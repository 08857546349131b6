package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"revflow/internal/errors"
	"revflow/internal/model"
)

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"simple file", "a.go", false},
		{"nested path", "src/pkg/a.go", false},
		{"empty", "", true},
		{"absolute", "/src/a.go", true},
		{"parent segment", "src/../a.go", true},
		{"dot segment", "./a.go", true},
		{"empty segment", "src//a.go", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.path)
			if tt.wantErr {
				require.Error(t, err)
				apiErr, ok := err.(*errors.Error)
				require.True(t, ok)
				assert.Equal(t, errors.ErrorTypeValidation, apiErr.Type)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseRevision(t *testing.T) {
	rev, err := ParseRevision("r42")
	require.NoError(t, err)
	assert.Equal(t, model.NewRevision(42), rev)

	rev, err = ParseRevision("local")
	require.NoError(t, err)
	assert.True(t, rev.IsLocal())

	_, err = ParseRevision("banana")
	require.Error(t, err)
	apiErr, ok := err.(*errors.Error)
	require.True(t, ok)
	assert.Equal(t, errors.ErrorTypeValidation, apiErr.Type)
}
