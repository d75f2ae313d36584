package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email    string `validate:"required"`
	Password string `validate:"required"`
	Name     string
}

func TestStruct(t *testing.T) {
	tests := []struct {
		name   string
		in     sample
		fields []string
	}{
		{"complete", sample{Email: "a@b.c", Password: "x"}, nil},
		{"missing password", sample{Email: "a@b.c"}, []string{"Password:required"}},
		{"missing both", sample{Name: "n"}, []string{"Email:required", "Password:required"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Struct(tt.in)
			if tt.fields == nil {
				assert.NoError(t, err)
				return
			}
			assert.Equal(t, tt.fields, Fields(err))
		})
	}
}
