package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr error
	}{
		{in: "class", want: KindClass},
		{in: " Group ", want: KindGroup},
		{in: "", wantErr: ErrInvalidKind},
		{in: "team", wantErr: ErrInvalidKind},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		assert.Equal(t, tt.wantErr, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "classes", KindClass.Plural())
	assert.Equal(t, "groups", KindGroup.Plural())
}
