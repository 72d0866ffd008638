package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelation_Holds(t *testing.T) {
	tests := []struct {
		rel            Relation
		value, compare int
		want           bool
	}{
		{Eq, 3, 3, true},
		{Eq, 3, 4, false},
		{Gt, 5, 4, true},
		{Gt, 4, 4, false},
		{Ge, 4, 4, true},
		{Lt, 1, 2, true},
		{Lt, 2, 2, false},
		{Le, 2, 2, true},
		{Le, 3, 2, false},
	}
	for _, tt := range tests {
		t.Run(tt.rel.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.rel.Holds(tt.value, tt.compare))
		})
	}
}

func TestParseRelation(t *testing.T) {
	for _, rel := range Relations {
		byName, err := ParseRelation(rel.String())
		require.NoError(t, err)
		assert.Equal(t, rel, byName)
	}
	for symbol, want := range map[string]Relation{"==": Eq, ">": Gt, ">=": Ge, "<": Lt, "<=": Le} {
		got, err := ParseRelation(symbol)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseRelation("~")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestRelation_Symbol(t *testing.T) {
	assert.Equal(t, "", Eq.Symbol())
	assert.Equal(t, ">=", Ge.Symbol())
	assert.Equal(t, "relation(42)", Relation(42).String())
}
