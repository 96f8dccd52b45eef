package stringutils_test

import (
	"testing"

	"conduit/internal/utils/stringutils"

	"github.com/stretchr/testify/assert"
)

func TestINClause(t *testing.T) {
	placeholders, args := stringutils.INClause([]string{"a", "b", "c"})

	assert.Equal(t, []string{"$1", "$2", "$3"}, placeholders)
	assert.Equal(t, []any{"a", "b", "c"}, args)
}

func TestINClauseEmpty(t *testing.T) {
	placeholders, args := stringutils.INClause([]string{})

	assert.Empty(t, placeholders)
	assert.Empty(t, args)
}
