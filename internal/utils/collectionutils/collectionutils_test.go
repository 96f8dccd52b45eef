package collectionutils_test

import (
	"testing"

	"conduit/internal/utils/collectionutils"

	"github.com/stretchr/testify/assert"
)

func TestGetOrDefault(t *testing.T) {
	m := map[string]string{"present": "value"}

	assert.Equal(t, "value", collectionutils.GetOrDefault(m, "present", "fallback"))
	assert.Equal(t, "fallback", collectionutils.GetOrDefault(m, "absent", "fallback"))
}

func TestGetOrDefaultNilMap(t *testing.T) {
	var m map[string]int

	assert.Equal(t, 7, collectionutils.GetOrDefault(m, "anything", 7))
}
