package testkit

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertJSONEqual compares two JSON documents after decoding both, so key
// order and whitespace never matter.
func AssertJSONEqual(t *testing.T, expected, actual []byte) {
	t.Helper()

	var expVal, actVal interface{}
	require.NoError(t, json.Unmarshal(expected, &expVal), "expected is not valid JSON")
	if !assert.NoError(t, json.Unmarshal(actual, &actVal), "actual is not valid JSON\nbody: %s", string(actual)) {
		return
	}
	assert.Equal(t, expVal, actVal)
}

// AssertAllCalled fails the test for every route that was never hit.
func AssertAllCalled(t *testing.T, mt *MockTransport) {
	t.Helper()
	for _, err := range mt.AssertAllCalled() {
		assert.NoError(t, err)
	}
}
