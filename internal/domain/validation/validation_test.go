package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrCollector(t *testing.T) {
	verr := NewError()
	assert.NoError(t, verr.Err(), "empty collector yields no error")

	verr.Add("name", "name is required")
	verr.Add("name", "second message is dropped")
	verr.Add("price", "price must not be negative")

	err := verr.Err()
	assert.Error(t, err)
	assert.Equal(t, "name is required", verr.Fields["name"])
	assert.Len(t, verr.Fields, 2)
	assert.Equal(t, "validation failed: name: name is required; price: price must not be negative", err.Error())
}
