package failure

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidation_ErrIsNilWithoutViolations(t *testing.T) {
	var v Validation
	assert.NoError(t, v.Err())

	v.Add("title", "required", "title is required")
	err := v.Err()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "title: title is required")
}

func TestStorageFault_UnwrapKeepsDriverError(t *testing.T) {
	driver := errors.New("connection reset")
	err := fmt.Errorf("create book: %w", Storage("create", "book", driver))

	var sf *StorageFault
	assert.True(t, errors.As(err, &sf))
	assert.Equal(t, TagUnknown, sf.Tag)
	assert.ErrorIs(t, err, driver)
}

func TestMessages(t *testing.T) {
	assert.Equal(t, "book 999 not found", NewNotFound("book", 999).Error())
	assert.Equal(t, "storage get book 7 (record_missing)", RecordMissing("get", "book", 7).Error())
	assert.Equal(t, "book 1 already exists", (&AlreadyExists{Resource: "book", ID: 1}).Error())
	assert.Equal(t, "year must be in the past", NewBusinessRule("year", "year must be in the %s", "past").Error())
}
