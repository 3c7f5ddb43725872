package audit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFiltersWindowDefaults(t *testing.T) {
	limit, offset := Filters{}.window()
	assert.Equal(t, 20, limit)
	assert.Equal(t, 0, offset)
}

func TestFiltersWindowClampsPageSize(t *testing.T) {
	limit, _ := Filters{PageSize: 500}.window()
	assert.Equal(t, 50, limit)
}

func TestFiltersWindowOffset(t *testing.T) {
	limit, offset := Filters{Page: 3, PageSize: 10}.window()
	assert.Equal(t, 10, limit)
	assert.Equal(t, 20, offset)
}
