package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, PageSize: 10}.Offset())
	assert.Equal(t, 10, PageRequest{Page: 2, PageSize: 10}.Offset())
	assert.Equal(t, 0, PageRequest{}.Offset())
	assert.Equal(t, DefaultPageSize, PageRequest{}.Limit())
	assert.Equal(t, MaxPageSize, PageRequest{PageSize: 500}.Limit())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 25)
	assert.Equal(t, Pagination{Page: 2, PerPage: 10, Total: 25, TotalPages: 3}, p)

	empty := NewPagination(0, 0, 0)
	assert.Equal(t, DefaultPage, empty.Page)
	assert.Equal(t, 0, empty.TotalPages)
}
