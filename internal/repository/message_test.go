package repository

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/Ramoniswack/Job-Portal-sub000/internal/domain"
)

func TestRestoreAscendingReordersCappedPage(t *testing.T) {
	base := time.Now()
	newest := &domain.Message{ID: uuid.New(), Content: "third", CreatedAt: base.Add(2 * time.Second)}
	middle := &domain.Message{ID: uuid.New(), Content: "second", CreatedAt: base.Add(time.Second)}
	oldest := &domain.Message{ID: uuid.New(), Content: "first", CreatedAt: base}

	// A capped fetch arrives newest-first.
	page := []*domain.Message{newest, middle, oldest}
	restoreAscending(page)

	assert.Equal(t, []*domain.Message{oldest, middle, newest}, page)
}

func TestRestoreAscendingHandlesShortPages(t *testing.T) {
	restoreAscending(nil)

	only := &domain.Message{ID: uuid.New(), Content: "only"}
	page := []*domain.Message{only}
	restoreAscending(page)
	assert.Equal(t, []*domain.Message{only}, page)
}
