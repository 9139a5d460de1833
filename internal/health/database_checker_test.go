package health

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taoyao-code/jt808-server/internal/storage/storagetest"
)

func TestDatabaseChecker(t *testing.T) {
	pool := storagetest.OpenPool(t)

	res := NewDatabaseChecker(pool).Check(context.Background())
	assert.NotEqual(t, StatusUnhealthy, res.Status, res.Message)
	assert.Contains(t, res.Details, "max_conns")
}
