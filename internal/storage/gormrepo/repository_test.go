package gormrepo

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/taoyao-code/jt808-server/internal/storage/storagetest"
)

func TestRepository(t *testing.T) {
	pool := storagetest.OpenPool(t)
	db, err := Open(pool)
	require.NoError(t, err)
	storagetest.RunTerminalRepo(t, New(db))
}
