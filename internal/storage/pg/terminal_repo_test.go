package pg

import (
	"testing"

	"github.com/taoyao-code/jt808-server/internal/storage/storagetest"
)

func TestTerminalRepo(t *testing.T) {
	pool := storagetest.OpenPool(t)
	storagetest.RunTerminalRepo(t, NewTerminalRepo(pool))
}
