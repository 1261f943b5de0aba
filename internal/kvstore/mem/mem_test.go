package mem

import (
	"testing"

	"github.com/goserg/clubconnect/internal/kvstore/kvtest"
)

func TestStore(t *testing.T) {
	kvtest.Run(t, New())
}
