package mem_test

import (
	"testing"

	"github.com/goserg/clubconnect/internal/docstore"
	"github.com/goserg/clubconnect/internal/docstore/mem"
	"github.com/goserg/clubconnect/internal/docstore/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) docstore.Store {
		s := mem.New()
		t.Cleanup(s.Close)
		return s
	})
}
