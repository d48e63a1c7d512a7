package search

import (
	"testing"

	"github.com/standardbeagle/litgrep/testhelpers"
)

func TestMain(m *testing.M) {
	testhelpers.VerifyNoLeaks(m)
}
