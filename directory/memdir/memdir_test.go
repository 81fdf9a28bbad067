package memdir

import (
	"testing"

	"github.com/MrEthical07/credflow/directory/directorytest"
)

func TestDirectory(t *testing.T) {
	directorytest.Run(t, New())
}
