package helpers

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFoldErrors(t *testing.T) {
	t.Parallel()
	e1 := fmt.Errorf("port=0 invalid")
	e2 := fmt.Errorf("address 100%% empty")
	assert.NoError(t, FoldErrors(nil))
	assert.NoError(t, FoldErrors([]error{nil, nil}))
	assert.Equal(t, e1, FoldErrors([]error{nil, e1}))
	assert.Equal(t, "port=0 invalid\naddress 100% empty", FoldErrors([]error{e1, nil, e2}).Error())
}
