package automator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestWaitSelectorRejectsUnknownState(t *testing.T) {
	err := WaitSelector(context.Background(), selectorChatInput, SelectorState("bogus"), time.Second)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown selector state")
}
