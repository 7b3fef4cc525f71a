package automator

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectorTimeoutErrorCarriesContext(t *testing.T) {
	err := &SelectorTimeoutError{Selector: selectorSendButton, State: StateVisible, Timeout: time.Second}

	assert.Contains(t, err.Error(), selectorSendButton)
	assert.Contains(t, err.Error(), "visible")
	assert.Contains(t, err.Error(), "1s")
}

func TestWorkbenchNotLoadedUnwraps(t *testing.T) {
	inner := &SelectorTimeoutError{Selector: selectorWorkbench, State: StateVisible, Timeout: workbenchTimeout}
	err := fmt.Errorf("bind failed: %w", &WorkbenchNotLoadedError{Err: inner})

	var wb *WorkbenchNotLoadedError
	require.ErrorAs(t, err, &wb)

	var sel *SelectorTimeoutError
	require.ErrorAs(t, err, &sel)
	assert.Equal(t, selectorWorkbench, sel.Selector)
}

func TestModelSelectionMismatchMessage(t *testing.T) {
	err := &ModelSelectionMismatchError{Picker: pickerModel, Requested: "GPT-4.1", Got: "Claude Sonnet 4"}

	assert.Contains(t, err.Error(), `"GPT-4.1"`)
	assert.Contains(t, err.Error(), `"Claude Sonnet 4"`)
}

func TestSendNotConfirmedUnwrapsPhaseError(t *testing.T) {
	inner := &SelectorTimeoutError{Selector: selectorSendButton, State: StateHidden, Timeout: time.Second}
	err := &SendNotConfirmedError{Phase: "hide", Err: inner}

	assert.Contains(t, err.Error(), "hide")
	assert.True(t, errors.As(err, new(*SelectorTimeoutError)))
}

func TestChatUnavailableUnwraps(t *testing.T) {
	inner := &SelectorTimeoutError{Selector: selectorChatSession, State: StateVisible, Timeout: chatOpenTimeout}
	err := &ChatUnavailableError{Err: inner}

	assert.ErrorIs(t, err, err)
	var sel *SelectorTimeoutError
	assert.True(t, errors.As(err, &sel))
}

func TestHiddenExprQuotesSelector(t *testing.T) {
	expr := hiddenExpr(`a.action-label[aria-label*="Pick Model"]`)

	assert.Contains(t, expr, `\"Pick Model\"`)
	assert.Contains(t, expr, "offsetParent === null")
}
