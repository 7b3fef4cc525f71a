package automator

// DOM contract with the VS Code workbench. These match the current markup of
// the Copilot chat panel and must be kept in sync with the target version.
const (
	selectorWorkbench      = ".monaco-workbench"
	selectorChatSession    = "div.interactive-session"
	selectorChatInput      = "div.chat-input-container"
	selectorSendButton     = "a.action-label.codicon.codicon-send"
	selectorPickerPopup    = "div.context-view div.monaco-list"
	selectorScrollable     = "div.interactive-list div.monaco-list div.monaco-scrollable-element"
	selectorRowsContainer  = "div.monaco-list-rows"
	selectorListRow        = "div.monaco-list-row"
	selectorUserMessage    = ".interactive-request .rendered-markdown"
	selectorAssistantReply = ".interactive-response .rendered-markdown"
	selectorReplyLoading   = ".interactive-response .codicon-loading"

	// Accessible names of the two chat pickers.
	pickerModel = "Pick Model"
	pickerMode  = "Set Mode"
)

// pickerSelector locates a picker affordance by accessible-name substring.
func pickerSelector(ariaLabel string) string {
	return `a.action-label[aria-label*="` + ariaLabel + `"]`
}

// pickerOptionSelector locates a popup row by exact accessible name.
func pickerOptionSelector(label string) string {
	return `div.monaco-list-row.action[aria-label="` + label + `"]`
}
