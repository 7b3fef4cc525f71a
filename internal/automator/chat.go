package automator

import (
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
)

// Interaction budgets. The picker wait is long because the workbench loads
// the model list lazily; the option wait is tight because the popup is
// already open and fully rendered by then. The reshow wait is the turn
// completion budget and has to absorb arbitrarily long response generation.
const (
	chatOpenTimeout     = 5 * time.Second
	pickerTimeout       = 60 * time.Second
	pickerPopupTimeout  = 10 * time.Second
	pickerOptionTimeout = 100 * time.Millisecond
	inputTimeout        = 1 * time.Second
	sendVisibleTimeout  = 1 * time.Second
	sendHideTimeout     = 1 * time.Second
	sendReshowTimeout   = 60 * time.Second
)

// Chat drives the Copilot chat panel of a bound session. One Chat per
// session; calls must be serialized by the caller.
type Chat struct {
	session *Session
}

func NewChat(session *Session) *Chat {
	return &Chat{session: session}
}

// Open raises the chat surface with its keyboard shortcut and verifies the
// chat root becomes visible. Failure is fatal for this call only; the
// caller may retry the whole sequence on a still-healthy session.
func (c *Chat) Open() error {
	log.Printf("💬 Opening chat panel...")
	err := chromedp.Run(c.session.ctx,
		chromedp.KeyEvent("i", chromedp.KeyModifiers(input.ModifierCtrl, input.ModifierAlt)),
	)
	if err != nil {
		return fmt.Errorf("failed to dispatch chat shortcut: %w", err)
	}

	if err := WaitSelector(c.session.ctx, selectorChatSession, StateVisible, chatOpenTimeout); err != nil {
		return &ChatUnavailableError{Err: err}
	}
	return nil
}

// PickModel selects the named model from the model picker popup.
func (c *Chat) PickModel(label string) error {
	return c.pick(pickerModel, label)
}

// PickMode selects the named mode (e.g. "Agent") from the mode picker popup.
func (c *Chat) PickMode(label string) error {
	return c.pick(pickerMode, label)
}

// pick opens the picker identified by its accessible name, clicks the row
// whose accessible name equals label, then reads the picker's displayed text
// back and compares it case-sensitively against the request.
func (c *Chat) pick(picker, label string) error {
	ctx := c.session.ctx
	pickerSel := pickerSelector(picker)

	if err := WaitSelector(ctx, pickerSel, StateVisible, pickerTimeout); err != nil {
		return err
	}
	if err := chromedp.Run(ctx, chromedp.Click(pickerSel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to open %s picker: %w", picker, err)
	}

	if err := WaitSelector(ctx, selectorPickerPopup, StateVisible, pickerPopupTimeout); err != nil {
		return err
	}

	optionSel := selectorPickerPopup + " " + pickerOptionSelector(label)
	if err := WaitSelector(ctx, optionSel, StateVisible, pickerOptionTimeout); err != nil {
		return &ModelSelectionMismatchError{Picker: picker, Requested: label, Got: ""}
	}
	if err := chromedp.Run(ctx, chromedp.Click(optionSel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click %s option %q: %w", picker, label, err)
	}

	var selected string
	if err := chromedp.Run(ctx, chromedp.Text(pickerSel, &selected, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to read back %s picker: %w", picker, err)
	}
	if selected != label {
		return &ModelSelectionMismatchError{Picker: picker, Requested: label, Got: selected}
	}

	log.Printf("✅ %s set to %q", picker, label)
	return nil
}

// Write types the message into the input region, keystroke by keystroke.
// Newlines become Shift+Enter so the editor inserts a line break instead of
// submitting. Input correctness (length limits etc.) is the caller's
// responsibility.
func (c *Chat) Write(message string) error {
	ctx := c.session.ctx

	if err := WaitSelector(ctx, selectorChatInput, StateVisible, inputTimeout); err != nil {
		return err
	}
	if err := chromedp.Run(ctx, chromedp.Click(selectorChatInput, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to focus chat input: %w", err)
	}

	for _, r := range message {
		var action chromedp.Action
		if r == '\n' {
			action = chromedp.KeyEvent(kb.Enter, chromedp.KeyModifiers(input.ModifierShift))
		} else {
			action = chromedp.KeyEvent(string(r))
		}
		if err := chromedp.Run(ctx, action); err != nil {
			return fmt.Errorf("failed to type message: %w", err)
		}
	}
	return nil
}

// Send clicks the send affordance and awaits turn completion. The workbench
// exposes no explicit "done" event; the affordance is hidden while a turn is
// in flight and visible again once idle, so its hide→show cycle is the
// completion signal. Failure is never silently retried - message state on
// the target is ambiguous.
func (c *Chat) Send() error {
	ctx := c.session.ctx

	if err := WaitSelector(ctx, selectorSendButton, StateVisible, sendVisibleTimeout); err != nil {
		return err
	}
	if err := chromedp.Run(ctx, chromedp.Click(selectorSendButton, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("failed to click send: %w", err)
	}

	return c.awaitTurnCompletion()
}

// awaitTurnCompletion is the single place that knows about the implicit
// send-affordance state flag. If the workbench ever exposes a real
// completion event, only this call site changes.
func (c *Chat) awaitTurnCompletion() error {
	ctx := c.session.ctx

	if err := WaitSelector(ctx, selectorSendButton, StateHidden, sendHideTimeout); err != nil {
		return &SendNotConfirmedError{Phase: "hide", Err: err}
	}
	log.Printf("⏳ Turn in flight, waiting for completion...")

	if err := WaitSelector(ctx, selectorSendButton, StateVisible, sendReshowTimeout); err != nil {
		return &SendNotConfirmedError{Phase: "reshow", Err: err}
	}
	log.Printf("✅ Turn completed")
	return nil
}
