package automator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
)

const (
	// Entity values of a classified chat message.
	EntityUser      = "user"
	EntityAssistant = "assistant"

	scrollIncrement  = 200 // px per tick
	scrollSettleMs   = 200 // host re-render window per tick
	unchangedToStop  = 3   // consecutive unmoved scrollTops = bottom reached
	maxScrollTicks   = 600 // hard ceiling against perpetual scroll jitter
	extractionBudget = 3 * time.Minute
)

// ChatMessage is one classified entry of the chat transcript. Immutable once
// created; ordering is DOM row order at collection time.
type ChatMessage struct {
	Entity  string `json:"entity"`
	Message string `json:"message"`
}

// rawRow is what the in-document collector reports per rendered list row.
type rawRow struct {
	RowID string `json:"rowId"`
	Kind  string `json:"kind"`
	Text  string `json:"text"`
}

// ExtractTranscript harvests every chat entry from the virtualized message
// list. The whole harvest runs as one awaited script evaluation inside the
// document: a mutation observer re-collects rows as virtualization renders
// them while the script scrolls the container until the bottom is reached.
// "Chat not open" is a valid precondition and yields an empty transcript,
// not an error.
func ExtractTranscript(ctx context.Context) ([]ChatMessage, error) {
	evalCtx, cancel := context.WithTimeout(ctx, extractionBudget)
	defer cancel()

	var rows []rawRow
	err := chromedp.Run(evalCtx,
		chromedp.Evaluate(extractionScript(), &rows,
			func(p *runtime.EvaluateParams) *runtime.EvaluateParams {
				return p.WithAwaitPromise(true)
			}),
	)
	if err != nil {
		return nil, fmt.Errorf("transcript extraction failed: %w", err)
	}

	messages := buildTranscript(rows)
	log.Printf("📝 Extracted %d chat messages (%d raw rows)", len(messages), len(rows))
	return messages, nil
}

// buildTranscript classifies raw rows into chat messages. Rows deduplicate
// by row id, never by text - two distinct turns may carry identical text.
// Rows matching neither role (separators, headers) are dropped.
func buildTranscript(rows []rawRow) []ChatMessage {
	messages := make([]ChatMessage, 0, len(rows))
	seen := make(map[string]bool, len(rows))

	for _, row := range rows {
		if row.RowID == "" || seen[row.RowID] {
			continue
		}
		switch row.Kind {
		case EntityUser, EntityAssistant:
			messages = append(messages, ChatMessage{Entity: row.Kind, Message: row.Text})
			seen[row.RowID] = true
		}
	}
	return messages
}

// extractionScript builds the in-document harvest routine. The scroll loop
// yields for scrollSettleMs per tick so the host can materialize rows, and
// stops after unchangedToStop unmoved scrollTops or maxScrollTicks total -
// the ceiling guarantees termination even if unrelated UI activity keeps
// nudging the scroll position.
func extractionScript() string {
	return fmt.Sprintf(`
(async () => {
	const session = document.querySelector('%s');
	if (!session) return [];
	const scrollable = session.querySelector('%s');
	if (!scrollable) return [];
	const rowsContainer = scrollable.querySelector('%s');
	if (!rowsContainer) return [];

	const collected = [];
	const seen = new Set();

	const collect = () => {
		rowsContainer.querySelectorAll('%s').forEach(row => {
			const rowId = row.getAttribute('id');
			if (!rowId || seen.has(rowId)) return;
			const user = row.querySelector('%s');
			if (user) {
				collected.push({ rowId, kind: 'user', text: user.textContent?.trim() ?? '' });
				seen.add(rowId);
				return;
			}
			const reply = row.querySelector('%s');
			const loading = row.querySelector('%s');
			if (reply && !loading) {
				const text = reply.textContent?.trim() ?? '';
				if (text && text.toLowerCase() !== 'working') {
					collected.push({ rowId, kind: 'assistant', text });
					seen.add(rowId);
				}
			}
		});
	};

	const observer = new MutationObserver(() => collect());
	observer.observe(rowsContainer, { childList: true, subtree: true });
	collect();

	let lastScrollTop = -1;
	let unchanged = 0;
	let ticks = 0;
	while (unchanged < %d && ticks < %d) {
		scrollable.scrollTop += %d;
		await new Promise(resolve => setTimeout(resolve, %d));
		if (scrollable.scrollTop === lastScrollTop) {
			unchanged++;
		} else {
			unchanged = 0;
			lastScrollTop = scrollable.scrollTop;
		}
		ticks++;
	}

	collect();
	observer.disconnect();
	return collected;
})()
`,
		selectorChatSession,
		selectorScrollable,
		selectorRowsContainer,
		selectorListRow,
		selectorUserMessage,
		selectorAssistantReply,
		selectorReplyLoading,
		unchangedToStop,
		maxScrollTicks,
		scrollIncrement,
		scrollSettleMs,
	)
}
