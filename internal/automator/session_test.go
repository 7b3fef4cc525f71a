package automator

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveTargetList(t *testing.T, body string) (host string, port int) {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/json", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}))
	t.Cleanup(ts.Close)

	u, err := url.Parse(ts.URL)
	require.NoError(t, err)
	port, err = strconv.Atoi(u.Port())
	require.NoError(t, err)
	return u.Hostname(), port
}

func TestFetchTargetsDecodesList(t *testing.T) {
	host, port := serveTargetList(t, `[
		{"id":"svc1","type":"service_worker","url":"chrome-extension://x","title":"ext"},
		{"id":"page1","type":"page","url":"vscode-file://vscode-app/workbench.html","title":"workbench","webSocketDebuggerUrl":"ws://localhost/devtools/page/page1"}
	]`)

	targets, err := fetchTargets(context.Background(), host, port)

	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "service_worker", targets[0].Type)
	assert.Equal(t, "ws://localhost/devtools/page/page1", targets[1].WebSocketDebuggerURL)
}

func TestFetchTargetsRejectsMalformedBody(t *testing.T) {
	host, port := serveTargetList(t, `{"not":"a list"}`)

	_, err := fetchTargets(context.Background(), host, port)
	assert.Error(t, err)
}

func TestFirstPageTargetSkipsNonPages(t *testing.T) {
	targets := []debugTarget{
		{ID: "a", Type: "service_worker"},
		{ID: "b", Type: "iframe"},
		{ID: "c", Type: "page", Title: "workbench"},
		{ID: "d", Type: "page", Title: "second"},
	}

	page := firstPageTarget(targets)

	require.NotNil(t, page)
	assert.Equal(t, "c", page.ID)
}

func TestFirstPageTargetEmpty(t *testing.T) {
	assert.Nil(t, firstPageTarget(nil))
	assert.Nil(t, firstPageTarget([]debugTarget{{ID: "a", Type: "iframe"}}))
}

func TestBindFailsWithoutPageTarget(t *testing.T) {
	host, port := serveTargetList(t, `[{"id":"w","type":"service_worker"}]`)

	_, err := Bind(context.Background(), host, port)

	var noPage *NoPageFoundError
	require.ErrorAs(t, err, &noPage)
	assert.Equal(t, port, noPage.Port)
}
