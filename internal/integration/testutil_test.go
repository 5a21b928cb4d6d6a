package integration_test

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"

	"pkt.systems/inkbridge"
	"pkt.systems/inkbridge/httpapi"
	"pkt.systems/inkbridge/internal/chromesurface"
	"pkt.systems/inkbridge/schema"
	"pkt.systems/inkbridge/wire"
)

type testServer struct {
	server inkbridge.Server
	url    string
}

func newTestServer(t *testing.T, stateDir string) *testServer {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	server, err := inkbridge.New(inkbridge.ServerConfig{
		Host: schema.HostConfig{StateDir: stateDir, Placeholder: "Write here"},
		HTTP: httpapi.Config{OutboxHistory: 100, StreamDepth: 64},
	}, inkbridge.ServerDeps{}, inkbridge.WithListener(ln))
	if err != nil {
		_ = ln.Close()
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := server.Start(ctx); err != nil {
		cancel()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		_ = server.Stop(stopCtx)
		cancel()
	})
	return &testServer{server: server, url: "http://" + ln.Addr().String()}
}

func (ts *testServer) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.url+path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, data
}

func (ts *testServer) snapshot(t *testing.T, doc string) schema.DocumentSnapshot {
	t.Helper()
	status, data := ts.do(t, http.MethodGet, "/api/documents/"+doc, "")
	if status != http.StatusOK {
		t.Fatalf("unexpected snapshot status %d: %s", status, strings.TrimSpace(string(data)))
	}
	var snap schema.DocumentSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		t.Fatal(err)
	}
	return snap
}

func (ts *testServer) waitForSnapshot(t *testing.T, doc string, timeout time.Duration, match func(schema.DocumentSnapshot) bool) schema.DocumentSnapshot {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		snap := ts.snapshot(t, doc)
		if match(snap) {
			return snap
		}
		if time.Now().After(deadline) {
			raw, _ := json.Marshal(snap)
			t.Fatalf("snapshot did not converge: %s", raw)
		}
		time.Sleep(25 * time.Millisecond)
	}
}

type streamView struct {
	surface string
	events  chan httpapi.StreamEvent
	cancel  context.CancelFunc
}

// openView opens an editor surface stream and consumes the attached event.
func (ts *testServer) openView(t *testing.T, doc string) *streamView {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.url+"/api/surfaces/stream?doc="+doc, nil)
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		cancel()
		t.Fatalf("unexpected stream status %d", resp.StatusCode)
	}
	view := &streamView{events: make(chan httpapi.StreamEvent, 64), cancel: cancel}
	go func() {
		defer resp.Body.Close()
		defer close(view.events)
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var event httpapi.StreamEvent
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &event); err != nil {
				continue
			}
			view.events <- event
		}
	}()
	t.Cleanup(cancel)
	attached := view.next(t)
	if attached.Type != "attached" || attached.Surface == "" {
		t.Fatalf("unexpected first stream event %+v", attached)
	}
	view.surface = string(attached.Surface)
	return view
}

func (v *streamView) next(t *testing.T) httpapi.StreamEvent {
	t.Helper()
	select {
	case event, ok := <-v.events:
		if !ok {
			t.Fatalf("stream closed")
		}
		return event
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for stream event")
	}
	return httpapi.StreamEvent{}
}

func (v *streamView) expectScript(t *testing.T, cmd schema.Command) {
	t.Helper()
	want, err := wire.Encode(cmd)
	if err != nil {
		t.Fatal(err)
	}
	event := v.next(t)
	if event.Type != "script" || event.Script != want {
		t.Fatalf("surface %s: got %+v, want script %q", v.surface, event, want)
	}
}

func (ts *testServer) post(t *testing.T, v *streamView, body string) {
	t.Helper()
	status, data := ts.do(t, http.MethodPost, "/api/surfaces/"+v.surface+"/events", body)
	if status != http.StatusAccepted {
		t.Fatalf("surface event rejected with %d: %s", status, strings.TrimSpace(string(data)))
	}
}

func requireLong(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
}

func requireChrome(t *testing.T) string {
	t.Helper()
	path, err := chromesurface.FindExec("")
	if err != nil {
		t.Skip("chrome not available")
	}
	return path
}

func newChromedpContext(t *testing.T, execPath string) (context.Context, context.CancelFunc) {
	t.Helper()
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.ExecPath(execPath),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	ctx, ctxCancel := chromedp.NewContext(allocCtx)
	ctx, timeoutCancel := context.WithTimeout(ctx, 30*time.Second)
	return ctx, func() {
		timeoutCancel()
		ctxCancel()
		allocCancel()
	}
}

// waitForExpression polls a JS expression until it evaluates to want.
func waitForExpression(ctx context.Context, expression, want string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	var got string
	for {
		if err := chromedp.Run(ctx, chromedp.Evaluate(expression, &got)); err != nil {
			return err
		}
		if got == want {
			return nil
		}
		if time.Now().After(deadline) {
			return &expressionTimeout{expression: expression, want: want, got: got}
		}
		time.Sleep(50 * time.Millisecond)
	}
}

type expressionTimeout struct {
	expression string
	want       string
	got        string
}

func (e *expressionTimeout) Error() string {
	return "timed out waiting for " + e.expression + " = " + e.want + " (last " + e.got + ")"
}
