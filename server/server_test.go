package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/benoitkugler/svgmap/mapview"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(New(mapview.Options{}, nil))
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url, contentType string, body io.Reader, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatal(err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: %s", method, url, err)
		}
	}
	return resp.StatusCode
}

func postJSON(t *testing.T, url, body string, out any) int {
	t.Helper()
	return do(t, http.MethodPost, url, "application/json", strings.NewReader(body), out)
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	var resp struct{ ID string }
	if code := postJSON(t, ts.URL+"/sessions", "", &resp); code != http.StatusCreated {
		t.Fatalf("unexpected status %d", code)
	}
	return ts.URL + "/sessions/" + resp.ID
}

func upload(t *testing.T, url, filename string, content []byte) int {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(content)
	mw.Close()
	var out map[string]any
	return do(t, http.MethodPost, url+"/upload", mw.FormDataContentType(), &buf, &out)
}

func mall(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile("../svgnode/testdata/mall.svg")
	if err != nil {
		t.Fatalf("can't read test map: %s", err)
	}
	return b
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	var out map[string]bool
	if code := do(t, http.MethodGet, ts.URL+"/health", "", nil, &out); code != http.StatusOK || !out["ok"] {
		t.Fatalf("unexpected response %d %v", code, out)
	}
}

func TestUnknownSession(t *testing.T) {
	ts := newTestServer(t)
	var out map[string]string
	if code := do(t, http.MethodGet, ts.URL+"/sessions/nope/viewport", "", nil, &out); code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", code)
	}
	if code := do(t, http.MethodDelete, ts.URL+"/sessions/nope", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", code)
	}
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t)
	url := createSession(t, ts)

	var doc json.RawMessage
	do(t, http.MethodGet, url+"/document", "", nil, &doc)
	if string(doc) != "null" {
		t.Fatalf("expected no document, got %s", doc)
	}

	if code := upload(t, url, "map.png", mall(t)); code != http.StatusUnsupportedMediaType {
		t.Fatalf("unexpected status %d", code)
	}
	if code := upload(t, url, "map.svg", []byte("<html/>")); code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status %d", code)
	}
	if code := upload(t, url, "mall.svg", mall(t)); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}

	var notifications []mapview.Notification
	do(t, http.MethodGet, url+"/notifications", "", nil, &notifications)
	if len(notifications) != 3 || notifications[2].Kind != mapview.Success {
		t.Fatalf("unexpected notifications %+v", notifications)
	}

	var features []struct {
		ID    string
		Title string
	}
	do(t, http.MethodGet, url+"/features", "", nil, &features)
	if len(features) != 6 || features[1].ID != "shop-1" || features[1].Title != "Coffee Corner" {
		t.Fatalf("unexpected features %+v", features)
	}

	var document struct {
		Titles []string
		Nodes  []json.RawMessage
	}
	do(t, http.MethodGet, url+"/document", "", nil, &document)
	if len(document.Nodes) != 4 || len(document.Titles) != 1 {
		t.Fatalf("unexpected document %+v", document)
	}
}

func TestInteraction(t *testing.T) {
	ts := newTestServer(t)
	url := createSession(t, ts)
	if code := upload(t, url, "mall.svg", mall(t)); code != http.StatusOK {
		t.Fatalf("unexpected status %d", code)
	}

	postJSON(t, url+"/pointer/move", `{"x": 50, "y": 50}`, nil)
	var hover mapview.Hover
	do(t, http.MethodGet, url+"/hover", "", nil, &hover)
	if !hover.Tooltip.Visible || hover.Tooltip.Content != "Coffee Corner" || hover.Styles["2.0"]["fill"] != "#9ca3af" {
		t.Fatalf("unexpected hover %+v", hover)
	}

	var state map[string]string
	postJSON(t, url+"/pointer/down", `{"x": 50, "y": 50, "button": 0}`, &state)
	if state["state"] != "armed" {
		t.Fatalf("unexpected state %v", state)
	}
	postJSON(t, url+"/pointer/up", `{"x": 50, "y": 50}`, &state)
	if state["outcome"] != "click" || state["state"] != "idle" {
		t.Fatalf("unexpected state %v", state)
	}

	var events []mapview.Event
	do(t, http.MethodGet, url+"/events", "", nil, &events)
	if len(events) != 2 || events[0].Kind != mapview.HoverChanged || events[1].Kind != mapview.ElementClicked ||
		events[1].Target.ID != "shop-1" {
		t.Fatalf("unexpected events %+v", events)
	}
	do(t, http.MethodGet, url+"/events", "", nil, &events)
	if len(events) != 0 {
		t.Fatalf("events should be drained, got %+v", events)
	}

	var notifications []mapview.Notification
	do(t, http.MethodGet, url+"/notifications", "", nil, &notifications)
	if last := notifications[len(notifications)-1]; last.Message != "Clicked: Coffee Corner" {
		t.Fatalf("unexpected notification %+v", last)
	}

	postJSON(t, url+"/pointer/leave", "", &state)
	do(t, http.MethodGet, url+"/hover", "", nil, &hover)
	if hover.Tooltip.Visible || len(hover.Styles) != 0 {
		t.Fatalf("hover not cleared: %+v", hover)
	}

	if code := postJSON(t, url+"/pointer/jump", `{}`, nil); code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", code)
	}
	if code := postJSON(t, url+"/pointer/move", `{"x": `, nil); code != http.StatusBadRequest {
		t.Fatalf("unexpected status %d", code)
	}
}

func TestViewport(t *testing.T) {
	ts := newTestServer(t)
	url := createSession(t, ts)

	var vp viewportResp
	postJSON(t, url+"/zoom/in", "", &vp)
	if vp.Scale != 1.2 || vp.Percent != 120 {
		t.Fatalf("unexpected viewport %+v", vp)
	}
	postJSON(t, url+"/wheel", `{"x": 0, "y": 0, "deltaY": 100}`, &vp)
	if vp.Percent != 108 {
		t.Fatalf("unexpected viewport %+v", vp)
	}
	postJSON(t, url+"/zoom/reset", "", &vp)
	if vp != (viewportResp{Scale: 1, Percent: 100}) {
		t.Fatalf("unexpected viewport %+v", vp)
	}

	var events []mapview.Event
	do(t, http.MethodGet, url+"/events", "", nil, &events)
	if len(events) != 3 || events[2].Percent != 100 {
		t.Fatalf("unexpected events %+v", events)
	}

	if code := do(t, http.MethodDelete, url, "", nil, nil); code != http.StatusNoContent {
		t.Fatalf("unexpected status %d", code)
	}
	if code := do(t, http.MethodGet, url+"/viewport", "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("unexpected status %d", code)
	}
}
