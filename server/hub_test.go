package server

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"pumpnet/calculator"
	"pumpnet/catalog"
	"pumpnet/model"
	"pumpnet/store"
)

type memRecorder struct {
	runs []*store.Run
}

func (m *memRecorder) Save(_ context.Context, run *store.Run) error {
	run.ID = "run-1"
	m.runs = append(m.runs, run)
	return nil
}

func (m *memRecorder) List(_ context.Context, limit int) ([]*store.Run, error) {
	return m.runs, nil
}

func newTestHub(rec Recorder) *Hub {
	return NewHub(calculator.NewCalculator(calculator.DefaultConfig()), rec)
}

func decode[T any](t *testing.T, msg model.Msg, want string) T {
	t.Helper()
	if msg.Type != want {
		t.Fatalf("reply type %q (%s), want %q", msg.Type, msg.Content, want)
	}
	var v T
	if err := json.Unmarshal([]byte(msg.Content), &v); err != nil {
		t.Fatalf("decode %s: %v", want, err)
	}
	return v
}

func TestHandleCalculate(t *testing.T) {
	rec := &memRecorder{}
	h := newTestHub(rec)

	res := decode[resultContent](t, h.handle(model.Msg{Type: "calculate"}), "result")
	if res.Analysis.Head <= model.DefaultHeight {
		t.Errorf("head = %v", res.Analysis.Head)
	}
	if len(res.Analysis.Distribution) != 2 || len(res.Profile) != 2 {
		t.Errorf("distribution %v profile %d", res.Analysis.Distribution, len(res.Profile))
	}
	if res.RunID != "run-1" || len(rec.runs) != 1 {
		t.Errorf("run not recorded: %q %d", res.RunID, len(rec.runs))
	}

	runs := decode[[]*store.Run](t, h.handle(model.Msg{Type: "history"}), "history")
	if len(runs) != 1 {
		t.Errorf("history has %d runs", len(runs))
	}
}

func TestHandleHistoryDisabled(t *testing.T) {
	h := newTestHub(nil)
	if reply := h.handle(model.Msg{Type: "history"}); reply.Type != "error" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestHandleParams(t *testing.T) {
	h := newTestHub(nil)
	p := decode[model.Params](t, h.handle(model.Msg{Type: "params", Content: `{"flow": 60, "fluid": "ethanol-20c"}`}), "paramsSet")
	if p.Flow != 60 || p.Fluid != catalog.Ethanol20 || p.Height != model.DefaultHeight {
		t.Errorf("params = %+v", p)
	}

	if reply := h.handle(model.Msg{Type: "params", Content: `{"flow": -3}`}); reply.Type != "error" {
		t.Errorf("negative flow accepted: %+v", reply)
	}
	if reply := h.handle(model.Msg{Type: "params", Content: `{"fluid": "mercury"}`}); reply.Type != "error" {
		t.Errorf("unknown fluid accepted: %+v", reply)
	}
}

func TestHandleNetwork(t *testing.T) {
	h := newTestHub(nil)
	content := `{"branches":[
		{"name":"a","segments":[{"length":30,"diameter":60,"material":"pvc","fittings":[{"type":"elbow-45","quantity":2}]}]},
		{"name":"b","segments":[{"length":30,"diameter":60,"material":"pvc"}]}]}`

	net := decode[model.Network](t, h.handle(model.Msg{Type: "network", Content: content}), "networkSet")
	seg := net.Branches[0].Segments[0]
	if seg.ID == "" || seg.Fittings[0].K != catalog.Elbow45.K() {
		t.Errorf("segment = %+v", seg)
	}

	if reply := h.handle(model.Msg{Type: "network", Content: `{"branches":[]}`}); reply.Type != "error" {
		t.Errorf("empty network accepted: %+v", reply)
	}
	bad := `{"branches":[{"name":"a","segments":[{"length":1,"diameter":50,"material":"gold"}]}]}`
	if reply := h.handle(model.Msg{Type: "network", Content: bad}); reply.Type != "error" {
		t.Errorf("unknown material accepted: %+v", reply)
	}
}

func TestHandleEdits(t *testing.T) {
	h := newTestHub(nil)

	net := decode[model.Network](t, h.handle(model.Msg{Type: "addBranch"}), "networkSet")
	if len(net.Branches) != 3 || net.Branches[2].Name != "Branch 3" {
		t.Fatalf("branches = %+v", net.Branches)
	}

	net = decode[model.Network](t, h.handle(model.Msg{Type: "addSegment", Content: `{"section":"before"}`}), "networkSet")
	if len(net.Before) != 1 {
		t.Fatalf("before = %+v", net.Before)
	}
	id := net.Before[0].ID

	net = decode[model.Network](t, h.handle(model.Msg{Type: "addFitting",
		Content: `{"segment_id":"` + id + `","fitting":"globe-valve-open","quantity":1}`}), "networkSet")
	if len(net.Before[0].Fittings) != 1 || net.Before[0].Fittings[0].K != 10 {
		t.Errorf("fittings = %+v", net.Before[0].Fittings)
	}

	net = decode[model.Network](t, h.handle(model.Msg{Type: "setSegment",
		Content: `{"segment_id":"` + id + `","length":12,"diameter":150}`}), "networkSet")
	if s := net.Before[0]; s.Length != 12 || s.Diameter != 150 || s.Material != model.DefaultMaterial {
		t.Errorf("segment = %+v", s)
	}

	net = decode[model.Network](t, h.handle(model.Msg{Type: "removeFitting",
		Content: `{"segment_id":"` + id + `","index":0}`}), "networkSet")
	if len(net.Before[0].Fittings) != 0 {
		t.Errorf("fittings = %+v", net.Before[0].Fittings)
	}

	net = decode[model.Network](t, h.handle(model.Msg{Type: "removeSegment", Content: `{"section":"before"}`}), "networkSet")
	if len(net.Before) != 0 {
		t.Errorf("before = %+v", net.Before)
	}
	net = decode[model.Network](t, h.handle(model.Msg{Type: "removeBranch"}), "networkSet")
	if len(net.Branches) != 2 {
		t.Errorf("branches = %d", len(net.Branches))
	}

	if reply := h.handle(model.Msg{Type: "removeFitting", Content: `{"segment_id":"missing"}`}); reply.Type != "error" {
		t.Errorf("reply = %+v", reply)
	}
	if reply := h.handle(model.Msg{Type: "addSegment", Content: `{"section":"middle"}`}); reply.Type != "error" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestHandleSweep(t *testing.T) {
	h := newTestHub(nil)
	points := decode[[]calculator.SweepPoint](t, h.handle(model.Msg{Type: "sweep", Content: `{"from":90,"to":110}`}), "sweep")
	if len(points) != 5 || points[0].Scale != 90 {
		t.Errorf("points = %+v", points)
	}
	if reply := h.handle(model.Msg{Type: "sweep", Content: `{"from":10,"to":300}`}); reply.Type != "error" {
		t.Errorf("out of range accepted: %+v", reply)
	}
}

func TestHandleUnknownType(t *testing.T) {
	h := newTestHub(nil)
	if reply := h.handle(model.Msg{Type: "bogus"}); reply.Type != "error" || reply.Content != "no such type" {
		t.Errorf("reply = %+v", reply)
	}
}

func TestHandleNoConvergence(t *testing.T) {
	cfg := calculator.DefaultConfig()
	cfg.MaxIterations = 1
	cfg.Tolerance = 1e-14
	h := NewHub(calculator.NewCalculator(cfg), nil)

	reply := h.handle(model.Msg{Type: "calculate"})
	if reply.Type != "error" || !strings.Contains(reply.Content, "did not converge") {
		t.Errorf("reply = %+v", reply)
	}
}

func TestWebsocketRoundTrip(t *testing.T) {
	srv := NewServer("", websocket.Upgrader{}, calculator.NewCalculator(calculator.DefaultConfig()), nil)
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))

	if err := conn.WriteJSON(model.Msg{Type: "catalog"}); err != nil {
		t.Fatal(err)
	}
	var reply model.Msg
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	tables := decode[catalog.Tables](t, reply, "catalog")
	if len(tables.Materials) == 0 {
		t.Error("empty catalog")
	}

	if err := conn.WriteJSON(model.Msg{Type: "sweepStream", Content: `{"from":80,"to":90}`}); err != nil {
		t.Fatal(err)
	}
	// sweepStarted 与推送的数据点之间顺序不固定
	count := map[string]int{}
	for count["sweepDone"] == 0 || count["sweepStarted"] == 0 {
		if err := conn.ReadJSON(&reply); err != nil {
			t.Fatal(err)
		}
		count[reply.Type]++
	}
	if count["sweepPoint"] != 3 {
		t.Errorf("stream messages = %v", count)
	}
}
