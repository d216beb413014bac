package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"pumpnet/calculator"
	"pumpnet/catalog"
	"pumpnet/model"
	"pumpnet/pump"
	"pumpnet/store"
)

const historyLimit = 20

// Hub 一个客户端连接的会话状态：当前管网、运行参数和推送中的敏感性分析
type Hub struct {
	calc     calculator.Calculator
	recorder Recorder
	station  *pump.Station
	network  model.Network

	conn *websocket.Conn
	// request
	msg chan model.Msg
	// response
	reply chan model.Msg

	mu        sync.Mutex
	streaming *calculator.SweepHub
	streamWg  sync.WaitGroup
}

func NewHub(calc calculator.Calculator, recorder Recorder) *Hub {
	return &Hub{
		calc:     calc,
		recorder: recorder,
		station:  pump.NewStation(1),
		network:  model.DefaultNetwork(),
		msg:      make(chan model.Msg, 10),
		reply:    make(chan model.Msg, 10),
	}
}

// 计算结果：基准工况 + 各管段流速
type resultContent struct {
	Analysis calculator.Analysis         `json:"analysis"`
	Profile  []calculator.SegmentProfile `json:"profile"`
	RunID    string                      `json:"run_id,omitempty"`
}

func (h *Hub) handleResponse() {
	for reply := range h.reply {
		if err := h.conn.WriteJSON(&reply); err != nil {
			log.Warn("write message: ", err)
		}
	}
}

// handleRequest msg 关闭后停止推送并关闭 reply
func (h *Hub) handleRequest() {
	for msg := range h.msg {
		h.reply <- h.handle(msg)
	}
	h.stopStream()
	h.streamWg.Wait()
	close(h.reply)
}

func (h *Hub) handle(msg model.Msg) model.Msg {
	switch msg.Type {
	case "network":
		var net model.Network
		if err := json.Unmarshal([]byte(msg.Content), &net); err != nil {
			return errorMsg(err)
		}
		if err := net.Validate(); err != nil {
			return errorMsg(err)
		}
		h.network = net.WithIDs()
		return h.networkMsg()
	case "getNetwork":
		return h.networkMsg()
	case "params":
		p := h.station.Params()
		if err := json.Unmarshal([]byte(msg.Content), &p); err != nil {
			return errorMsg(err)
		}
		if err := h.station.SetFromParams(p); err != nil {
			return errorMsg(err)
		}
		return jsonMsg("paramsSet", h.station.Params())
	case "calculate":
		return h.calculate()
	case "sweep":
		r, err := scaleRange(msg.Content)
		if err != nil {
			return errorMsg(err)
		}
		points, err := h.calc.Sweep(h.network, r, h.station.Params(), nil)
		if err != nil {
			return errorMsg(err)
		}
		return jsonMsg("sweep", points)
	case "sweepStream":
		r, err := scaleRange(msg.Content)
		if err != nil {
			return errorMsg(err)
		}
		return h.startStream(r)
	case "stopSweep":
		h.stopStream()
		return model.Msg{Type: "sweepStopped", Content: "stopped"}
	case "catalog":
		return jsonMsg("catalog", catalog.All())
	case "history":
		if h.recorder == nil {
			return model.Msg{Type: "error", Content: "history is disabled"}
		}
		runs, err := h.recorder.List(context.Background(), historyLimit)
		if err != nil {
			return errorMsg(err)
		}
		return jsonMsg("history", runs)
	case "addSegment", "removeSegment", "addBranch", "removeBranch",
		"addFitting", "removeFitting", "setSegment":
		return h.edit(msg)
	default:
		log.WithField("type", msg.Type).Warn("no such type")
		return model.Msg{Type: "error", Content: "no such type"}
	}
}

func (h *Hub) calculate() model.Msg {
	p := h.station.Params()
	a, err := h.calc.Analyze(h.network, p)
	if err != nil {
		if errors.Is(err, calculator.ErrNoConvergence) {
			return model.Msg{Type: "error", Content: "flow distribution did not converge, check branch diameters and lengths"}
		}
		return errorMsg(err)
	}

	res := resultContent{
		Analysis: a,
		Profile:  h.calc.Profile(h.network, a, p),
	}
	if h.recorder != nil {
		run := &store.Run{Network: h.network.Clone(), Params: p, Analysis: a}
		if err := h.recorder.Save(context.Background(), run); err != nil {
			log.Warn("保存计算记录失败: ", err)
		} else {
			res.RunID = run.ID
		}
	}
	return jsonMsg("result", res)
}

func (h *Hub) edit(msg model.Msg) model.Msg {
	var req model.EditReq
	if msg.Content != "" {
		if err := json.Unmarshal([]byte(msg.Content), &req); err != nil {
			return errorMsg(err)
		}
	}

	net := h.network
	var err error
	switch msg.Type {
	case "addSegment":
		net, err = net.AddSegment(req.Section, req.Branch)
	case "removeSegment":
		net, err = net.RemoveLastSegment(req.Section, req.Branch)
	case "addBranch":
		net = net.AddBranch()
	case "removeBranch":
		net = net.RemoveLastBranch()
	case "addFitting":
		var f model.Fitting
		if f, err = model.NewFitting(req.Fitting, max(req.Quantity, 1)); err == nil {
			net, err = net.AddFitting(req.SegmentID, f)
		}
	case "removeFitting":
		net, err = net.RemoveFitting(req.SegmentID, req.Index)
	case "setSegment":
		seg, ok := net.Segment(req.SegmentID)
		if !ok {
			err = fmt.Errorf("%w: %s", model.ErrNotFound, req.SegmentID)
			break
		}
		material := req.Material
		if material == 0 {
			material = seg.Material
		}
		net, err = net.SetSegment(req.SegmentID, req.Length, req.Diameter, material)
	}
	if err != nil {
		return errorMsg(err)
	}
	h.network = net
	return h.networkMsg()
}

// startStream 同一时间只推送一组，新的请求会停止旧的
func (h *Hub) startStream(r model.ScaleRange) model.Msg {
	h.stopStream()

	sh := calculator.NewSweepHub()
	h.mu.Lock()
	h.streaming = sh
	h.mu.Unlock()

	go sh.Run(h.network.Clone(), r, h.station.Params(), h.calc.Config())

	h.streamWg.Add(1)
	go func() {
		defer h.streamWg.Done()
		for point := range sh.Points {
			h.reply <- jsonMsg("sweepPoint", point)
		}
		h.reply <- model.Msg{Type: "sweepDone"}
	}()
	return jsonMsg("sweepStarted", r)
}

func (h *Hub) stopStream() {
	h.mu.Lock()
	sh := h.streaming
	h.streaming = nil
	h.mu.Unlock()
	if sh != nil {
		sh.StopSignal()
		sh.Wait()
	}
}

func (h *Hub) networkMsg() model.Msg {
	return jsonMsg("networkSet", h.network)
}

func scaleRange(content string) (model.ScaleRange, error) {
	r := model.DefaultScaleRange()
	if content == "" {
		return r, nil
	}
	if err := json.Unmarshal([]byte(content), &r); err != nil {
		return r, err
	}
	return r, r.Validate()
}

func jsonMsg(typ string, v any) model.Msg {
	data, err := json.Marshal(v)
	if err != nil {
		return errorMsg(err)
	}
	return model.Msg{Type: typ, Content: string(data)}
}

func errorMsg(err error) model.Msg {
	return model.Msg{Type: "error", Content: err.Error()}
}
