package server

import (
	"context"
	"net/http"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"

	"pumpnet/calculator"
	"pumpnet/model"
	"pumpnet/store"
)

// Recorder 保存计算历史，为 nil 时不记录
type Recorder interface {
	Save(ctx context.Context, run *store.Run) error
	List(ctx context.Context, limit int) ([]*store.Run, error)
}

type Server struct {
	addr     string
	upgrader websocket.Upgrader
	calc     calculator.Calculator
	recorder Recorder
}

func NewServer(addr string, upgrader websocket.Upgrader, calc calculator.Calculator, recorder Recorder) *Server {
	return &Server{
		addr:     addr,
		upgrader: upgrader,
		calc:     calc,
		recorder: recorder,
	}
}

// serveWs 每个连接一个 Hub，连接关闭后 Hub 退出
func (s *Server) serveWs(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn("websocket upgrade: ", err)
		return
	}
	defer conn.Close()

	hub := NewHub(s.calc, s.recorder)
	hub.conn = conn
	log.WithField("remote", conn.RemoteAddr().String()).Info("客户端已连接")

	go hub.handleRequest()
	done := make(chan struct{})
	go func() {
		hub.handleResponse()
		close(done)
	}()

	for {
		var msg model.Msg
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("read message: ", err)
			}
			break
		}
		hub.msg <- msg
	}
	close(hub.msg)
	<-done
	log.WithField("remote", conn.RemoteAddr().String()).Info("客户端已断开")
}

// Handler 注册 /ws
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		s.serveWs(w, r)
	})
	return mux
}

func (s *Server) Serve() error {
	log.WithField("addr", s.addr).Info("服务启动")
	return http.ListenAndServe(s.addr, s.Handler())
}
