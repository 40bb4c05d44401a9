package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AssemSadek/habitat-sim2real/pkg/geo"
	"github.com/AssemSadek/habitat-sim2real/pkg/viewer"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsMsg is a client command. Type selects which fields are read:
// "key" (Key), "teleport" (U, V, Heading), "pin" (Column), "reset" and "state".
type wsMsg struct {
	Type    string       `json:"type"`
	Key     string       `json:"key,omitempty"`
	U       int          `json:"u,omitempty"`
	V       int          `json:"v,omitempty"`
	Heading *geo.Point2D `json:"heading,omitempty"`
	Column  int          `json:"column,omitempty"`
}

// wsReply answers every command with the resulting frame, or an error.
type wsReply struct {
	Type    string        `json:"type"` // "frame" or "error"
	Frame   *viewer.Frame `json:"frame,omitempty"`
	Handled bool          `json:"handled,omitempty"`
	Pin     *viewer.Pin   `json:"pin,omitempty"`
	Message string        `json:"message,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	first := s.viewer.Frame()
	if err := conn.WriteJSON(wsReply{Type: "frame", Frame: &first}); err != nil {
		return
	}

	for {
		var msg wsMsg
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("websocket read", zap.Error(err))
			}
			return
		}

		reply := s.apply(msg)
		if err := conn.WriteJSON(reply); err != nil {
			s.log.Debug("websocket write", zap.Error(err))
			return
		}
		if reply.Frame != nil && !reply.Frame.Running {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session ended")
			if err := conn.WriteMessage(websocket.CloseMessage, msg); err != nil {
				s.log.Debug("websocket close", zap.Error(err))
			}
			return
		}
	}
}

func (s *Server) apply(msg wsMsg) wsReply {
	var frame viewer.Frame
	reply := wsReply{Type: "frame"}
	switch msg.Type {
	case "key":
		key, err := parseKey(msg.Key)
		if err != nil {
			return wsReply{Type: "error", Message: err.Error()}
		}
		frame, reply.Handled = s.viewer.OnKey(key)
	case "teleport":
		frame = s.viewer.Teleport(viewer.MapPoint{U: msg.U, V: msg.V}, msg.Heading)
	case "pin":
		pin, err := s.viewer.Pin(msg.Column)
		if err != nil {
			return wsReply{Type: "error", Message: err.Error()}
		}
		reply.Pin = &pin
		frame = s.viewer.Frame()
	case "reset":
		frame = s.viewer.Reset()
	case "state":
		frame = s.viewer.Frame()
	default:
		return wsReply{Type: "error", Message: "unknown message type " + msg.Type}
	}
	reply.Frame = &frame
	return reply
}
