package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"smeltingmetal.dev/internal/logging"
	"smeltingmetal.dev/internal/protocol"
	"smeltingmetal.dev/internal/sim/config"
	"smeltingmetal.dev/internal/sim/engine"
)

// Engine is the part of the engine the bridge drives.
type Engine interface {
	Handle(ctx context.Context, ev engine.Event) (engine.Result, error)
	Status() engine.Status
}

// Server bridges host lifecycle events delivered over websocket to the engine.
type Server struct {
	eng Engine
	log *zap.Logger

	upgrader websocket.Upgrader
}

func NewServer(eng Engine, logger *zap.Logger) *Server {
	return &Server{
		eng: eng,
		log: logging.OrNop(logger).With(zap.String("component", "ws")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sessionID, ok := s.handshake(conn)
		if !ok {
			return
		}
		log := s.log.With(zap.String("session_id", sessionID))
		log.Info("host connected", zap.String("remote", r.RemoteAddr))

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		out := make(chan []byte, 16)
		done := make(chan struct{})

		// Writer goroutine.
		go func() {
			defer close(done)
			for {
				select {
				case <-ctx.Done():
					return
				case b := <-out:
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		send := func(v any) {
			b, err := json.Marshal(v)
			if err != nil {
				log.Error("encode reply", zap.Error(err))
				return
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				break
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil {
				send(protocol.NewError("", protocol.ErrProtoBadRequest, "invalid json"))
				continue
			}
			if base.Type != protocol.TypeEvent {
				send(protocol.NewError("", protocol.ErrProtoBadRequest, "unexpected message type "+base.Type))
				continue
			}
			send(s.handleEvent(ctx, log, msg))
		}
		cancel()
		<-done
		log.Info("host disconnected")
	}
}

func (s *Server) handleEvent(ctx context.Context, log *zap.Logger, msg []byte) any {
	var ev protocol.EventMsg
	if err := json.Unmarshal(msg, &ev); err != nil {
		return protocol.NewError("", protocol.ErrProtoBadRequest, err.Error())
	}
	if ev.ProtocolVersion != protocol.Version {
		return protocol.NewError(ev.ReqID, protocol.ErrProtoVersion, "bad protocol_version")
	}
	if err := protocol.ValidateEvent(msg); err != nil {
		code := protocol.ErrProtoBadRequest
		if _, terr := engine.ParseTrigger(ev.Trigger); terr != nil {
			code = protocol.ErrBadTrigger
		}
		return protocol.NewError(ev.ReqID, code, err.Error())
	}
	trigger, err := engine.ParseTrigger(ev.Trigger)
	if err != nil {
		return protocol.NewError(ev.ReqID, protocol.ErrBadTrigger, err.Error())
	}

	e := engine.Event{Trigger: trigger, Recipes: ev.Recipes}
	if ev.Config != "" {
		cfg, err := config.Parse([]byte(ev.Config))
		if err != nil {
			return protocol.NewError(ev.ReqID, protocol.ErrBadConfig, err.Error())
		}
		e.Config = &cfg
	}

	res, err := s.eng.Handle(ctx, e)
	if err != nil {
		log.Warn("event failed", zap.String("trigger", ev.Trigger), zap.Error(err))
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return protocol.NewError(ev.ReqID, protocol.ErrCancelled, err.Error())
		}
		return protocol.NewError(ev.ReqID, protocol.ErrInternal, err.Error())
	}
	return reportFor(ev.ReqID, res)
}

func reportFor(reqID string, res engine.Result) protocol.ReportMsg {
	rep := protocol.ReportMsg{
		Type:            protocol.TypeReport,
		ProtocolVersion: protocol.Version,
		ReqID:           reqID,
		PassID:          res.PassID,
		Trigger:         string(res.Trigger),
		Ran:             res.Ran,
		Added:           res.Report.Added(),
		Removed:         res.Report.Removed(),
		Unchanged:       res.Report.Unchanged,
		Skipped:         len(res.Report.Skips),
		Failures:        res.Report.Failures,
		TableSize:       res.TableSize,
	}
	for _, m := range res.Report.Mutations {
		rep.Mutations = append(rep.Mutations, protocol.MutationRef{
			Op:       string(m.Op),
			RecipeID: m.RecipeID.String(),
			Rule:     string(m.Rule),
			Content:  m.Content,
			Shape:    m.Shape,
		})
	}
	return rep
}

func (s *Server) handshake(conn *websocket.Conn) (string, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", false
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected HELLO"), time.Now().Add(time.Second))
		return "", false
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", false
	}
	if hello.ProtocolVersion != protocol.Version {
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "bad protocol_version"), time.Now().Add(time.Second))
		return "", false
	}

	st := s.eng.Status()
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       uuid.NewString(),
		Namespace:       st.Namespace,
		Metals:          st.Metals,
		Catalogs: protocol.CatalogDigests{
			ItemPalette:   protocol.DigestRef{Digest: st.ItemsDigest, Count: st.ItemCount},
			BlockPalette:  protocol.DigestRef{Digest: st.BlocksDigest, Count: st.BlockCount},
			RecipesDigest: st.RecipesDigest,
			ConfigDigest:  st.ConfigDigest,
		},
	}
	if welcome.Metals == nil {
		welcome.Metals = []string{}
	}
	if err := writeJSON(conn, welcome); err != nil {
		return "", false
	}
	return welcome.SessionID, true
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
