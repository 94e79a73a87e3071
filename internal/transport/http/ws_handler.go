package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"battle-quiz-service/internal/app"
	"battle-quiz-service/internal/battle"
	"battle-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WSHandler struct {
	service  *app.BattleService
	board    *app.Leaderboard
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.BattleService, board *app.Leaderboard, log logrus.FieldLogger) *WSHandler {
	return &WSHandler{
		service: service,
		board:   board,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	Option int `json:"option"`
}

type turnPayload struct {
	Correct       bool         `json:"correct"`
	CorrectAnswer int          `json:"correctAnswer"`
	Damage        int          `json:"damage"`
	Explanation   string       `json:"explanation,omitempty"`
	State         battle.State `json:"state"`
}

type cuePayload struct {
	Cue        battle.Cue `json:"cue"`
	DurationMs int64      `json:"durationMs"`
}

type resultPayload struct {
	State battle.State `json:"state"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs one match per connection.
//
// Client messages: answer {option}, advance, exit.
// Server messages: started, turn, cue (one per step, paced), result, question,
// outcome, leaderboard, error.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	quizID := r.URL.Query().Get("quizId")
	player := domain.Player{
		ID:             r.URL.Query().Get("playerId"),
		DisplayName:    r.URL.Query().Get("name"),
		CharacterClass: r.URL.Query().Get("class"),
	}
	if quizID == "" || player.ID == "" || player.DisplayName == "" {
		http.Error(w, "missing quizId, playerId, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancelTurns := context.WithCancel(r.Context())
	defer cancelTurns()

	started, err := h.service.Start(ctx, quizID, player)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	matchID := started.MatchID
	log := h.log.WithFields(logrus.Fields{"match_id": matchID, "player_id": player.ID})
	defer h.service.Exit(context.Background(), matchID)

	updates, cancelUpdates := h.board.Subscribe()
	defer cancelUpdates()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})
	var turns sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.WithError(err).Debug("ws write error")
				return
			}
		}
	}()

	emit := func(typ string, payload any) bool {
		select {
		case send <- outboundMessage[any]{Type: typ, Payload: payload}:
			return true
		case <-closeSignals:
			return false
		case <-writerDone:
			return false
		}
	}

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				if !emit("leaderboard", update) {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	emit("started", started)

read:
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				emit("error", errorPayload{Message: "invalid answer payload"})
				continue
			}
			result, err := h.service.Submit(ctx, matchID, payload.Option)
			if err != nil {
				emit("error", errorPayload{Message: err.Error()})
				continue
			}
			emit("turn", turnPayload{
				Correct:       result.Correct,
				CorrectAnswer: result.CorrectAnswer,
				Damage:        result.Damage,
				Explanation:   result.Explanation,
				State:         result.State,
			})
			turns.Add(1)
			go func() {
				defer turns.Done()
				h.playTurn(ctx, log, matchID, result.Steps, emit)
			}()
		case "advance":
			view, err := h.service.Advance(ctx, matchID)
			if err != nil {
				emit("error", errorPayload{Message: err.Error()})
				continue
			}
			if view.Question == nil {
				h.finish(ctx, log, matchID, emit)
				continue
			}
			emit("question", view)
		case "exit":
			break read
		default:
			emit("error", errorPayload{Message: "unsupported message type"})
		}
	}

	cancelTurns()
	close(closeSignals)
	turns.Wait()
	<-updatesDone
	close(send)
	<-writerDone
}

// playTurn paces the steps, then settles the turn. A defeat ends the match
// immediately, so its outcome follows the steps instead of a result.
func (h *WSHandler) playTurn(ctx context.Context, log logrus.FieldLogger, matchID string, steps []battle.Step, emit func(string, any) bool) {
	err := app.PlaySteps(ctx, steps, func(step battle.Step) error {
		if !emit("cue", cuePayload{Cue: step.Cue, DurationMs: step.Duration.Milliseconds()}) {
			return context.Canceled
		}
		return nil
	})
	if err != nil {
		return
	}

	state, err := h.service.Settle(ctx, matchID)
	if err != nil {
		log.WithError(err).Warn("Failed to settle turn")
		return
	}
	if state.Phase == battle.PhaseMatchOver {
		h.finish(ctx, log, matchID, emit)
		return
	}
	emit("result", resultPayload{State: state})
}

func (h *WSHandler) finish(ctx context.Context, log logrus.FieldLogger, matchID string, emit func(string, any) bool) {
	outcome, err := h.service.Finish(ctx, matchID)
	if err != nil {
		log.WithError(err).Warn("Failed to finish match")
		emit("error", errorPayload{Message: err.Error()})
		return
	}
	emit("outcome", outcome)
}
