package nakama

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/heroiclabs/nakama-common/runtime"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"bisca/internal/app"
	"bisca/internal/bot"
	"bisca/internal/config"
	"bisca/internal/domain"
	"bisca/internal/hub"
	"bisca/internal/ports/wire"
)

const (
	tickRate = 5

	paramStartingCards = "starting_cards"

	defaultBotCount         = 3
	defaultBotAutoFillDelay = 5 // seconds
	// A match nobody has joined for this long is torn down.
	emptyMatchTimeout = 60 // seconds
)

// MatchState holds the authoritative runtime state for the Nakama match handler.
type MatchState struct {
	Tick      int64                       // Current tick of the match
	Hub       *hub.Hub                    // Serializes every engine call
	Conns     map[string]*hub.Conn        // UserId -> hub connection, humans and bots
	Presences map[string]runtime.Presence // UserId -> Presence for targeted messaging
	Bots      map[string]*bot.Agent       // Active bot agents

	BotsEnabled          bool
	BotLevel             bot.BotLevel
	BotCount             int   // Bots seated when a single human waits
	BotAutoFillDelay     int   // Seconds to wait before auto-filling with bots
	LastSinglePlayerTick int64 // Tick when a single player started waiting
	BotNames             []string

	EmptySinceTick int64 // Tick when the last human left, or 0

	label      app.Label
	labelDirty bool
}

// HumanCount is the number of connected human players.
func (ms *MatchState) HumanCount() int {
	return len(ms.Presences)
}

// NewMatch is the factory function registered with Nakama.
func NewMatch(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule) (runtime.Match, error) {
	return &matchHandler{}, nil
}

type matchHandler struct{}

// MatchInit is called when the match is created.
func (mh *matchHandler) MatchInit(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, params map[string]interface{}) (interface{}, int, string) {
	logger.Debug("MatchInit: Initializing match handler.")

	cfg := config.GetGameConfig()
	state := &MatchState{
		Conns:            make(map[string]*hub.Conn),
		Presences:        make(map[string]runtime.Presence),
		Bots:             make(map[string]*bot.Agent),
		BotLevel:         bot.BotLevelGood,
		BotCount:         defaultBotCount,
		BotAutoFillDelay: defaultBotAutoFillDelay,
		BotNames:         cfg.BotNames,
	}

	// Read environment variables for match configuration
	env, _ := ctx.Value(runtime.RUNTIME_CTX_ENV).(map[string]string)
	applyEnv(&cfg, state, env, logger)
	if v, ok := intParam(params, paramStartingCards); ok {
		cfg.StartingCards = v
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("MatchInit: Invalid game config: %v", err)
		return nil, 0, ""
	}

	match, err := domain.NewMatch(cfg.StartingCards, nil)
	if err != nil {
		logger.Error("MatchInit: Failed to create match: %v", err)
		return nil, 0, ""
	}
	svc := app.NewService(match, cfg.Options())
	state.Hub = hub.New(svc, logger,
		hub.WithQueueSize(cfg.OutboundQueueSize),
		hub.WithLabelListener(func(l app.Label) {
			state.label = l
			state.labelDirty = true
		}),
	)
	state.label = state.Hub.Label()

	label, err := encodeLabel(state.label)
	if err != nil {
		logger.Error("MatchInit: Failed to marshal label: %v", err)
		return nil, 0, ""
	}
	return state, tickRate, label
}

func applyEnv(cfg *config.GameConfig, state *MatchState, env map[string]string, logger runtime.Logger) {
	atoi := func(key string, dst *int) {
		val, ok := env[key]
		if !ok {
			return
		}
		i, err := strconv.Atoi(val)
		if err != nil {
			logger.Warn("MatchInit: Ignoring %s=%q: %v", key, val, err)
			return
		}
		*dst = i
	}
	flag := func(key string, dst *bool) {
		if val, ok := env[key]; ok {
			*dst = val == "true"
		}
	}

	atoi("bisca_starting_cards", &cfg.StartingCards)
	atoi("bisca_outbound_queue_size", &cfg.OutboundQueueSize)
	flag("bisca_auto_resolve_tricks", &cfg.AutoResolveTricks)
	flag("bisca_auto_advance_rounds", &cfg.AutoAdvanceRounds)
	flag("bisca_bots_enabled", &state.BotsEnabled)
	atoi("bisca_bot_count", &state.BotCount)
	atoi("bisca_bot_auto_fill_delay_sec", &state.BotAutoFillDelay)
	if val, ok := env["bisca_bot_level"]; ok {
		level, err := bot.ParseLevel(val)
		if err != nil {
			logger.Warn("MatchInit: Ignoring bisca_bot_level: %v", err)
		} else {
			state.BotLevel = level
		}
	}
}

// intParam reads a numeric match parameter. JSON numbers arrive as float64.
func intParam(params map[string]interface{}, key string) (int, bool) {
	switch v := params[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case string:
		i, err := strconv.Atoi(v)
		return i, err == nil
	default:
		return 0, false
	}
}

func (mh *matchHandler) MatchJoinAttempt(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presence runtime.Presence, metadata map[string]string) (interface{}, bool, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, false, "state not found"
	}
	if _, seated := matchState.Conns[presence.GetUserId()]; seated {
		return state, false, "already joined"
	}
	if !matchState.Hub.Label().Open {
		return state, false, "match not open"
	}
	return state, true, ""
}

func (mh *matchHandler) MatchJoin(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchJoin: state not found")
		return state
	}

	for _, p := range presences {
		userID := p.GetUserId()
		conn, err := matchState.Hub.Attach(userID)
		if err != nil {
			// The seat filled up between the join attempt and the join.
			logger.Warn("MatchJoin: User %s refused: %v", userID, err)
			sendEvent(dispatcher, logger, p, app.ErrorEvent(userID, err))
			if kickErr := dispatcher.MatchKick([]runtime.Presence{p}); kickErr != nil {
				logger.Warn("MatchJoin: Failed to kick %s: %v", userID, kickErr)
			}
			continue
		}
		matchState.Conns[userID] = conn
		matchState.Presences[userID] = p
		matchState.EmptySinceTick = 0
	}

	mh.flush(matchState, dispatcher, logger)
	return matchState
}

// MatchLeave is called when one or more players leave the match.
func (mh *matchHandler) MatchLeave(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, presences []runtime.Presence) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		logger.Error("MatchLeave: state not found")
		return state
	}

	for _, p := range presences {
		mh.detach(matchState, p.GetUserId())
	}

	if matchState.HumanCount() == 0 && matchState.Hub.Label().Phase != domain.PhaseForming {
		logger.Info("MatchLeave: Terminating match with no humans.")
		return nil
	}

	mh.flush(matchState, dispatcher, logger)
	return matchState
}

func (mh *matchHandler) MatchLoop(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, messages []runtime.MatchData) interface{} {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state
	}
	matchState.Tick = tick

	for _, msg := range messages {
		mh.handleMessage(matchState, msg)
	}

	// AI Logic
	if matchState.BotsEnabled {
		mh.fillBots(matchState, logger)
	}
	mh.processBots(matchState, logger)

	mh.flush(matchState, dispatcher, logger)

	if matchState.HumanCount() == 0 {
		if matchState.EmptySinceTick == 0 {
			matchState.EmptySinceTick = tick
		}
		if tick-matchState.EmptySinceTick >= emptyMatchTimeout*tickRate {
			logger.Info("MatchLoop: Terminating idle match with no humans.")
			return nil
		}
	}
	return matchState
}

// handleMessage decodes one client message and routes it through the hub.
func (mh *matchHandler) handleMessage(state *MatchState, msg runtime.MatchData) {
	userID := msg.GetUserId()
	name, ok := actionNames[msg.GetOpCode()]
	if !ok {
		state.Hub.Reject(userID, app.ErrMalformedAction.Detail("unknown op code %d", msg.GetOpCode()))
		return
	}
	action, err := wire.DecodeNamed(name, msg.GetData())
	if err != nil {
		state.Hub.Reject(userID, err)
		return
	}
	state.Hub.Handle(userID, action)
}

// fillBots seats bots once a single human has waited long enough in the lobby.
func (mh *matchHandler) fillBots(state *MatchState, logger runtime.Logger) {
	label := state.Hub.Label()
	if label.Phase != domain.PhaseForming || state.HumanCount() != 1 || len(state.Bots) > 0 {
		state.LastSinglePlayerTick = 0
		return
	}
	if state.LastSinglePlayerTick == 0 {
		state.LastSinglePlayerTick = state.Tick
		logger.Debug("fillBots: Single player detected, starting auto-fill timer.")
	}
	if state.Tick-state.LastSinglePlayerTick < int64(state.BotAutoFillDelay*tickRate) {
		return
	}

	agents, err := bot.NewAgents(state.BotCount, state.BotLevel, state.BotNames)
	if err != nil {
		logger.Error("fillBots: Failed to create bot agents: %v", err)
		return
	}
	for _, agent := range agents {
		conn, err := state.Hub.Attach(agent.ID)
		if err != nil {
			logger.Warn("fillBots: Bot %s not seated: %v", agent.Name, err)
			break
		}
		state.Conns[agent.ID] = conn
		state.Bots[agent.ID] = agent
		logger.Info("fillBots: Added bot %s (%s)", agent.Name, agent.ID)
	}
	state.LastSinglePlayerTick = 0
}

// processBots lets every bot react to the events queued for it since the
// previous tick. Their answers are applied now and seen on the next tick. A
// bot whose queue overflowed is unseated.
func (mh *matchHandler) processBots(state *MatchState, logger runtime.Logger) {
	type move struct {
		id     string
		action app.Action
	}
	var moves []move
	var dropped []string
	for id, agent := range state.Bots {
		conn, ok := state.Conns[id]
		if !ok {
			continue
		}
		events, open := drainConn(conn)
		for _, ev := range events {
			if action, ok := agent.Observe(ev); ok {
				moves = append(moves, move{id: id, action: action})
			}
		}
		if !open {
			dropped = append(dropped, id)
		}
	}
	for _, id := range dropped {
		logger.Warn("processBots: Outbound queue overflow for bot %s, removing.", id)
		mh.detach(state, id)
	}
	for _, m := range moves {
		if _, seated := state.Bots[m.id]; !seated {
			continue
		}
		state.Hub.Handle(m.id, m.action)
	}
}

// flush delivers queued events to every human presence and publishes a
// changed label.
func (mh *matchHandler) flush(state *MatchState, dispatcher runtime.MatchDispatcher, logger runtime.Logger) {
	for userID, p := range state.Presences {
		conn, ok := state.Conns[userID]
		if !ok {
			continue
		}
		events, open := drainConn(conn)
		for _, ev := range events {
			sendEvent(dispatcher, logger, p, ev)
		}
		if !open {
			logger.Warn("flush: Outbound queue overflow for %s, kicking.", userID)
			if err := dispatcher.MatchKick([]runtime.Presence{p}); err != nil {
				logger.Warn("flush: Failed to kick %s: %v", userID, err)
			}
			mh.detach(state, userID)
		}
	}

	if state.labelDirty {
		state.labelDirty = false
		label, err := encodeLabel(state.label)
		if err != nil {
			logger.Error("flush: Failed to marshal label: %v", err)
			return
		}
		if err := dispatcher.MatchLabelUpdate(label); err != nil {
			logger.Warn("flush: Failed to update label: %v", err)
		}
	}
}

func (mh *matchHandler) detach(state *MatchState, userID string) {
	if conn, ok := state.Conns[userID]; ok {
		state.Hub.Detach(conn)
	}
	delete(state.Conns, userID)
	delete(state.Presences, userID)
	delete(state.Bots, userID)
}

func sendEvent(dispatcher runtime.MatchDispatcher, logger runtime.Logger, p runtime.Presence, ev app.Event) {
	opCode, ok := eventOpCodes[ev.Kind]
	if !ok {
		logger.Error("sendEvent: No op code for event %s", ev.Kind)
		return
	}
	data, err := wire.EncodePayload(ev)
	if err != nil {
		logger.Error("sendEvent: Failed to marshal %s: %v", ev.Kind, err)
		return
	}
	if err := dispatcher.BroadcastMessage(opCode, data, []runtime.Presence{p}, nil, true); err != nil {
		logger.Warn("sendEvent: Failed to send %s to %s: %v", ev.Kind, p.GetUserId(), err)
	}
}

// drainConn returns the events queued on conn and whether the queue is still open.
func drainConn(conn *hub.Conn) ([]app.Event, bool) {
	var out []app.Event
	for {
		select {
		case ev, ok := <-conn.Events():
			if !ok {
				return out, false
			}
			out = append(out, ev)
		default:
			return out, true
		}
	}
}

// encodeLabel renders the listing label as JSON through protobuf's Struct.
func encodeLabel(l app.Label) (string, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"game":    MatchLabelGame,
		"open":    l.Open,
		"phase":   string(l.Phase),
		"players": l.Players,
		"round":   l.Round,
	})
	if err != nil {
		return "", err
	}
	b, err := (&protojson.MarshalOptions{EmitUnpopulated: true}).Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (mh *matchHandler) MatchTerminate(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, graceSeconds int) interface{} {
	logger.Debug("MatchTerminate: Match terminated with %d seconds grace", graceSeconds)
	if matchState, ok := state.(*MatchState); ok {
		for userID := range matchState.Conns {
			mh.detach(matchState, userID)
		}
	}
	return state
}

func (mh *matchHandler) MatchSignal(ctx context.Context, logger runtime.Logger, db *sql.DB, nk runtime.NakamaModule, dispatcher runtime.MatchDispatcher, tick int64, state interface{}, data string) (interface{}, string) {
	matchState, ok := state.(*MatchState)
	if !ok {
		return state, ""
	}
	label, err := encodeLabel(matchState.Hub.Label())
	if err != nil {
		logger.Warn("MatchSignal: Failed to marshal label: %v", err)
		return state, ""
	}
	return state, label
}
