package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/beatmiles/internal/models"
	"github.com/desertthunder/beatmiles/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionLoaded MsgKind = iota
	MsgEffects
)

// operation names the engine call whose effects a [MsgEffects] carries.
type operation int

const (
	opList operation = iota
	opLogin
	opRegister
	opLogout
	opSubmit
	opBeginEdit
	opDelete
)

// sessionData is the payload of [MsgSessionLoaded].
type sessionData struct {
	session *models.Session
	err     error
}

// effectsData is the payload of [MsgEffects].
type effectsData struct {
	op       operation
	recorder *tasks.Recorder
	state    tasks.EditState
	err      error
}

// sessionLoadedMsg is the constructor for [MsgSessionLoaded]
func sessionLoadedMsg(sess *models.Session, err error) Msg {
	return Msg{kind: MsgSessionLoaded, data: sessionData{session: sess, err: err}}
}

// effectsMsg is the constructor for [MsgEffects]
func effectsMsg(op operation, rec *tasks.Recorder, state tasks.EditState, err error) Msg {
	return Msg{kind: MsgEffects, data: effectsData{op: op, recorder: rec, state: state, err: err}}
}
