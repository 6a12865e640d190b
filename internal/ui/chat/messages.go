// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"github.com/jeranaias/sessionchat/internal/state"
)

// StateMsg carries a snapshot published by the state observer.
type StateMsg struct {
	Snapshot state.Snapshot
}

// opKind names the operation an opDoneMsg reports on.
type opKind int

const (
	opStart opKind = iota
	opList
	opCreate
	opRename
	opDelete
	opSelect
	opReload
	opSend
	opLogin
	opRegister
	opLogout
	opModel
)

func (k opKind) String() string {
	switch k {
	case opStart:
		return "start"
	case opList:
		return "list"
	case opCreate:
		return "create"
	case opRename:
		return "rename"
	case opDelete:
		return "delete"
	case opSelect:
		return "select"
	case opReload:
		return "reload"
	case opSend:
		return "send"
	case opLogin:
		return "login"
	case opRegister:
		return "register"
	case opLogout:
		return "logout"
	case opModel:
		return "model"
	default:
		return "unknown"
	}
}

// opDoneMsg reports the end of an operation started from Update.
type opDoneMsg struct {
	op     opKind
	err    error
	status string

	// sessionID is the session an operation created or selected.
	sessionID int
}
