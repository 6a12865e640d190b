// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures shared by every layer of
// sessionchat: sessions, messages and the local auth session.
//
// # Key Types
//
//   - Session: a conversation thread owned by the remote API
//   - Message: a single turn, user or assistant
//   - AuthSession: the bearer token and username held after login
//   - Role: message role enumeration (user, assistant)
//
// # Usage
//
//	msg := model.NewUserMessage("Hello!")
//	reply := model.NewStreamingMessage()
//	reply.Append("Hi")
//	reply.Freeze()
package model
