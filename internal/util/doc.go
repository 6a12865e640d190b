// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across sessionchat.
//
//   - AtomicWriteFile: crash-safe file writing with fsync
//   - TruncateWidth, PadRight, StringWidth: column-aware text fitting for
//     session lists with wide characters
package util
