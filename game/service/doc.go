// Package service provides the handler layer between the socket transport
// and the game state.
//
// The package implements:
//   - Connection lifecycle: binding socket users, disconnect forfeits
//   - Matchmaking: queue joins fanned into started matches
//   - Turn dispatch: one operation in, per-recipient views out
//   - Lobby statistics broadcasts
//
// Core Interfaces:
//
// Transport is the outbound side of the socket layer; the services emit
// through it and never hold connections themselves. Tests substitute an
// in-memory fake.
//
// Architecture:
//
// LobbyService and GameService sit between the transport multiplexer and
// the lobby/match packages. Handlers receive decoded payloads, mutate
// state through the lobby and the acting match, then render each seated
// player's private view and emit it to that player's socket only.
//
// Usage:
//
//	reg := lobby.New(log, store)
//	lobbySvc := service.NewLobbyService(log, reg, transport, timeout)
//	gameSvc := service.NewGameService(log, reg, lobbySvc, transport)
package service
