// Package command declares the bot's write operations as typed requests,
// one handler interface per request.
package command

import "context"

// Command is implemented by every request type. The name is used in logs.
type Command interface {
	CommandName() string
}

// Handler executes one kind of Command.
type Handler[C Command, R any] interface {
	Handle(ctx context.Context, cmd C) (R, error)
}
