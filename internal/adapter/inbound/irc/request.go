package irc

import "strings"

// Command names as typed by users.
const (
	CommandHelp     = "HELP"
	CommandRegister = "REGISTER"
	CommandAuth     = "AUTH"
	CommandIdentify = "IDENTIFY"
)

// Request is a parsed private message. Exactly one of the concrete types below.
type Request interface {
	Command() string
}

// HelpRequest asks for the command list.
type HelpRequest struct{}

// RegisterRequest claims the sender's nick.
type RegisterRequest struct {
	Password string
	Email    string
}

// AuthRequest confirms a pending claim with the mailed token.
type AuthRequest struct {
	Token string
}

// IdentifyRequest checks the sender's password.
type IdentifyRequest struct {
	Password string
}

// UsageRequest is a known command with the wrong number of arguments.
type UsageRequest struct {
	Name string
}

// UnknownRequest is anything else.
type UnknownRequest struct {
	Name string
}

func (HelpRequest) Command() string      { return CommandHelp }
func (RegisterRequest) Command() string  { return CommandRegister }
func (AuthRequest) Command() string      { return CommandAuth }
func (IdentifyRequest) Command() string  { return CommandIdentify }
func (r UsageRequest) Command() string   { return r.Name }
func (r UnknownRequest) Command() string { return r.Name }

// ParseRequest parses a private message. The command word is case-insensitive
// and arguments are separated by whitespace.
func ParseRequest(text string) Request {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return UnknownRequest{}
	}

	name := strings.ToUpper(fields[0])
	args := fields[1:]

	switch name {
	case CommandHelp:
		return HelpRequest{}
	case CommandRegister:
		if len(args) != 2 {
			return UsageRequest{Name: name}
		}
		return RegisterRequest{Password: args[0], Email: args[1]}
	case CommandAuth:
		if len(args) != 1 {
			return UsageRequest{Name: name}
		}
		return AuthRequest{Token: args[0]}
	case CommandIdentify:
		if len(args) != 1 {
			return UsageRequest{Name: name}
		}
		return IdentifyRequest{Password: args[0]}
	default:
		return UnknownRequest{Name: name}
	}
}

// redact returns text safe to log: secrets in REGISTER and IDENTIFY are masked.
func redact(req Request, text string) string {
	switch r := req.(type) {
	case RegisterRequest:
		return CommandRegister + " *** " + r.Email
	case IdentifyRequest:
		return CommandIdentify + " ***"
	default:
		return text
	}
}
