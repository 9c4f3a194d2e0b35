package command

// IdentifyNick checks the password chosen at registration.
// A match has no further effect.
type IdentifyNick struct {
	Nick     string
	Password string
}

func (c IdentifyNick) CommandName() string {
	return "nickserv.identify"
}

// IdentifyNickResult is returned when the password matches.
type IdentifyNickResult struct {
	Nick string
}

// IdentifyNickHandler handles the IdentifyNick command.
type IdentifyNickHandler interface {
	Handler[IdentifyNick, IdentifyNickResult]
}
