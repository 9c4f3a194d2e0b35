package command

// AuthenticateNick confirms a pending nick with the token from the confirmation mail.
// Nick is the sender's own nick; confirming another nick is not supported.
type AuthenticateNick struct {
	Nick  string
	Token string
}

func (c AuthenticateNick) CommandName() string {
	return "nickserv.auth"
}

// AuthenticateNickResult describes the activated record.
type AuthenticateNickResult struct {
	Nick string
}

// AuthenticateNickHandler handles the AuthenticateNick command.
type AuthenticateNickHandler interface {
	Handler[AuthenticateNick, AuthenticateNickResult]
}
