package command

// RegisterNick claims a nick for the requesting user and mails a confirmation token.
type RegisterNick struct {
	Nick     string
	Owner    string
	Password string
	Email    string
}

func (c RegisterNick) CommandName() string {
	return "nickserv.register"
}

// RegisterNickResult describes the pending record that was created.
type RegisterNickResult struct {
	Nick             string
	Reclaimed        bool
	AuthWindowHours  int
	NotificationSent bool
}

// RegisterNickHandler handles the RegisterNick command.
type RegisterNickHandler interface {
	Handler[RegisterNick, RegisterNickResult]
}
