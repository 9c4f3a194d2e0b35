package irc

import "fmt"

// Replies sent back to users.
const (
	ReplyUsageRegister     = "Usage: REGISTER [password] [email]"
	ReplyUsageAuth         = "Usage: AUTH [code]"
	ReplyUsageIdentify     = "Usage: IDENTIFY [password]"
	ReplyAlreadyRegistered = "Sorry, but that nick is already registered. Please select another one"
	ReplyTokenIncorrect    = "Sorry, but that token is incorrect"
	ReplyActive            = "Your nick is now active!"
	ReplyNotRegistered     = "Nick is not registered. Use the REGISTER command to do so."
	ReplyWrongPassword     = "Sorry, but that's not right..."
	ReplyInvalidEmail      = "That doesn't look like an email address. " + ReplyUsageRegister
	ReplyError             = "Sorry, something went wrong. Please try again later."
	ReplyBusy              = "Sorry, I am busy right now. Please try again in a moment."
)

// HelpLines is the static HELP reply.
var HelpLines = []string{
	"REGISTER [password] [email] - claim your current nick; an auth code is mailed to you",
	"AUTH [code] - confirm a pending nick with the mailed code",
	"IDENTIFY [password] - check your password for your current nick",
	"HELP - show this list",
}

// ReplyPending tells the user to look for the confirmation mail.
func ReplyPending(hours int) string {
	return fmt.Sprintf("Your nick is now pending. Please check your email for the auth code and reply with `AUTH [code]`. "+
		"You must authenticate within %d hours or your nick will be relinquished.", hours)
}

// ReplyUnknown rejects an unrecognised command word.
func ReplyUnknown(name string) string {
	return fmt.Sprintf("Command %s is unknown", name)
}

func usageFor(name string) string {
	switch name {
	case CommandRegister:
		return ReplyUsageRegister
	case CommandAuth:
		return ReplyUsageAuth
	case CommandIdentify:
		return ReplyUsageIdentify
	default:
		return ReplyUnknown(name)
	}
}
