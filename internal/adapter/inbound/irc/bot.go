package irc

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ergochat/irc-go/ircevent"
	"github.com/ergochat/irc-go/ircmsg"
	"golang.org/x/sync/errgroup"

	"github.com/0xsj/overwatch-pkg/log"
)

// BotConfig holds IRC connection settings.
type BotConfig struct {
	Server   string
	Port     int
	UseTLS   bool
	Nick     string
	User     string
	RealName string
	Password string
	Channels []string

	// Workers bounds how many senders are served at once.
	Workers int
	// QueueDepth bounds how many messages one sender may have waiting.
	QueueDepth int
	// CommandTimeout bounds a single command, storage and mail included.
	CommandTimeout time.Duration
}

// Address returns the host:port to dial.
func (c BotConfig) Address() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// client is the part of *ircevent.Connection the message path needs.
type client interface {
	Privmsg(target, message string) error
	CurrentNick() string
}

// Bot connects to IRC and answers private messages through a Handler.
type Bot struct {
	config  BotConfig
	conn    *ircevent.Connection
	client  client
	handler *Handler
	logger  log.Logger

	mu        sync.Mutex
	baseCtx   context.Context
	listeners []func(connected bool)
	queues    map[string]*senderQueue

	workers errgroup.Group
}

// senderQueue holds the messages of one sender that wait for its worker.
type senderQueue struct {
	pending []queuedMessage
}

type queuedMessage struct {
	sender Sender
	text   string
}

// NewBot creates a new Bot. Nothing is dialled until Run.
func NewBot(config BotConfig, handler *Handler, logger log.Logger) *Bot {
	if config.Workers <= 0 {
		config.Workers = 8
	}
	if config.QueueDepth <= 0 {
		config.QueueDepth = 4
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = time.Minute
	}

	conn := &ircevent.Connection{
		Server:      config.Address(),
		Nick:        config.Nick,
		User:        config.User,
		RealName:    config.RealName,
		Password:    config.Password,
		UseTLS:      config.UseTLS,
		QuitMessage: "shutting down",
	}
	if config.UseTLS {
		conn.TLSConfig = &tls.Config{ServerName: config.Server}
	}

	b := &Bot{
		config:  config,
		conn:    conn,
		client:  conn,
		handler: handler,
		logger:  logger,
		baseCtx: context.Background(),
		queues:  make(map[string]*senderQueue),
	}
	b.workers.SetLimit(config.Workers)

	conn.AddConnectCallback(b.onConnect)
	conn.AddDisconnectCallback(b.onDisconnect)
	conn.AddCallback("PRIVMSG", b.onPrivmsg)
	conn.AddCallback("ERROR", b.onError)

	return b
}

// OnConnectionChange registers fn to be called whenever the IRC session comes up or goes down.
func (b *Bot) OnConnectionChange(fn func(connected bool)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.listeners = append(b.listeners, fn)
}

// Run connects and serves until ctx is cancelled, then quits and waits for
// in-flight commands to finish.
func (b *Bot) Run(ctx context.Context) error {
	b.mu.Lock()
	b.baseCtx = ctx
	b.mu.Unlock()

	b.logger.Info("connecting to irc",
		log.String("server", b.config.Address()),
		log.String("nick", b.config.Nick),
	)
	if err := b.conn.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", b.config.Address(), err)
	}

	done := make(chan struct{})
	go func() {
		b.conn.Loop()
		close(done)
	}()

	select {
	case <-ctx.Done():
		b.logger.Info("disconnecting from irc")
		b.conn.Quit()
		<-done
	case <-done:
	}

	b.workers.Wait()
	b.setConnected(false)
	b.logger.Info("disconnected")
	return nil
}

func (b *Bot) onConnect(e ircmsg.Message) {
	b.logger.Info("connected to irc", log.String("nick", b.client.CurrentNick()))
	for _, channel := range b.config.Channels {
		if err := b.conn.Join(channel); err != nil {
			b.logger.Warn("failed to join channel",
				log.String("channel", channel),
				log.String("error", err.Error()),
			)
		}
	}
	b.setConnected(true)
}

func (b *Bot) onDisconnect(e ircmsg.Message) {
	b.logger.Warn("irc connection lost")
	b.setConnected(false)
}

func (b *Bot) onError(e ircmsg.Message) {
	b.logger.Error("irc error", log.String("message", strings.Join(e.Params, " ")))
}

// onPrivmsg handles messages addressed to the bot itself; channel traffic is ignored.
func (b *Bot) onPrivmsg(e ircmsg.Message) {
	if len(e.Params) < 2 {
		return
	}
	target, text := e.Params[0], e.Params[1]
	if !strings.EqualFold(target, b.client.CurrentNick()) {
		return
	}

	sender := ParseSource(e.Source)
	if sender.Nick == "" {
		return
	}

	b.enqueue(queuedMessage{sender: sender, text: text})
}

// enqueue hands msg to the sender's worker, starting one if needed.
// It never blocks: when no worker slot or queue room is left the sender is told to retry.
// One worker per sender keeps that sender's replies in order.
func (b *Bot) enqueue(msg queuedMessage) {
	key := strings.ToLower(msg.sender.Nick)

	b.mu.Lock()
	if q, ok := b.queues[key]; ok {
		if len(q.pending) >= b.config.QueueDepth {
			b.mu.Unlock()
			b.busy(msg.sender)
			return
		}
		q.pending = append(q.pending, msg)
		b.mu.Unlock()
		return
	}

	q := &senderQueue{pending: []queuedMessage{msg}}
	base := b.baseCtx
	started := b.workers.TryGo(func() error {
		b.drain(base, key, q)
		return nil
	})
	if started {
		b.queues[key] = q
	}
	b.mu.Unlock()

	if !started {
		b.busy(msg.sender)
	}
}

func (b *Bot) drain(base context.Context, key string, q *senderQueue) {
	for {
		b.mu.Lock()
		if len(q.pending) == 0 {
			delete(b.queues, key)
			b.mu.Unlock()
			return
		}
		msg := q.pending[0]
		q.pending = q.pending[1:]
		b.mu.Unlock()

		b.process(base, msg)
	}
}

func (b *Bot) process(base context.Context, msg queuedMessage) {
	// Shutdown waits for commands rather than cancelling them.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(base), b.config.CommandTimeout)
	defer cancel()

	for _, line := range b.handler.Handle(ctx, msg.sender, msg.text) {
		b.reply(msg.sender, line)
	}
}

func (b *Bot) busy(sender Sender) {
	b.logger.Warn("dropping message, bot is busy", log.String("from", sender.Nick))
	b.reply(sender, ReplyBusy)
}

func (b *Bot) reply(to Sender, line string) {
	if err := b.client.Privmsg(to.Nick, line); err != nil {
		b.logger.Warn("failed to send reply",
			log.String("to", to.Nick),
			log.String("error", err.Error()),
		)
	}
}

func (b *Bot) setConnected(connected bool) {
	b.mu.Lock()
	listeners := append([]func(bool){}, b.listeners...)
	b.mu.Unlock()

	for _, fn := range listeners {
		fn(connected)
	}
}

// ParseSource splits a "nick!user@host" message prefix.
func ParseSource(source string) Sender {
	var s Sender
	nick, rest, hasUser := strings.Cut(source, "!")
	s.Nick = nick
	if !hasUser {
		nick, host, _ := strings.Cut(source, "@")
		s.Nick = nick
		s.Host = host
		return s
	}
	s.User, s.Host, _ = strings.Cut(rest, "@")
	return s
}
