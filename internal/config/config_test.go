package config

import (
	"reflect"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		IRC:      IRCConfig{Server: "irc.example.net", Port: 6667},
		NickServ: NickServConfig{BotNick: "NickServ", NickTimeoutDays: 90, AuthTimeoutHours: 24},
		Registry: RegistryConfig{Driver: RegistrySQLite, SQLitePath: "nickserv.db"},
		Lock:     LockConfig{Backend: LockMemory, TTL: 30 * time.Second, RetryWait: 25 * time.Millisecond},
		Mail:     MailConfig{Transport: MailLog},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty bot nick", func(c *Config) { c.NickServ.BotNick = " " }, true},
		{"zero auth timeout", func(c *Config) { c.NickServ.AuthTimeoutHours = 0 }, true},
		{"negative nick timeout", func(c *Config) { c.NickServ.NickTimeoutDays = -1 }, true},
		{"bad irc port", func(c *Config) { c.IRC.Port = 70000 }, true},
		{"unknown registry", func(c *Config) { c.Registry.Driver = "mysql" }, true},
		{"sqlite without path", func(c *Config) { c.Registry.SQLitePath = "" }, true},
		{"memory registry", func(c *Config) { c.Registry.Driver = RegistryMemory }, false},
		{"redis lock", func(c *Config) { c.Lock.Backend = LockRedis }, false},
		{"redis lock with tiny TTL", func(c *Config) {
			c.Lock.Backend = LockRedis
			c.Lock.TTL = 100 * time.Millisecond
		}, true},
		{"postgres lock on sqlite", func(c *Config) { c.Lock.Backend = LockPostgres }, true},
		{"postgres lock on postgres", func(c *Config) {
			c.Registry.Driver = RegistryPostgres
			c.Lock.Backend = LockPostgres
		}, false},
		{"unknown lock", func(c *Config) { c.Lock.Backend = "etcd" }, true},
		{"smtp mail", func(c *Config) { c.Mail.Transport = MailSMTP }, false},
		{"nats mail without url", func(c *Config) { c.Mail.Transport = MailNATS }, true},
		{"nats mail with url", func(c *Config) {
			c.Mail.Transport = MailNATS
			c.NATS.URL = "nats://localhost:4222"
		}, false},
		{"unknown mail", func(c *Config) { c.Mail.Transport = "pigeon" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIRCConfig_ChannelList(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"#help", []string{"#help"}},
		{" #help , #lobby,,", []string{"#help", "#lobby"}},
	}

	for _, tt := range tests {
		cfg := IRCConfig{Channels: tt.in}
		if got := cfg.ChannelList(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ChannelList(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := validConfig()
	if cfg.NATSEnabled() {
		t.Error("NATS should be disabled without a URL")
	}
	if cfg.NeedsPostgres() {
		t.Error("sqlite registry should not need postgres")
	}

	cfg.Registry.Driver = RegistryPostgres
	if !cfg.NeedsPostgres() {
		t.Error("postgres registry should need postgres")
	}

	redis := RedisConfig{Host: "localhost", Port: 6390}
	if got := redis.Address(); got != "localhost:6390" {
		t.Errorf("Address() = %v, want localhost:6390", got)
	}

	db := DatabaseConfig{Host: "db", Port: 5432, User: "u", Password: "p", Database: "n", SSLMode: "disable"}
	want := "host=db port=5432 user=u password=p dbname=n sslmode=disable"
	if got := db.ConnectionString(); got != want {
		t.Errorf("ConnectionString() = %v, want %v", got, want)
	}
}
