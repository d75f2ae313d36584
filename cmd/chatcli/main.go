package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"financebot-be/internal/pkg/logger"
	"financebot-be/pkg/advisor"
	"financebot-be/pkg/chatclient"

	"github.com/fatih/color"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

type Options struct {
	ServerURL     string
	StatePath     string
	RedisURL      string
	Mode          string
	AdvisorURL    string
	AdvisorToken  string
	LogFilePath   string
	RequestTimeout time.Duration
}

func main() {
	home, _ := os.UserHomeDir()
	opt := &Options{
		ServerURL:     envOr("FINANCEBOT_URL", "http://localhost:3000"),
		StatePath:     filepath.Join(home, ".financebot", "state.json"),
		Mode:          string(chatclient.ModeStreaming),
		AdvisorURL:    os.Getenv("ADVISOR_URL"),
		AdvisorToken:  os.Getenv("ADVISOR_TOKEN"),
		LogFilePath:   filepath.Join(home, ".financebot", "chatcli.log"),
		RequestTimeout: 60 * time.Second,
	}

	root := &cobra.Command{
		Use:           "chatcli",
		Short:         "Terminal client for FinanceBot, your personal finance advisor",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVar(&opt.ServerURL, "server", opt.ServerURL, "FinanceBot server base URL")
	flags.StringVar(&opt.StatePath, "state", opt.StatePath, "File holding the cached conversation and profile")
	flags.StringVar(&opt.RedisURL, "redis", opt.RedisURL, "Keep the cache in redis instead of --state (e.g. redis://localhost:6379/0)")
	flags.StringVar(&opt.Mode, "mode", opt.Mode, "Advisor mode: streaming or external")
	flags.StringVar(&opt.AdvisorURL, "advisor-url", opt.AdvisorURL, "Call the external advisor directly instead of through the server")
	flags.StringVar(&opt.AdvisorToken, "advisor-token", opt.AdvisorToken, "Bearer token for --advisor-url")
	flags.StringVar(&opt.LogFilePath, "log-file", opt.LogFilePath, "Where the client writes its logs")
	flags.DurationVar(&opt.RequestTimeout, "timeout", opt.RequestTimeout, "Timeout for a single advisor call")

	root.AddCommand(
		newLoginCommand(opt),
		newRegisterCommand(opt),
		newLogoutCommand(opt),
		newSessionsCommand(opt),
		newChatCommand(opt),
	)

	if err := root.Execute(); err != nil {
		color.Red("error: %v", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Controller wires a chatclient.Controller from the command line options.
func (o *Options) Controller() (*chatclient.Controller, error) {
	var durable chatclient.Store = chatclient.NewFileStore(o.StatePath)
	if o.RedisURL != "" {
		redisOpts, err := redis.ParseURL(o.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		durable = chatclient.NewRedisStore(redis.NewClient(redisOpts), "financebot:chatcli:")
	}

	backend := chatclient.NewBackend(o.ServerURL, nil)

	var adv chatclient.Advisor
	switch chatclient.Mode(o.Mode) {
	case chatclient.ModeStreaming:
		adv = chatclient.NewStreamingAdvisor(backend, func(chunk string) { fmt.Print(chunk) })
	case chatclient.ModeExternal:
		var asker chatclient.Asker = backend
		if o.AdvisorURL != "" {
			asker = advisor.NewClient(o.AdvisorURL, o.AdvisorToken, o.RequestTimeout)
		}
		adv = chatclient.NewExternalAdvisor(asker)
	default:
		return nil, fmt.Errorf("unknown mode %q", o.Mode)
	}

	return chatclient.New(chatclient.Options{
		Backend: backend,
		Advisor: adv,
		Durable: durable,
		Tab:     chatclient.NewMemoryStore(),
		Logger:  logger.NewIsolatedLogger(o.LogFilePath),
	}), nil
}
