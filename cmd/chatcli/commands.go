package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"financebot-be/pkg/chatclient"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newLoginCommand(opt *Options) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and cache your profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opt.Controller()
			if err != nil {
				return err
			}
			if email == "" || password == "" {
				return errors.New("Email y contraseña son requeridos")
			}
			user, err := ctrl.Login(cmd.Context(), email, password)
			if err != nil {
				color.Red("%s", err)
				return nil
			}
			color.Green("Hola, %s", user.Name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func newRegisterCommand(opt *Options) *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opt.Controller()
			if err != nil {
				return err
			}
			msg, err := ctrl.Register(cmd.Context(), email, password, name)
			if err != nil {
				color.Red("%s", err)
				return nil
			}
			color.Green("%s", msg)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	return cmd
}

func newLogoutCommand(opt *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the cached conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opt.Controller()
			if err != nil {
				return err
			}
			_ = ctrl.Mount(cmd.Context())
			ctrl.Logout(cmd.Context())
			color.Green("Sesión cerrada")
			return nil
		},
	}
}

func newSessionsCommand(opt *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List your past conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opt.Controller()
			if err != nil {
				return err
			}
			if err := ctrl.Mount(cmd.Context()); err != nil {
				return notSignedIn(err)
			}
			return printSessions(cmd.Context(), ctrl)
		},
	}
}

func newChatCommand(opt *Options) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to FinanceBot",
		Long: `Talk to FinanceBot. Inside the chat:
  /sugerencias      show starter questions (then /1 ... /5 to ask one)
  /historial        list past conversations
  /abrir <id>       load a past conversation
  /salir            sign out
  /quit             leave without signing out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := opt.Controller()
			if err != nil {
				return err
			}
			if err := ctrl.Mount(cmd.Context()); err != nil {
				return notSignedIn(err)
			}
			return runChat(cmd.Context(), opt, ctrl)
		},
	}
}

func notSignedIn(err error) error {
	if errors.Is(err, chatclient.ErrNotSignedIn) {
		return errors.New("not signed in, run `chatcli login` first")
	}
	return err
}

func runChat(ctx context.Context, opt *Options, ctrl *chatclient.Controller) error {
	color.Cyan("FinanceBot · Asesor Financiero Personal (sesión %s)", ctrl.SessionID())
	for _, m := range ctrl.Messages() {
		printMessage(m)
	}
	if len(ctrl.Messages()) == 0 {
		color.Green("¡Hola! Soy tu asesor financiero personal. Puedo ayudarte con presupuestos, ahorros, inversiones, deudas y gastos personales.")
		printSuggestions()
	}

	suggestions := chatclient.SuggestedQuestions()
	scanner := bufio.NewScanner(os.Stdin)
	for {
		color.New(color.FgBlue, color.Bold).Print("tú> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue
		case line == "/quit":
			ctrl.Wait()
			return nil
		case line == "/salir":
			ctrl.Wait()
			ctrl.Logout(ctx)
			color.Green("Sesión cerrada")
			return nil
		case line == "/sugerencias":
			printSuggestions()
			continue
		case line == "/historial":
			if err := printSessions(ctx, ctrl); err != nil {
				color.Red("%v", err)
			}
			continue
		case strings.HasPrefix(line, "/abrir "):
			if err := ctrl.SelectSession(ctx, strings.TrimSpace(strings.TrimPrefix(line, "/abrir "))); err != nil {
				color.Red("%v", err)
				continue
			}
			for _, m := range ctrl.Messages() {
				printMessage(m)
			}
			continue
		case strings.HasPrefix(line, "/"):
			n, err := strconv.Atoi(strings.TrimPrefix(line, "/"))
			if err != nil || n < 1 || n > len(suggestions) {
				color.Yellow("Comando desconocido: %s", line)
				continue
			}
			line = suggestions[n-1]
			color.Blue("tú> %s", line)
		}

		ask(ctx, opt, ctrl, line)
	}
	ctrl.Wait()
	return scanner.Err()
}

func ask(ctx context.Context, opt *Options, ctrl *chatclient.Controller, text string) {
	callCtx, cancel := context.WithTimeout(ctx, opt.RequestTimeout)
	defer cancel()

	bot := color.New(color.FgGreen, color.Bold)
	bot.Print("FinanceBot> ")
	ctrl.SetInput(text)
	reply := ctrl.SubmitInput(callCtx)
	if reply == nil {
		fmt.Println()
		return
	}
	// Streaming mode already echoed the chunks as they arrived.
	if chatclient.Mode(opt.Mode) != chatclient.ModeStreaming || reply.Content == chatclient.FallbackReply {
		fmt.Print(reply.Content)
	}
	fmt.Println()
}

func printMessage(m chatclient.Message) {
	if m.Role == chatclient.RoleUser {
		color.Blue("tú> %s", m.Content)
		return
	}
	color.Green("FinanceBot> %s", m.Content)
}

func printSuggestions() {
	color.Yellow("Sugerencias:")
	for i, q := range chatclient.SuggestedQuestions() {
		fmt.Printf("  /%d  %s\n", i+1, q)
	}
}

func printSessions(ctx context.Context, ctrl *chatclient.Controller) error {
	sessions, err := ctrl.Sessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		color.Yellow("No hay conversaciones anteriores")
		return nil
	}
	for _, s := range sessions {
		fmt.Printf("%s  %s  %s\n", color.CyanString(s.StartedAt.Local().Format("2006-01-02 15:04")), s.ID, s.Topic)
	}
	return nil
}
