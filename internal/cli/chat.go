package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/sarthi-ai/voicechat/internal/client"
	"github.com/sarthi-ai/voicechat/internal/model"
	"github.com/sarthi-ai/voicechat/internal/session"
	"github.com/sarthi-ai/voicechat/internal/voice"
	"github.com/sarthi-ai/voicechat/pkg/logger"
)

var (
	chatLang   string
	chatPrompt string
	chatTTS    string
)

func init() {
	rootCmd.AddCommand(chatCmd)

	chatCmd.Flags().StringVar(&chatLang, "lang", voice.DefaultLanguage, "speech language")
	chatCmd.Flags().StringVar(&chatPrompt, "prompt", session.DefaultSystemPrompt, "system prompt sent with every message")
	chatCmd.Flags().StringVar(&chatTTS, "tts", "", "external TTS command; the reply text is passed as the last argument")
}

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive voice chat",
	Long: `Start an interactive chat. Plain lines are sent as typed messages.

Commands:
  /mic            toggle listening; the next line is taken as speech
  /stop           stop speaking the current reply
  /prompt [text]  show or set the system prompt
  /quit           exit`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
}

func runChat(ctx context.Context, in io.Reader, out, errOut io.Writer) error {
	log := logger.Global().Named("chat")
	p := &printer{w: out}

	wsURL, err := relayURL(serverURL)
	if err != nil {
		return err
	}

	engine := voice.NewConsoleEngine(errOut, chatTTS)
	adapter := voice.NewAdapter(engine, voice.WithLanguage(chatLang), voice.WithLogger(log))

	var relay session.Relay
	rc, err := client.Dial(ctx, wsURL, log)
	if err != nil {
		fmt.Fprintf(errOut, "relay unavailable, messages will not be sent: %v\n", err)
	} else {
		relay = rc
		defer rc.Close()
	}

	ctrl := session.New(adapter, relay, session.WithSystemPrompt(chatPrompt), session.WithLogger(log))
	defer ctrl.Close()

	if err := ctrl.Load(ctx, client.NewHistoryClient(serverURL, nil)); err != nil {
		fmt.Fprintf(errOut, "history unavailable: %v\n", err)
	}
	for _, m := range ctrl.Messages() {
		p.message(m)
	}
	ctrl.OnMessage(p.message)

	if rc != nil {
		go func() {
			if err := rc.Listen(ctx, ctrl.HandleResponse); err != nil && ctx.Err() == nil {
				fmt.Fprintf(errOut, "relay closed: %v\n", err)
			}
		}()
	}

	return runLoop(ctx, in, p, ctrl, engine)
}

// runLoop reads commands and messages until /quit, EOF or ctx ends.
func runLoop(ctx context.Context, in io.Reader, p *printer, ctrl *session.Controller, engine *voice.ConsoleEngine) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		var line string
		select {
		case <-ctx.Done():
			return nil
		case l, ok := <-lines:
			if !ok {
				return nil
			}
			line = l
		}

		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "/quit":
			return nil
		case trimmed == "/mic":
			ctrl.ToggleMic()
			if engine.Listening() {
				p.status("listening... say something")
			}
		case engine.Listening():
			engine.Feed(line)
		case trimmed == "/stop":
			ctrl.CancelSpeech()
		case trimmed == "/prompt" || strings.HasPrefix(trimmed, "/prompt "):
			if prompt := strings.TrimSpace(strings.TrimPrefix(trimmed, "/prompt")); prompt != "" {
				ctrl.SetSystemPrompt(prompt)
			}
			p.status("system prompt: " + ctrl.SystemPrompt())
		default:
			ctrl.SetInput(line)
			ctrl.Submit(ctx)
		}
	}
}

// printer serializes terminal output from the input loop and the relay
// listener.
type printer struct {
	mu sync.Mutex
	w  io.Writer
}

func (p *printer) message(m model.Message) {
	who := "you"
	if m.Role == model.RoleAI {
		who = "sarthi"
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), who, m.Text)
}

func (p *printer) status(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "* %s\n", text)
}
