package commands

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/haivivi/rtckit/pkg/cli"
	"github.com/haivivi/rtckit/pkg/realtime"
)

var (
	connectContext      string
	connectFile         string
	connectModel        string
	connectInstructions string
	connectWebSocket    bool
	connectTimeout      int
)

var uiStyles = cli.NewStyles(cli.DefaultTheme)

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Open an interactive realtime session",
	Long: `Open a realtime session and chat over the data channel.

Typed lines are sent as user messages; responses stream back as text deltas.
The session registers a get_current_time tool that the remote side can call.

Examples:
  rtckit connect
  rtckit connect -c dev --model gpt-4o-realtime-preview
  rtckit connect -f session.yaml --websocket`,
	RunE: runConnect,
}

func init() {
	connectCmd.Flags().StringVarP(&connectContext, "context", "c", "", "context name (default: current context)")
	connectCmd.Flags().StringVarP(&connectFile, "file", "f", "", "session config file (YAML or JSON)")
	connectCmd.Flags().StringVar(&connectModel, "model", "", "model override")
	connectCmd.Flags().StringVar(&connectInstructions, "instructions", "", "system instructions")
	connectCmd.Flags().BoolVar(&connectWebSocket, "websocket", false, "use WebSocket transport instead of WebRTC")
	connectCmd.Flags().IntVar(&connectTimeout, "timeout", 30, "connect timeout in seconds")

	rootCmd.AddCommand(connectCmd)
}

func runConnect(cmd *cobra.Command, args []string) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	appCtx, err := cfg.ResolveContext(connectContext)
	if err != nil {
		return err
	}
	if appCtx.APIKey == "" {
		return fmt.Errorf("context %q has no API key", appCtx.Name)
	}

	sessCfg := &realtime.SessionConfig{}
	if connectFile != "" {
		if err := cli.LoadRequest(connectFile, sessCfg); err != nil {
			return err
		}
	}
	if sessCfg.Model == "" {
		sessCfg.Model = appCtx.Model
	}
	if connectModel != "" {
		sessCfg.Model = connectModel
	}
	if connectInstructions != "" {
		sessCfg.Instructions = connectInstructions
	}
	if sessCfg.Voice == "" {
		sessCfg.Voice = appCtx.Voice
	}
	if len(sessCfg.Modalities) == 0 {
		sessCfg.Modalities = []string{realtime.ModalityText}
	}
	sessCfg.Tools = append(sessCfg.Tools, clockTool())

	// Debug logs go to stderr and are also captured so the session can save
	// them on exit.
	logs := cli.NewLogWriter(500)
	if IsVerbose() {
		slog.SetDefault(slog.New(slog.NewTextHandler(
			io.MultiWriter(os.Stderr, logs),
			&slog.HandlerOptions{Level: slog.LevelDebug})))
	}

	var clientOpts []realtime.ClientOption
	if appCtx.Organization != "" {
		clientOpts = append(clientOpts, realtime.WithOrganization(appCtx.Organization))
	}
	if appCtx.Project != "" {
		clientOpts = append(clientOpts, realtime.WithProject(appCtx.Project))
	}
	if appCtx.BaseURL != "" {
		clientOpts = append(clientOpts, realtime.WithBaseURL(appCtx.BaseURL))
	}
	if appCtx.WebSocketURL != "" {
		clientOpts = append(clientOpts, realtime.WithWebSocketURL(appCtx.WebSocketURL))
	}
	if appCtx.Timeout > 0 {
		clientOpts = append(clientOpts, realtime.WithHTTPClient(&http.Client{
			Timeout: time.Duration(appCtx.Timeout) * time.Second,
		}))
	}
	client := realtime.NewClient(appCtx.APIKey, clientOpts...)

	ctx, cancel := context.WithTimeout(cmd.Context(), time.Duration(connectTimeout)*time.Second)
	defer cancel()

	started := time.Now()

	transport := "webrtc"
	var h *realtime.Handle
	if connectWebSocket {
		transport = "websocket"
		h, err = client.ConnectWebSocket(ctx, sessCfg)
	} else {
		h, err = client.Connect(ctx, sessCfg)
	}
	if err != nil {
		return err
	}
	defer h.Dispose()

	banner := cli.Frame{
		Styles: uiStyles,
		Title:  "rtckit",
		Status: "open",
		Sections: []cli.Section{{
			Label: "Session",
			Lines: []string{
				"id:        " + h.SessionID(),
				"model:     " + sessCfg.Model,
				"transport: " + transport,
			},
		}},
		Help: "Type a message and press enter. Ctrl-C to quit.",
	}
	fmt.Println(banner.Render(64))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	var stats sessionStats
	go printEvents(h, &stats)
	go readInput(h)

	<-sigCh
	fmt.Println()
	cli.PrintInfo("Session closed after %s: %d events, %s received.",
		cli.FormatDuration(time.Since(started)),
		stats.events.Load(), cli.FormatBytes(stats.bytes.Load()))

	if IsVerbose() {
		if path, err := saveSessionLog(logs, started); err == nil {
			cli.PrintInfo("Debug log saved to %s", path)
		}
	}
	return nil
}

// sessionStats counts inbound traffic for the exit summary.
type sessionStats struct {
	events atomic.Int64
	bytes  atomic.Int64
}

// saveSessionLog writes the captured debug log under the app's log directory
// and returns the file path.
func saveSessionLog(logs *cli.LogWriter, started time.Time) (string, error) {
	p, err := cli.NewPaths("rtckit")
	if err != nil {
		return "", err
	}
	if err := p.EnsureLogDir(); err != nil {
		return "", err
	}
	path := p.LogPath("session-" + started.Format("20060102-150405") + ".log")
	data := strings.Join(logs.Lines(), "\n") + "\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// clockTool returns the demo tool every session registers.
func clockTool() *realtime.Tool {
	return realtime.MustNewTool("get_current_time", "Returns the current local time in RFC 3339 format.",
		func(ctx context.Context, h *realtime.Handle, _ struct{}) (string, error) {
			return time.Now().Format(time.RFC3339), nil
		})
}

func prompt() {
	fmt.Print(uiStyles.Label.Render(">") + " ")
}

// printEvents renders the inbound event stream until the session ends.
func printEvents(h *realtime.Handle, stats *sessionStats) {
	inText := false
	for e := range h.Events() {
		stats.events.Add(1)
		stats.bytes.Add(int64(len(e.Raw)))
		switch e.Type {
		case realtime.EventTypeResponseTextDelta, realtime.EventTypeResponseAudioTranscriptDelta:
			fmt.Print(e.Delta)
			inText = true
		case realtime.EventTypeResponseDone:
			if inText {
				fmt.Println()
				inText = false
			}
			prompt()
		case realtime.EventTypeToolCall:
			fmt.Printf("\n[tool call] %s(%s)\n", e.Name, e.Arguments)
		case realtime.EventTypeError:
			if e.Error != nil {
				cli.PrintError("%s: %s", e.Error.Code, e.Error.Message)
			}
		default:
			if IsVerbose() {
				slog.Debug("event", "type", e.Type)
			}
		}
	}
}

// readInput sends each stdin line as a user message and requests a response.
func readInput(h *realtime.Handle) {
	prompt()
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			prompt()
			continue
		}
		if err := h.AddUserMessage(line); err != nil {
			cli.PrintError("send: %v", err)
			return
		}
		if err := h.CreateResponse(nil); err != nil {
			cli.PrintError("request response: %v", err)
			return
		}
	}
}
