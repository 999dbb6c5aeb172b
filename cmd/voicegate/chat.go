package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"voicegate/internal/contract"
	"voicegate/internal/engine"
	"voicegate/internal/session"
	"voicegate/internal/voice"
)

var (
	chatShowTrace bool
	chatSessionID string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Interactive shaped chat on stdin (session state persists in the store)",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().BoolVar(&chatShowTrace, "trace", false, "print the decision trace after each turn")
	chatCmd.Flags().StringVar(&chatSessionID, "session", "", "session id to resume (default: a fresh id)")
}

func runChat(cmd *cobra.Command, args []string) error {
	doc, err := contract.Load(cfg.Contract.Path)
	if err != nil {
		return fmt.Errorf("failed to load voice contract: %w", err)
	}

	store, err := session.NewStore(cfg.Sessions.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open session store: %w", err)
	}
	defer store.Close()

	sessions := session.NewManager(store, logger)
	sessionID := chatSessionID
	if sessionID == "" {
		sessionID = store.NewID()
	}
	fmt.Fprintln(os.Stderr, "session:", sessionID)

	eng := engine.New(doc, engine.StubGenerator{}, logger)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		prompt := strings.TrimSpace(scanner.Text())
		if prompt == "" {
			continue
		}
		if prompt == "/quit" || prompt == "/exit" {
			break
		}
		if prompt == "/reset" {
			if err := sessions.ResetSession(sessionID); err != nil {
				fmt.Fprintln(os.Stderr, "reset failed:", err)
				continue
			}
			fmt.Println("session reset")
			continue
		}

		var result *engine.TurnResult
		turnErr := sessions.WithSession(sessionID, func(state *voice.SessionState) error {
			var genErr error
			result, genErr = eng.Generate(cmd.Context(), state, prompt, "")
			return genErr
		})
		if turnErr != nil {
			fmt.Fprintln(os.Stderr, "turn failed:", turnErr)
			continue
		}

		fmt.Println(result.ResponseText)
		if chatShowTrace {
			traceJSON, err := json.MarshalIndent(result.Trace, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(traceJSON))
		}
	}
	return scanner.Err()
}
