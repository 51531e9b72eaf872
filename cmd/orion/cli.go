package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/benhli40/Orion/pkg/agent"
	"github.com/benhli40/Orion/pkg/bus"
	"github.com/benhli40/Orion/pkg/channels"
	"github.com/benhli40/Orion/pkg/heartbeat"
	"github.com/benhli40/Orion/pkg/logger"
	"github.com/benhli40/Orion/pkg/memory"
	"github.com/benhli40/Orion/pkg/skills"
	"github.com/benhli40/Orion/pkg/voice"
)

func executeCLI() error {
	return buildRootCommand().Execute()
}

func buildRootCommand() *cobra.Command {
	var showVersion bool

	root := &cobra.Command{
		Use:   "orion",
		Short: "Voice-first personal assistant with skills, memory, and an LLM fallback",
		Long: strings.TrimSpace(`orion is a JARVIS-style personal assistant.

Use CLI commands to onboard, chat in the terminal, run the wake-word voice
loop, run the Discord gateway, and manage skills and remembered facts.`),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if showVersion {
				printVersion()
				return nil
			}
			_ = cmd.Help()
			return fmt.Errorf("a subcommand is required")
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.Flags().BoolVarP(&showVersion, "version", "v", false, "Show build/version metadata")

	root.AddCommand(newOnboardCommand())
	root.AddCommand(newChatCommand())
	root.AddCommand(newVoiceCommand())
	root.AddCommand(newGatewayCommand())
	root.AddCommand(newStatusCommand())
	root.AddCommand(newSkillsCommand())
	root.AddCommand(newMemoryCommand())
	root.AddCommand(newVersionCommand())

	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newOnboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "onboard",
		Short:   "Initialize ~/.orion config and data directories",
		Example: "  orion onboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return onboard()
		},
	}
}

func newChatCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "chat",
		Short:   "Interactive text chat (no microphone or speakers needed)",
		Example: "  orion chat",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(logger.DEBUG)
			}
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, _, err := buildAssistant(ctx, cfg, false)
			if err != nil {
				return err
			}
			return interactiveChat(ctx, a)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func interactiveChat(ctx context.Context, a *agent.Assistant) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "You: ",
		HistoryFile:     filepath.Join(os.TempDir(), ".orion_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Printf("Error initializing readline: %v\n", err)
		fmt.Println("Falling back to simple input mode...")
		return a.RunConsole(ctx, os.Stdin)
	}
	defer rl.Close()

	fmt.Println("Interactive mode (Ctrl+C to exit)")
	fmt.Println()

	for {
		if ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" || input == "close." {
			fmt.Println("Goodbye!")
			return nil
		}

		a.HandleUtterance(ctx, input)
		fmt.Println()
	}
}

func newVoiceCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "voice",
		Short:   "Run the wake-word voice loop",
		Long:    "Listen on the microphone, gate on the wake word, and speak replies through ElevenLabs.",
		Example: "  orion voice",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(logger.DEBUG)
			}
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, _, err := buildAssistant(ctx, cfg, true)
			if err != nil {
				return err
			}
			rec, err := voice.NewExecRecorder(cfg.Voice.RecorderCmd)
			if err != nil {
				return fmt.Errorf("%w\nTip: set voice.recorder_command to a command that prints one transcribed utterance", err)
			}
			if err := a.RunLoop(ctx, rec, os.Stdin); err != nil && err != context.Canceled {
				return err
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newGatewayCommand() *cobra.Command {
	var debug bool

	cmd := &cobra.Command{
		Use:     "gateway",
		Short:   "Run the Discord gateway and heartbeat",
		Example: "  orion gateway --debug",
		RunE: func(cmd *cobra.Command, args []string) error {
			if debug {
				logger.SetLevel(logger.DEBUG)
			}
			ctx, cancel := signalContext()
			defer cancel()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, _, err := buildAssistant(ctx, cfg, false)
			if err != nil {
				return err
			}

			messageBus := bus.NewMessageBus()
			defer messageBus.Close()

			manager, err := channels.NewManager(cfg, messageBus)
			if err != nil {
				return err
			}
			if err := manager.StartAll(ctx); err != nil {
				return err
			}

			go a.RunGateway(ctx, messageBus)

			if cfg.Heartbeat.Enabled {
				hb, err := heartbeat.New(cfg.Heartbeat, func(hctx context.Context, prompt string) {
					reply := a.Reply(hctx, prompt)
					if reply == "" {
						return
					}
					if cfg.Heartbeat.ChatID == "" {
						logger.InfoCF("heartbeat", "Check-in", map[string]interface{}{"reply": reply})
						return
					}
					channel := cfg.Heartbeat.Channel
					if channel == "" {
						channel = "discord"
					}
					messageBus.PublishOutbound(bus.OutboundMessage{
						Channel: channel,
						ChatID:  cfg.Heartbeat.ChatID,
						Content: reply,
					})
				})
				if err != nil {
					return err
				}
				go hb.Run(ctx)
			}

			fmt.Println("Gateway running. Ctrl+C to stop.")
			<-ctx.Done()

			stopCtx := context.Background()
			return manager.StopAll(stopCtx)
		},
	}
	cmd.Flags().BoolVarP(&debug, "debug", "d", false, "Enable debug logging")
	return cmd
}

func newStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "status",
		Short:   "Show configuration and runtime readiness",
		Example: "  orion status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			fmt.Printf("Version: %s\n", formatVersion())
			fmt.Printf("Config:  %s\n", getConfigPath())
			fmt.Printf("Data:    %s\n", cfg.DataDir())
			fmt.Printf("Model:   %s (%s)\n", cfg.Provider.Model, cfg.Provider.APIBase)
			fmt.Printf("Provider key set:   %t\n", cfg.Provider.APIKey != "")
			fmt.Printf("ElevenLabs key set: %t\n", cfg.Voice.ElevenAPIKey != "")
			fmt.Printf("Discord token set:  %t\n", cfg.Channels.Discord.Token != "")
			fmt.Printf("Heartbeat: enabled=%t schedule=%q\n", cfg.Heartbeat.Enabled, cfg.Heartbeat.Schedule)

			registry := skills.NewRegistry(cfg.SkillsDir())
			statuses := registry.ListAll()
			enabled := 0
			for _, st := range statuses {
				if st.Enabled {
					enabled++
				}
			}
			fmt.Printf("Skills:  %d installed, %d enabled\n", len(statuses), enabled)

			store, err := memory.NewStore(cfg.MemoryPath(), cfg.MaxConversations())
			if err == nil {
				fmt.Printf("Memory:  %d facts at %s\n", store.FactCount(), store.Path())
			}
			return nil
		},
	}
}

func newSkillsCommand() *cobra.Command {
	skillsRoot := &cobra.Command{
		Use:   "skills",
		Short: "List, enable, disable, and scaffold skills",
	}

	newRegistry := func() (*skills.Registry, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		return skills.NewRegistry(cfg.SkillsDir()), nil
	}

	skillsRoot.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List skills and their enable state",
		Example: "  orion skills list",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			statuses := registry.ListAll()
			if len(statuses) == 0 {
				fmt.Println("(none)")
				return nil
			}
			for _, st := range statuses {
				state := "off"
				if st.Enabled {
					state = "on"
				}
				fmt.Printf("  %-12s [%s]  %s\n", st.Name, state, st.Description)
			}
			return nil
		},
	})

	skillsRoot.AddCommand(&cobra.Command{
		Use:     "enable <name>",
		Short:   "Enable a skill",
		Args:    cobra.ExactArgs(1),
		Example: "  orion skills enable weather",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			fmt.Println(registry.SetEnabled(args[0], true))
			return nil
		},
	})

	skillsRoot.AddCommand(&cobra.Command{
		Use:     "disable <name>",
		Short:   "Disable a skill",
		Args:    cobra.ExactArgs(1),
		Example: "  orion skills disable weather",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			fmt.Println(registry.SetEnabled(args[0], false))
			return nil
		},
	})

	skillsRoot.AddCommand(&cobra.Command{
		Use:     "scaffold <name>",
		Short:   "Create a skill template in the skills directory",
		Args:    cobra.ExactArgs(1),
		Example: "  orion skills scaffold garage_door",
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := newRegistry()
			if err != nil {
				return err
			}
			path, err := registry.Scaffold(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Created %s. Edit it, then rebuild and reload.\n", path)
			return nil
		},
	})

	return skillsRoot
}

func newMemoryCommand() *cobra.Command {
	memoryRoot := &cobra.Command{
		Use:   "memory",
		Short: "Inspect and edit remembered facts",
	}

	openStore := func() (*memory.Store, error) {
		cfg, err := loadConfig()
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(cfg.DataDir(), 0o755); err != nil {
			return nil, err
		}
		return memory.NewStore(cfg.MemoryPath(), cfg.MaxConversations())
	}

	memoryRoot.AddCommand(&cobra.Command{
		Use:     "list",
		Short:   "List all remembered facts",
		Example: "  orion memory list",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			facts := store.FactsLike("")
			if len(facts) == 0 {
				fmt.Println("(no facts)")
				return nil
			}
			for _, f := range facts {
				fmt.Printf("  %s = %s\n", f.Key, f.Value)
			}
			return nil
		},
	})

	memoryRoot.AddCommand(&cobra.Command{
		Use:     "get <key>",
		Short:   "Show one fact",
		Args:    cobra.ExactArgs(1),
		Example: "  orion memory get favorite_color",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			key := memory.NormalizeKey(args[0])
			val, ok := store.Recall(key)
			if !ok {
				val, ok = store.Recall("favorite_" + key)
			}
			if !ok {
				return fmt.Errorf("no value saved for %q", key)
			}
			fmt.Println(val)
			return nil
		},
	})

	memoryRoot.AddCommand(&cobra.Command{
		Use:     "set <key> <value>",
		Short:   "Save a fact",
		Args:    cobra.MinimumNArgs(2),
		Example: "  orion memory set favorite_color navy",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openStore()
			if err != nil {
				return err
			}
			key := memory.NormalizeKey(args[0])
			val := strings.Join(args[1:], " ")
			if err := store.Remember(key, val); err != nil {
				return err
			}
			fmt.Printf("Saved %s = %s\n", key, val)
			return nil
		},
	})

	return memoryRoot
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "version",
		Short:   "Show build/version metadata",
		Example: "  orion version",
		RunE: func(cmd *cobra.Command, args []string) error {
			printVersion()
			return nil
		},
	}
}
