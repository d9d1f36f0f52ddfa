package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/agriaid/agriaid/agent"
	"github.com/agriaid/agriaid/compose"
	"github.com/agriaid/agriaid/config"
	"github.com/agriaid/agriaid/core"
	"github.com/agriaid/agriaid/model"
	"github.com/agriaid/agriaid/orchestrator"
	"github.com/agriaid/agriaid/provider"
	"github.com/agriaid/agriaid/registry"
	"github.com/agriaid/agriaid/router"
	"github.com/agriaid/agriaid/session"
)

// printSender writes each outbound segment straight to stdout.
type printSender struct{}

func (printSender) Send(_ context.Context, _, segment string) error {
	fmt.Printf("  << %s\n", segment)
	return nil
}

func newChatCmd() *cobra.Command {
	var farmerID string
	var useMock bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk to the pipeline from the terminal",
		Long:  "Runs the full message pipeline locally, printing each SMS segment instead of sending it.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if useMock {
				cfg.ModelProvider = "mock"
			}
			return runChat(cfg, core.NormalizePhone(farmerID))
		},
	}
	cmd.Flags().StringVar(&farmerID, "farmer", "+254700000000", "farmer phone number to simulate")
	cmd.Flags().BoolVar(&useMock, "mock", false, "use the offline mock model")
	return cmd
}

func runChat(cfg *config.Config, farmerID string) error {
	store, err := registry.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open registry: %w", err)
	}
	defer store.Close()

	var mdl model.Model
	if mdl, err = buildModel(cfg); err != nil {
		return err
	}

	sessions := session.NewInMemoryStore(func(o *session.Options) {
		o.TTL = cfg.SessionTTL
		o.MaxInteractions = cfg.SessionMaxInteractions
	})
	gateway := provider.NewGateway(buildProviders(cfg, store))
	rt := router.New(func(o *router.Options) { o.Registrations = store })
	ag := agent.New(mdl)
	composer := compose.New(func(o *compose.Options) { o.MaxLength = cfg.SMSMaxLength })

	orch := orchestrator.New(sessions, rt, gateway, ag, composer, printSender{}, func(o *orchestrator.Options) {
		o.MaxInteractions = cfg.SessionMaxInteractions
	})
	defer orch.Stop()

	fmt.Printf("AgriAid chat as %s. Empty line or Ctrl-D quits.\n", farmerID)
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("you >> ")
		if !scanner.Scan() {
			break
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			break
		}
		if err := orch.Handle(core.InboundMessage{FarmerID: farmerID, Text: text, ReceivedAt: time.Now()}); err != nil {
			fmt.Printf("  !! %v\n", err)
			continue
		}
		waitForIdle(orch, farmerID)
	}
	return scanner.Err()
}

// waitForIdle blocks until the farmer's pipeline has drained, so replies
// print before the next prompt.
func waitForIdle(orch *orchestrator.Orchestrator, farmerID string) {
	deadline := time.Now().Add(90 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
		if orch.State(farmerID) == orchestrator.StateIdle {
			return
		}
	}
}
