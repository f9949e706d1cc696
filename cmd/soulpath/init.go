package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

const configTemplate = `version: "1"

log:
  level: info
  format: text

gateway:
  bind: "%s"

channels:
  telegram:
    enabled: %t
  whatsapp:
    enabled: %t

engine:
  url: "%s"

delivery:
  backend: %s
  path: deliveries.db
  ttl: 168h
`

// initCmd walks through an interactive setup and writes a starter config.
// Credentials stay out of the file; the wizard only reminds which
// environment variables the chosen channels need.
func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init [path]",
		Short: "Interactively create a configuration file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := "soulpath.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists, remove it first", path)
			}

			var (
				bind      = "127.0.0.1:8080"
				engineURL = "http://localhost:5005/webhooks/rest/webhook"
				channels  []string
				backend   = "memory"
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewMultiSelect[string]().
						Title("Channels to enable").
						Options(
							huh.NewOption("Telegram", "telegram").Selected(true),
							huh.NewOption("WhatsApp Business", "whatsapp"),
						).
						Value(&channels),
					huh.NewInput().
						Title("Gateway bind address").
						Value(&bind),
					huh.NewInput().
						Title("Dialogue engine webhook URL").
						Value(&engineURL),
					huh.NewSelect[string]().
						Title("Delivery log backend").
						Options(
							huh.NewOption("In-memory (lost on restart)", "memory"),
							huh.NewOption("SQLite file", "sqlite"),
						).
						Value(&backend),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			if len(channels) == 0 {
				return fmt.Errorf("at least one channel must be enabled")
			}

			telegram := contains(channels, "telegram")
			whatsapp := contains(channels, "whatsapp")

			content := fmt.Sprintf(configTemplate, bind, telegram, whatsapp, engineURL, backend)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Printf("Wrote %s\n\n", path)
			var vars []string
			if telegram {
				vars = append(vars, "TELEGRAM_BOT_TOKEN", "TELEGRAM_WEBHOOK_SECRET")
			}
			if whatsapp {
				vars = append(vars, "WHATSAPP_ACCESS_TOKEN", "WHATSAPP_PHONE_NUMBER_ID", "WHATSAPP_VERIFY_TOKEN")
			}
			fmt.Printf("Before starting, export: %s\n", strings.Join(vars, ", "))
			return nil
		},
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
