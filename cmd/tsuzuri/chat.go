package main

import (
	"fmt"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	tsuzuri "github.com/tsuzuri-dev/tsuzuri"
	"github.com/tsuzuri-dev/tsuzuri/pkg/config"
)

func newChatCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Talk through your day and save it as a diary entry",
		Long: `Starts an interactive session. The companion asks about your day;
when you type /finish the conversation becomes a diary entry.

Commands inside the session:
  /finish   show the transcript and save it
  /discard  throw the conversation away
  /quit     leave without saving`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			app, err := tsuzuri.NewApp(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer app.Close()

			return runChat(cmd, app, date)
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date to save the entry under (default: today)")
	return cmd
}

func runChat(cmd *cobra.Command, app *tsuzuri.App, date string) error {
	ctx := cmd.Context()

	if err := app.Controller.Start(ctx); err != nil {
		return err
	}

	if date == "" {
		date = app.Controller.Today()
	}

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	cmd.Println("今日はどんな一日でしたか？ (/finish で日記にします)")

	for {
		input, err := line.Prompt("> ")
		if err != nil {
			// Ctrl-C or Ctrl-D leaves without saving.
			cmd.Println("\nまたね。")
			return app.Controller.Abandon(ctx)
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}
		line.AppendHistory(input)

		switch input {
		case "/quit", "/exit":
			cmd.Println("またね。")
			return app.Controller.Abandon(ctx)

		case "/discard":
			if err := app.Controller.Abandon(ctx); err != nil {
				return err
			}
			cmd.Println("会話を破棄しました。")
			return nil

		case "/finish":
			transcript, err := app.Controller.Finish(ctx, "")
			if err != nil {
				return err
			}
			if transcript == "" {
				cmd.Println("まだ何も話していません。")
				continue
			}

			cmd.Println("\n----- 会話内容 -----")
			cmd.Println(transcript)
			cmd.Println("--------------------")

			ok, err := line.Prompt(fmt.Sprintf("%s の日記として保存しますか？ [y/N] ", date))
			if err != nil || strings.ToLower(strings.TrimSpace(ok)) != "y" {
				cmd.Println("保存しませんでした。")
				continue
			}

			path, err := app.Controller.Commit(ctx, date, transcript)
			if err != nil {
				return err
			}
			cmd.Printf("保存しました: %s\n", path)
			return nil

		default:
			reply, err := app.Controller.SubmitUtterance(ctx, input)
			if err != nil {
				return err
			}
			cmd.Println(reply.Text)
		}
	}
}
