package main

import (
	"github.com/spf13/cobra"

	tsuzuri "github.com/tsuzuri-dev/tsuzuri"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Inspect or discard the stored conversation",
	}

	cmd.AddCommand(newSessionDumpCmd(), newSessionDiscardCmd())
	return cmd
}

func newSessionDumpCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Print the stored conversation transcript",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *tsuzuri.App) error {
				// Reading directly from the log, bypassing session state.
				transcript, err := app.Controller.Finish(cmd.Context(), orToday(app, date))
				if err != nil {
					return err
				}
				if transcript == "" {
					cmd.Println("会話はありません。")
					return nil
				}
				cmd.Println("----- 会話内容 -----")
				cmd.Println(transcript)
				cmd.Println("--------------------")
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "dump the turns recorded on a date (default: today)")
	return cmd
}

func newSessionDiscardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discard",
		Short: "Throw away the stored conversation",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *tsuzuri.App) error {
				if err := app.Controller.Abandon(cmd.Context()); err != nil {
					return err
				}
				cmd.Println("会話を破棄しました。")
				return nil
			})
		},
	}
}

func orToday(app *tsuzuri.App, date string) string {
	if date != "" {
		return date
	}
	return app.Controller.Today()
}
