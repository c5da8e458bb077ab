package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	tsuzuri "github.com/tsuzuri-dev/tsuzuri"
	"github.com/tsuzuri-dev/tsuzuri/pkg/config"
)

func newDiaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diary",
		Short: "Read, save, delete and browse diary entries",
	}

	cmd.AddCommand(
		newDiaryGetCmd(),
		newDiarySaveCmd(),
		newDiaryDeleteCmd(),
		newDiaryMonthCmd(),
	)
	return cmd
}

func withApp(cmd *cobra.Command, fn func(app *tsuzuri.App) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Local diary commands never talk to a generation provider.
	cfg.Provider.Name = "mock"
	cfg.Speech.Enabled = false

	app, err := tsuzuri.NewApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	return fn(app)
}

func newDiaryGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <date>",
		Short: "Print the entry for a date (YYYY-MM-DD)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *tsuzuri.App) error {
				content, ok, err := app.Store.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no entry for %s", args[0])
				}
				cmd.Println(content)
				return nil
			})
		},
	}
}

func newDiarySaveCmd() *cobra.Command {
	var (
		date    string
		savedAt bool
	)

	cmd := &cobra.Command{
		Use:   "save <content>",
		Short: "Save an entry directly, without a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if date == "" {
				date = now.Format("2006-01-02")
			}
			content := args[0]
			if savedAt {
				content = savedAtHeader(date, now) + content
			}
			return withApp(cmd, func(app *tsuzuri.App) error {
				path, err := app.Store.Save(cmd.Context(), date, content)
				if err != nil {
					return err
				}
				cmd.Printf("保存しました: %s\n", path)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "date to save under (default: today)")
	cmd.Flags().BoolVar(&savedAt, "saved-at", false, "prepend a SavedAt header to the stored entry")
	return cmd
}

// savedAtHeader stamps the entry with its save date and wall-clock time.
func savedAtHeader(date string, now time.Time) string {
	return fmt.Sprintf("SavedAt: %s %s\n", date, now.Format("15:04"))
}

func newDiaryDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <date>",
		Short: "Delete the entry for a date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(app *tsuzuri.App) error {
				if err := app.Store.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				cmd.Printf("削除しました: %s\n", args[0])
				return nil
			})
		},
	}
}

func newDiaryMonthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "month <year> <month>",
		Short: "List which days of a month have entries",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			year, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid year: %s", args[0])
			}
			month, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid month: %s", args[1])
			}

			return withApp(cmd, func(app *tsuzuri.App) error {
				projection, err := app.Store.ListMonth(cmd.Context(), year, month)
				if err != nil {
					return err
				}
				for _, day := range projection.Days {
					mark := "  "
					if day.HasEntry {
						mark = "書"
					}
					cmd.Printf("%s %s %s\n", day.Date, mark, day.Preview)
				}
				return nil
			})
		},
	}
}
