package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/activebook/lulu/internal/ui"
	"github.com/activebook/lulu/service"
	"github.com/spf13/cobra"
)

var (
	transcriptRmAll   bool // lulu transcript rm --all
	transcriptRmForce bool // lulu transcript rm <id> --force
)

func init() {
	rootCmd.AddCommand(transcriptCmd)
	transcriptCmd.AddCommand(transcriptListCmd)
	transcriptCmd.AddCommand(transcriptShowCmd)
	transcriptCmd.AddCommand(transcriptRmCmd)

	transcriptRmCmd.Flags().BoolVarP(&transcriptRmAll, "all", "a", false, "Remove every saved transcript")
	transcriptRmCmd.Flags().BoolVarP(&transcriptRmForce, "force", "f", false, "Do not ask for confirmation")
}

var transcriptCmd = &cobra.Command{
	Use:     "transcript",
	Aliases: []string{"tr"},
	Short:   "Manage saved chat transcripts",
	Long: `Chat sessions from the dashboard and 'lulu chat' are saved when they end.
Transcripts are named by id; any unique prefix of an id works.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var transcriptListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List saved transcripts, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		store := transcriptStore()
		infos, err := store.List()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No transcripts found.")
			return nil
		}

		now := time.Now()
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, sectionColor("ID")+"\t"+sectionColor("SAVED")+"\t"+sectionColor("MESSAGES"))
		for _, info := range infos {
			count := "?"
			if t, err := service.LoadTranscript(store, info.ID); err == nil {
				count = fmt.Sprintf("%d", len(t.Messages))
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", keyColor(shortID(info.ID)), service.RelativeTime(info.ModTime, now), count)
		}
		return w.Flush()
	},
}

var transcriptShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Print a saved transcript",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := transcriptStore()
		id := ""
		if len(args) > 0 {
			id = args[0]
		} else {
			picked, err := pickTranscript("Select a transcript")
			if err != nil || picked == "" {
				return err
			}
			id = picked
		}

		t, err := service.LoadTranscript(store, id)
		if err != nil {
			return err
		}
		fmt.Printf("%s %s\n", sectionColor("Transcript:"), t.ID)
		fmt.Printf("%s %s\n", sectionColor("Server:"), t.Server)
		fmt.Printf("%s %s\n\n", sectionColor("Started:"), t.StartedAt.Local().Format("2006-01-02 15:04"))
		for _, m := range t.Messages {
			printChatMessage(m)
		}
		return nil
	},
}

var transcriptRmCmd = &cobra.Command{
	Use:     "rm [id]",
	Aliases: []string{"remove", "delete"},
	Short:   "Remove saved transcripts",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store := transcriptStore()

		if transcriptRmAll {
			if !transcriptRmForce {
				ok, err := ui.NeedUserConfirm("", "Remove every saved transcript?", store.GetDir())
				if err != nil || !ok {
					fmt.Println("Operation cancelled.")
					return err
				}
			}
			n, err := store.DeleteAll()
			if err != nil {
				return err
			}
			fmt.Printf("Removed %d transcript(s).\n", n)
			return nil
		}

		id := ""
		if len(args) > 0 {
			full, err := store.Resolve(args[0])
			if err != nil {
				return err
			}
			id = full
		} else {
			picked, err := pickTranscript("Select a transcript to remove")
			if err != nil || picked == "" {
				return err
			}
			id = picked
		}

		if !transcriptRmForce {
			ok, err := ui.NeedUserConfirm("", fmt.Sprintf("Remove transcript %s?", shortID(id)), "")
			if err != nil || !ok {
				fmt.Println("Operation cancelled.")
				return err
			}
		}
		if err := store.Delete(id); err != nil {
			return err
		}
		fmt.Printf("Removed transcript %s\n", keyColor(shortID(id)))
		return nil
	},
}

// pickTranscript lets the user choose a transcript; "" means nothing chosen.
func pickTranscript(title string) (string, error) {
	infos, err := transcriptStore().List()
	if err != nil {
		return "", err
	}
	if len(infos) == 0 {
		fmt.Println("No transcripts found.")
		return "", nil
	}
	labels := make([]string, len(infos))
	values := make([]string, len(infos))
	now := time.Now()
	for i, info := range infos {
		labels[i] = fmt.Sprintf("%s  %s", shortID(info.ID), service.RelativeTime(info.ModTime, now))
		values[i] = info.ID
	}
	id, err := ui.SelectOption(title, labels, values)
	if errors.Is(err, ui.ErrPromptAborted) {
		return "", nil
	}
	return id, err
}

func shortID(id string) string {
	t := service.Transcript{ID: id}
	return t.ShortID()
}
