package cmd

import (
	"fmt"
	"io"
	"strings"

	"ghost/internal/llm"
	"ghost/internal/storage"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
)

var chatFilter string

var chatsCmd = &cobra.Command{
	Use:   "chats",
	Short: "Manage saved chats",
}

var chatsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved chats, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		chats, err := store.List(cmd.Context())
		if err != nil {
			return err
		}
		printChats(cmd.OutOrStdout(), storage.Filter(chats, chatFilter))
		return nil
	},
}

var chatsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print a saved chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		msgs, err := store.Load(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out, err := glamour.Render(transcriptMarkdown(args[0], msgs), "auto")
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), out)
		return nil
	},
}

var chatsDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a saved chat",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted chat %q.\n", args[0])
		return nil
	},
}

func openStore() (storage.Store, error) {
	return storage.Open(cfg.Storage.Backend, cfg.Storage.Dir)
}

func printChats(w io.Writer, chats []storage.ChatInfo) {
	if len(chats) == 0 {
		fmt.Fprintln(w, "No saved chats.")
		return
	}
	for _, c := range chats {
		fmt.Fprintf(w, "%-40s %4d messages  %s\n", c.Name, c.MessageCount, c.SavedAt.Local().Format("2006-01-02 15:04"))
	}
}

// transcriptMarkdown renders a transcript as a markdown document.
func transcriptMarkdown(name string, msgs []llm.Message) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", name)
	for _, m := range msgs {
		speaker := "Ghost"
		switch m.Sender {
		case llm.SenderUser:
			speaker = "You"
		case llm.SenderSystem:
			speaker = "System"
		}
		fmt.Fprintf(&b, "**%s** _(%s)_\n\n%s\n\n---\n\n", speaker, m.Timestamp.Local().Format("15:04"), m.Content)
	}
	return b.String()
}

func init() {
	chatsListCmd.Flags().StringVarP(&chatFilter, "filter", "f", "", "fuzzy filter on chat names")
	chatsCmd.AddCommand(chatsListCmd, chatsShowCmd, chatsDeleteCmd)
	rootCmd.AddCommand(chatsCmd)
}
