package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/rebeliceyang/lazyadmin/internal/bookmarks"
)

var bookmarksCmd = &cobra.Command{
	Use:   "bookmarks",
	Short: "List or delete saved locations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openBookmarks()
		if err != nil {
			return err
		}
		all := m.All(bookmarksEntity)
		if len(all) == 0 {
			fmt.Println("No bookmarks. Press 'm' in a list to save one.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tENTITY\tUSED\tLOCATION")
		for _, b := range all {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", b.Name, b.Entity, b.UsageCount, b.Location)
		}
		return w.Flush()
	},
}

var bookmarksDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a bookmark",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := openBookmarks()
		if err != nil {
			return err
		}
		if err := m.Delete(args[0]); err != nil {
			return err
		}
		fmt.Printf("Deleted %s\n", args[0])
		return nil
	},
}

var bookmarksEntity string

func init() {
	bookmarksCmd.Flags().StringVar(&bookmarksEntity, "entity", "", "Only show bookmarks of this entity")
	bookmarksCmd.AddCommand(bookmarksDeleteCmd)
	rootCmd.AddCommand(bookmarksCmd)
}

func openBookmarks() (*bookmarks.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bookmarks.NewManager(cfg.State.Dir)
}
