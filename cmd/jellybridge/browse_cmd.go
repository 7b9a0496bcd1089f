package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hautomata/jellybridge/internal/browse"
)

func newBrowseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "browse [type id]",
		Short: "Browse the media library",
		Long: `Browse the media library one level at a time.

Without arguments the library roots are listed. Each entry prints its
type and id, which can be passed back in to descend:

  jellybridge browse
  jellybridge browse directory f137a2dd21bbc1b99aa5c0f6bf02a805
  jellybridge browse tvshow 3d632b6b9fd5b04e5001efabbbd9f4ac`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var contentType, contentID string
			if len(args) == 2 {
				contentType, contentID = args[0], args[1]
			} else if len(args) == 1 {
				return fmt.Errorf("browse needs both a type and an id, or neither")
			}

			client, err := newClient()
			if err != nil {
				return err
			}

			node, err := browse.Browse(client, contentType, contentID)
			if err != nil {
				return fmt.Errorf("browse failed: %w", err)
			}

			printNode(node)
			return nil
		},
	}

	return cmd
}

func printNode(node *browse.Node) {
	fmt.Printf("%s (%s)\n", node.Title, node.ContentType)
	if len(node.Children) == 0 {
		if node.CanPlay {
			fmt.Println("  playable item")
		} else {
			fmt.Println("  empty")
		}
		return
	}

	for _, child := range node.Children {
		marker := " "
		if child.CanExpand {
			marker = "+"
		}
		fmt.Printf("  %s %-10s %s  %s\n", marker, child.ContentType, child.ContentID, child.Title)
	}
}
