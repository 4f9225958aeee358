package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/mdmarufa/cloudex/pkg/models"
)

const timeLayout = "2006-01-02 15:04"

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize renders bytes with a binary unit.
func formatSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func printItems(w io.Writer, items []models.FileItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tSIZE\tMODIFIED\tOWNER\tPATH")
	for _, it := range items {
		name := it.Name
		if it.IsFolder() {
			name += "/"
		}
		if it.IsStarred {
			name = "* " + name
		}
		modified := ""
		if !it.ModifiedAt.IsZero() {
			modified = it.ModifiedAt.Local().Format(timeLayout)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			it.ID, name, strings.ToLower(string(it.Type)), formatSize(it.Size), modified, it.Owner, it.Path)
	}
	return tw.Flush()
}

func printTree(w io.Writer, node *models.TreeNode, prefix string) {
	for i, child := range node.Children {
		branch, next := "├── ", "│   "
		if i == len(node.Children)-1 {
			branch, next = "└── ", "    "
		}
		name := child.Item.Name
		if child.Item.IsFolder() {
			name += "/"
		}
		fmt.Fprintf(w, "%s%s%s\n", prefix, branch, name)
		printTree(w, child, prefix+next)
	}
}
