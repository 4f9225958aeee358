package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mdmarufa/cloudex/pkg/models"
	"github.com/mdmarufa/cloudex/pkg/protocol"
	"github.com/mdmarufa/cloudex/pkg/vpath"
)

func newLoginCmd(o *options) *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			resp, err := c.Login(cmd.Context(), username, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			if err := o.saveToken(resp.Token); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (token expires %s)\n",
				resp.User.Username, resp.ExpiresAt.Local().Format(timeLayout))
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "demo", "user name")
	cmd.Flags().StringVarP(&password, "password", "p", "demo", "password")
	return cmd
}

func newLsCmd(o *options) *cobra.Command {
	var sortKey, order string
	cmd := &cobra.Command{
		Use:   "ls [path]",
		Short: "List a directory",
		Long:  `List the direct children of a directory. Paths are matched case-insensitively.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := vpath.Root
			if len(args) == 1 {
				dir = args[0]
			}
			q := url.Values{}
			if sortKey != "" {
				q.Set("sort", sortKey)
			}
			if order != "" {
				q.Set("order", order)
			}
			resp, err := o.client().ListDir(cmd.Context(), dir, q)
			if err != nil {
				return fmt.Errorf("failed to list %s: %w", dir, err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d items)\n", resp.Path, resp.Total)
			return printItems(cmd.OutOrStdout(), resp.Items)
		},
	}
	cmd.Flags().StringVar(&sortKey, "sort", "", "sort by name, size, date or type")
	cmd.Flags().StringVar(&order, "order", "", "asc or desc")
	return cmd
}

func newTreeCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the folder tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := o.client().Tree(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to fetch tree: %w", err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), root)
			}
			fmt.Fprintln(cmd.OutOrStdout(), vpath.Root)
			printTree(cmd.OutOrStdout(), root, "")
			return nil
		},
	}
}

func newResolveCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <path>",
		Short: "Show the canonical form of a typed path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := o.client().Resolve(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			status := "exists"
			if !resp.Exists {
				status = "not found"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", resp.Path, status)
			return nil
		},
	}
}

func newMkdirCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mkdir <path>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			full := vpath.Normalize(args[0])
			if full == vpath.Root {
				return fmt.Errorf("cannot create the root folder")
			}
			item, err := o.client().CreateFolder(cmd.Context(), vpath.Parent(full), vpath.Base(full))
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", full, err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), item)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", vpath.Join(item.Path, item.Name), item.ID)
			return nil
		},
	}
}

// parseUpload reads a NAME:SIZE argument. SIZE is in bytes.
func parseUpload(arg string) (protocol.UploadFile, error) {
	i := strings.LastIndex(arg, ":")
	if i <= 0 {
		return protocol.UploadFile{}, fmt.Errorf("invalid upload %q, want NAME:SIZE", arg)
	}
	size, err := strconv.ParseInt(arg[i+1:], 10, 64)
	if err != nil || size < 0 {
		return protocol.UploadFile{}, fmt.Errorf("invalid size in %q", arg)
	}
	return protocol.UploadFile{Name: arg[:i], Size: size}, nil
}

func newUploadCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "upload <dir> NAME:SIZE...",
		Short: "Record mock uploads",
		Long: `Record one or more mock uploads in a directory. Only metadata is
stored; SIZE is in bytes and counts against the storage limit.`,
		Example: "  cloudexctl upload /Design logo.png:20480 brief.pdf:102400",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			files := make([]protocol.UploadFile, 0, len(args)-1)
			for _, a := range args[1:] {
				f, err := parseUpload(a)
				if err != nil {
					return err
				}
				files = append(files, f)
			}
			items, err := o.client().Upload(cmd.Context(), args[0], files)
			if err != nil {
				return fmt.Errorf("upload failed: %w", err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), items)
			}
			return printItems(cmd.OutOrStdout(), items)
		},
	}
}

func newRenameCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <id> <new-name>",
		Short: "Rename a file or folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := o.client().Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("rename failed: %w", err)
			}
			return printResult(o, cmd, item, "Renamed to "+vpath.Join(item.Path, item.Name))
		},
	}
}

func newMvCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "mv <id> <destination>",
		Short: "Move a file or folder into another folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := o.client().Move(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("move failed: %w", err)
			}
			return printResult(o, cmd, item, "Moved to "+vpath.Join(item.Path, item.Name))
		},
	}
}

func newRmCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete files or folders",
		Long:  `Delete one or more items. Deleting a folder removes everything below it.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := o.client()
			var resp *protocol.DeleteResponse
			var err error
			if len(args) == 1 {
				resp, err = c.Delete(cmd.Context(), args[0])
			} else {
				resp, err = c.BulkDelete(cmd.Context(), args)
			}
			if err != nil {
				return fmt.Errorf("delete failed: %w", err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d items\n", resp.Count)
			return nil
		},
	}
}

func newStarCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "star <id>",
		Short: "Toggle the star on an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := o.client().ToggleStar(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			msg := "Unstarred " + item.Name
			if item.IsStarred {
				msg = "Starred " + item.Name
			}
			return printResult(o, cmd, item, msg)
		},
	}
}

func newSearchCmd(o *options) *cobra.Command {
	var typ, date, sortKey, order, dir string
	var starred bool
	var limit int
	cmd := &cobra.Command{
		Use:   "search [text]",
		Short: "Search the catalogue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if len(args) == 1 {
				q.Set("q", args[0])
			}
			set := func(k, v string) {
				if v != "" {
					q.Set(k, v)
				}
			}
			set("type", typ)
			set("date", date)
			set("sort", sortKey)
			set("order", order)
			set("path", dir)
			if starred {
				q.Set("starred", "true")
			}
			if limit > 0 {
				q.Set("limit", strconv.Itoa(limit))
			}

			resp, err := o.client().Search(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), resp)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d results\n", resp.Total)
			return printItems(cmd.OutOrStdout(), resp.Items)
		},
	}
	f := cmd.Flags()
	f.StringVarP(&typ, "type", "t", "", "image, document, video, audio, archive or folder")
	f.StringVarP(&date, "date", "d", "", "today, week, month or year")
	f.StringVar(&sortKey, "sort", "", "sort by name, size, date or type")
	f.StringVar(&order, "order", "", "asc or desc")
	f.StringVar(&dir, "in", "", "limit the search to a folder")
	f.BoolVar(&starred, "starred", false, "only starred items")
	f.IntVarP(&limit, "limit", "n", 0, "maximum number of results")
	return cmd
}

func newStatsCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show storage usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := o.client().Stats(cmd.Context())
			if err != nil {
				return err
			}
			if o.jsonOut {
				return printJSON(cmd.OutOrStdout(), st)
			}
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Used %s of %s (%.1f%%), %s free\n",
				formatSize(st.Used), formatSize(st.Limit), st.PercentUsed, formatSize(st.Free))
			fmt.Fprintf(w, "%d files, %d folders, %d starred\n", st.Files, st.Folders, st.Starred)
			for _, u := range st.ByType {
				if u.Count > 0 {
					fmt.Fprintf(w, "  %-9s %4d  %s\n", strings.ToLower(string(u.Type)), u.Count, formatSize(u.Bytes))
				}
			}
			return nil
		},
	}
}

func printResult(o *options, cmd *cobra.Command, item *models.FileItem, msg string) error {
	if o.jsonOut {
		return printJSON(cmd.OutOrStdout(), item)
	}
	fmt.Fprintln(cmd.OutOrStdout(), msg)
	return nil
}
