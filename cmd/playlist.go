package main

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/app"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func newPlaylistCmd(root *rootParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playlist",
		Short: "Manage playlists",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List playlists, most recently used first",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
					return listPlaylists(ctx, a, cmd.OutOrStdout())
				})
			},
		},
		&cobra.Command{
			Use:   "show PLAYLIST_ID",
			Short: "Show the tracks of a playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("playlist id", args[0])
				if err != nil {
					return err
				}
				return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
					return showPlaylist(ctx, a, id, cmd.OutOrStdout())
				})
			},
		},
		&cobra.Command{
			Use:   "create NAME",
			Short: "Create an empty playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
					id, err := a.Playlists().Create(ctx, args[0])
					if err != nil {
						return err
					}
					fmt.Fprintf(cmd.OutOrStdout(), "created playlist %d\n", id)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "add PLAYLIST_ID TRACK_ID",
			Short: "Add a library track to a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				playlistID, err := parseID("playlist id", args[0])
				if err != nil {
					return err
				}
				trackID, err := parseID("track id", args[1])
				if err != nil {
					return err
				}
				return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
					return addToPlaylist(ctx, a, playlistID, trackID, cmd.OutOrStdout())
				})
			},
		},
		&cobra.Command{
			Use:   "remove PLAYLIST_ID TRACK_ID",
			Short: "Remove a track from a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				playlistID, err := parseID("playlist id", args[0])
				if err != nil {
					return err
				}
				trackID, err := parseID("track id", args[1])
				if err != nil {
					return err
				}
				return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
					return a.Playlists().RemoveTrack(ctx, playlistID, trackID)
				})
			},
		},
		&cobra.Command{
			Use:   "rename PLAYLIST_ID NAME",
			Short: "Rename a playlist",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("playlist id", args[0])
				if err != nil {
					return err
				}
				return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
					return a.Playlists().Rename(ctx, id, args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "delete PLAYLIST_ID",
			Short: "Delete a playlist",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseID("playlist id", args[0])
				if err != nil {
					return err
				}
				return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
					return a.Playlists().Delete(ctx, id)
				})
			},
		},
	)
	return cmd
}

func listPlaylists(ctx context.Context, a *app.Application, w io.Writer) error {
	playlists, err := a.Playlists().List(ctx)
	if err != nil {
		return err
	}
	if len(playlists) == 0 {
		fmt.Fprintln(w, "no playlists")
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "TRACKS", "LAST USED").
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	for _, p := range playlists {
		t.Row(
			strconv.FormatInt(p.ID, 10),
			p.Name,
			strconv.Itoa(p.TrackCount),
			humanize.Time(p.LastUsedAt),
		)
	}
	fmt.Fprintln(w, t.Render())
	return nil
}

func showPlaylist(ctx context.Context, a *app.Application, id int64, w io.Writer) error {
	playlist, err := a.Playlists().Get(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "%s (%s)\n", headerStyle.Render(playlist.Name), english.Plural(len(playlist.Items), "track", ""))
	for i, track := range playlist.Items {
		fmt.Fprintf(w, "%3d. [%d] %s  %s\n", i+1, track.ID, track.Name, formatDuration(track.Duration))
	}
	return nil
}

func addToPlaylist(ctx context.Context, a *app.Application, playlistID, trackID int64, w io.Writer) error {
	flow := a.NewAddToPlaylist(domain.TrackItem(trackID), func() {})

	var added int
	subID := eventbus.On(a.EventBus(), func(e domain.PlaylistItemAddedEvent) {
		added = e.Tracks
	})
	defer a.EventBus().Unsubscribe(subID)

	if err := flow.AddToExisting(ctx, playlistID); err != nil {
		return err
	}
	fmt.Fprintf(w, "added %s to playlist %d\n", english.Plural(added, "track", ""), playlistID)
	return nil
}

func parseID(what, s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(what, s, "must be a positive integer")
	}
	return id, nil
}
