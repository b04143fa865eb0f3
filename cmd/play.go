package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/spf13/cobra"

	"github.com/tejashwikalptaru/tunedeck/internal/adapter/eventbus"
	"github.com/tejashwikalptaru/tunedeck/internal/app"
	"github.com/tejashwikalptaru/tunedeck/internal/domain"
	"github.com/tejashwikalptaru/tunedeck/internal/service"
)

type playParams struct {
	Repeat    string
	Playlists []int64
	Albums    []int64
}

func newPlayCmd(root *rootParams) *cobra.Command {
	params := &playParams{}

	cmd := &cobra.Command{
		Use:   "play [paths...]",
		Short: "Play audio files, directories, albums and playlists",
		Long: `Play builds a queue from its arguments and plays it until the queue finishes
or the process is interrupted. Files become single tracks, directories become
groups of the audio files they contain.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && len(params.Playlists) == 0 && len(params.Albums) == 0 {
				return fmt.Errorf("nothing to play: pass paths, --playlist or --album")
			}
			return root.withApp(cmd.Context(), func(ctx context.Context, a *app.Application) error {
				return runPlay(ctx, a, params, args, cmd.OutOrStdout(), cmd.ErrOrStderr())
			})
		},
	}

	cmd.Flags().StringVar(&params.Repeat, "repeat", "", "repeat mode: off, track or list")
	cmd.Flags().Int64SliceVar(&params.Playlists, "playlist", nil, "playlist id to queue (repeatable)")
	cmd.Flags().Int64SliceVar(&params.Albums, "album", nil, "album id to queue (repeatable)")
	return cmd
}

func runPlay(ctx context.Context, a *app.Application, params *playParams, paths []string, stdout, stderr io.Writer) error {
	var repeat *domain.RepeatState
	if params.Repeat != "" {
		r, err := domain.ParseRepeatState(params.Repeat)
		if err != nil {
			return err
		}
		repeat = &r
	}

	entries, err := pathEntries(ctx, a.Scanner(), paths, stderr)
	if err != nil {
		return err
	}

	var items []domain.QueueItemParameter
	for _, id := range params.Albums {
		items = append(items, domain.AlbumItem(id))
	}
	for _, id := range params.Playlists {
		items = append(items, domain.PlaylistItem(id))
	}
	resolved, err := a.Resolver().Resolve(ctx, items)
	if err != nil {
		return err
	}
	entries = append(entries, resolved...)
	if len(entries) == 0 {
		return fmt.Errorf("nothing to play: no supported audio files found")
	}

	finished := make(chan struct{})
	var finishOnce sync.Once
	failed := make(chan domain.TrackErrorEvent, 1)
	bus := a.EventBus()
	subs := eventbus.NewSubscriptions(bus).
		Add(eventbus.On(bus, func(e domain.TrackLoadedEvent) {
			fmt.Fprintf(stdout, "> %s (%s)\n", e.Track.Name, formatDuration(e.Duration))
		})).
		Add(eventbus.On(bus, func(e domain.TrackErrorEvent) {
			fmt.Fprintf(stderr, "cannot play %s: %v\n", e.Track.Name, e.Error)
			select {
			case failed <- e:
			default:
			}
		})).
		Add(eventbus.On(bus, func(domain.QueueFinishedEvent) {
			finishOnce.Do(func() { close(finished) })
		}))
	defer subs.Close()

	if err := a.Start(ctx); err != nil {
		return err
	}
	if repeat != nil {
		if err := a.Controller().SetRepeat(*repeat); err != nil {
			return err
		}
	}

	fmt.Fprintf(stdout, "queued %s\n", english.Plural(len(entries), "entry", "entries"))
	if err := a.Controller().PlayQueue(entries); err != nil {
		return err
	}

	for {
		select {
		case <-finished:
			fmt.Fprintln(stdout, "queue finished")
			return nil
		case e := <-failed:
			// A failed load leaves the controller stopped and nothing would end the wait
			if !isPlaying(a) {
				return fmt.Errorf("playback stopped: %w", e.Error)
			}
		case <-a.Controller().Done():
			return nil
		case <-ctx.Done():
			// Interrupted by the user
			return nil
		}
	}
}

func isPlaying(a *app.Application) bool {
	avail, ok := a.Controller().State().(domain.Available)
	return ok && avail.Snapshot.IsPlaying
}

// pathEntries registers the audio files under paths and turns them into queue entries.
func pathEntries(ctx context.Context, scanner *service.LibraryService, paths []string, stderr io.Writer) ([]domain.QueueEntry, error) {
	var entries []domain.QueueEntry
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, domain.ErrInvalidFilePath)
		}

		if !info.IsDir() {
			tracks, err := scanner.ScanFiles(ctx, []string{path})
			if err != nil {
				return nil, err
			}
			entries = append(entries, tracks[0])
			continue
		}

		tracks, err := scanner.ScanFolder(ctx, path)
		if err != nil {
			return nil, err
		}
		if len(tracks) == 0 {
			fmt.Fprintf(stderr, "skipping %s: no supported audio files\n", path)
			continue
		}
		entries = append(entries, domain.Playlist{
			Name:  filepath.Base(filepath.Clean(path)),
			Items: tracks,
		})
	}
	return entries, nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}
