package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/MyNameIsWhaaat/peerthread/internal/comment/model"
	"github.com/MyNameIsWhaaat/peerthread/internal/config"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/api"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/reaction"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/thread"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/tree"
	"github.com/MyNameIsWhaaat/peerthread/internal/forum/unread"
	"github.com/MyNameIsWhaaat/peerthread/internal/logger"
	"github.com/MyNameIsWhaaat/peerthread/internal/tui"
)

func main() {
	configPath := flag.String("config", "", "path to the YAML config (default "+config.DefaultConfigPath+" if present)")
	postID := flag.Int64("post", 0, "id of the post to open")
	flag.Parse()

	if err := run(*configPath, *postID); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string, postID int64) error {
	if postID <= 0 {
		return errors.New("-post is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.NewFileOnly(cfg.Log, cfg.Production())
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := api.New(cfg.Client.BaseURL, cfg.Client.Token,
		api.WithLogger(log), api.WithPageLimit(cfg.Client.PageLimit))
	if err != nil {
		return err
	}

	// Without a synced identity the thread is shown read-only.
	var viewer *model.Viewer
	if cfg.Client.Token != "" {
		v, err := client.FetchViewer(ctx)
		if err != nil {
			return fmt.Errorf("sync viewer: %w", err)
		}
		viewer = &v
	}

	comments, err := client.FetchComments(ctx, postID)
	if err != nil {
		return fmt.Errorf("load post %d: %w", postID, err)
	}
	postState, err := client.FetchPostReaction(ctx, postID)
	if err != nil {
		return fmt.Errorf("load reactions of post %d: %w", postID, err)
	}

	reactions := reaction.NewStore(client, log)
	ctrl := thread.New(tree.Build(postID, comments), viewer, client, reactions,
		thread.WithLogger(log),
		thread.WithMaxIndent(cfg.Client.MaxIndent),
		thread.OnReplyAdded(func(c model.Comment) {
			log.Info("comment added", zap.Int64("comment_id", c.ID), zap.Int64("parent_id", c.ParentID))
		}))
	ctrl.SeedPostReaction(postState)
	defer ctrl.Close()

	opts := []tui.Option{tui.WithLogger(log)}
	var poller *unread.Poller
	if viewer != nil {
		poller = unread.NewPoller(client, cfg.Client.PollInterval, log)
		opts = append(opts, tui.WithPoller(poller))
	}

	prog := tea.NewProgram(tui.New(ctx, ctrl, client, opts...), tea.WithAltScreen(), tea.WithContext(ctx))
	if poller != nil {
		poller.OnChange(func(n int64) { prog.Send(tui.UnreadMsg{Count: n}) })
	}

	g, gctx := errgroup.WithContext(ctx)
	pollCtx, cancelPoll := context.WithCancel(gctx)
	if poller != nil {
		g.Go(func() error {
			if err := poller.Run(pollCtx); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		defer cancelPoll()
		_, err := prog.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})
	return g.Wait()
}
