package main

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"viewlink/internal/client"
	"viewlink/internal/codec"
	"viewlink/internal/config"
	"viewlink/internal/logging"
	"viewlink/internal/view"
)

const demoCountKey = "demo.count"

// runDemo is a control process: it connects to a running serve
// instance, renders a counter, and patches it on every button tap.
func runDemo(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "demo"})

	c, err := client.Dial(ctx, cfg.SocketPath, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	// Resume the count a previous run persisted.
	var count atomic.Int64
	if v, ok, err := c.DefaultsGet(ctx, demoCountKey); err == nil && ok {
		if n, isInt := v.(int64); isInt {
			count.Store(n)
		}
	}

	taps := make(chan struct{}, 16)
	c.OnEvent(func(nodeID, event string) {
		if nodeID == "increment" && event == "tap" {
			select {
			case taps <- struct{}{}:
			default:
			}
		}
	})

	if err := c.Render(demoTree(count.Load())); err != nil {
		return err
	}
	if err := c.SetStatusIcon("number.circle"); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			logger.Info("demo finished", "count", count.Load())
			_ = c.DefaultsSet(demoCountKey, count.Load())
			return c.Quit()
		case <-taps:
			n := count.Add(1)
			props, err := codec.Marshal(map[string]string{"content": strconv.FormatInt(n, 10)})
			if err != nil {
				return err
			}
			if err := c.Patch(view.Patch{Op: view.OpProps, ID: "count", Props: props}); err != nil {
				return err
			}
			if n%10 == 0 {
				_ = c.Notify("Milestone", fmt.Sprintf("The counter reached %d", n))
			}
		case <-time.After(30 * time.Second):
			_ = c.DefaultsSet(demoCountKey, count.Load())
		}
	}
}

func demoTree(count int64) *view.Node {
	return &view.Node{
		ID:   "root",
		Kind: view.KindVStack,
		Props: &view.StackProps{
			Spacing:   floatPtr(8),
			Alignment: "center",
		},
		Children: []*view.Node{
			{
				ID:    "title",
				Kind:  view.KindText,
				Props: &view.TextProps{Content: "Counter", Weight: "bold"},
				Modifiers: []view.Modifier{
					{Kind: view.ModPadding, Bottom: floatPtr(4)},
				},
			},
			{
				ID:    "count",
				Kind:  view.KindText,
				Props: &view.TextProps{Content: strconv.FormatInt(count, 10)},
			},
			{
				ID:    "increment",
				Kind:  view.KindButton,
				Props: &view.ButtonProps{Label: "Increment"},
			},
		},
	}
}

func floatPtr(f float64) *float64 { return &f }
