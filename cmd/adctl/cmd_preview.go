package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"ad-placement-service/internal/domain"
	"ad-placement-service/internal/infra/adclient"
	"ad-placement-service/internal/rotation"
)

func newPreviewCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Fetch a placement and rotate it like a page would",
		Long: `Preview fetches ranked ads for a slot, shows the first window and
rotates through the rest for --duration. Displayed ads report impressions,
hidden ads report how long they were visible.

Examples:
  adctl preview --position home-top --path /shop --limit 2
  adctl preview --position sidebar --device mobile --duration 1m`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := previewOptionsFrom(cmd)
			if err != nil {
				return err
			}

			log, err := newLogger(v)
			if err != nil {
				return err
			}

			f, err := loadInterests(v.GetString("interests-file"), time.Now())
			if err != nil {
				return err
			}

			cfg := clientConfig(v)
			p := &previewer{
				client:    adclient.New(cfg, log),
				tracker:   adclient.NewTracker(cfg, log),
				out:       cmd.OutOrStdout(),
				visitorID: f.VisitorID,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return p.run(ctx, opts.query(f.recent()), opts.duration, opts.interval)
		},
	}

	flags := cmd.Flags()
	flags.String("position", "", "Placement slot (required)")
	flags.String("context", "", "Page context, e.g. home, product, cart")
	flags.String("path", "", "Page path used to derive the context when --context is empty")
	flags.String("device", string(domain.DeviceDesktop), "Device class: desktop, tablet or mobile")
	flags.String("type", "", "Only ads of this type")
	flags.String("group", "", "Only ads of this rotation group")
	flags.Int("limit", 1, "Ads shown at once")
	flags.Bool("rotation", true, "Rotate through the ranked ads")
	flags.Duration("duration", 30*time.Second, "How long to run the preview")
	flags.Duration("interval", 0, "Fixed rotation interval (default: derived from the shown ads)")
	_ = cmd.MarkFlagRequired("position")

	return cmd
}

type previewOptions struct {
	position string
	context  string
	path     string
	device   string
	adType   string
	group    string
	limit    int
	rotate   bool
	duration time.Duration
	interval time.Duration
}

func previewOptionsFrom(cmd *cobra.Command) (previewOptions, error) {
	flags := cmd.Flags()

	var o previewOptions
	o.position, _ = flags.GetString("position")
	o.context, _ = flags.GetString("context")
	o.path, _ = flags.GetString("path")
	o.device, _ = flags.GetString("device")
	o.adType, _ = flags.GetString("type")
	o.group, _ = flags.GetString("group")
	o.limit, _ = flags.GetInt("limit")
	o.rotate, _ = flags.GetBool("rotation")
	o.duration, _ = flags.GetDuration("duration")
	o.interval, _ = flags.GetDuration("interval")

	if !domain.DeviceClass(o.device).IsValid() {
		return o, fmt.Errorf("unknown device %q", o.device)
	}
	if o.limit < 1 || o.limit > domain.MaxPlacementLimit {
		return o, fmt.Errorf("limit must be between 1 and %d", domain.MaxPlacementLimit)
	}
	if o.duration <= 0 {
		return o, fmt.Errorf("duration must be positive")
	}

	return o, nil
}

func (o previewOptions) query(interests domain.RecentInterests) domain.PlacementQuery {
	q := domain.PlacementQuery{
		Position:       o.position,
		Type:           domain.AdType(o.adType),
		RotationGroup:  o.group,
		Device:         domain.DeviceClass(o.device),
		Limit:          o.limit,
		EnableRotation: o.rotate,
		Interests:      interests,
	}

	switch {
	case o.context != "":
		q.Context = domain.ParsePageContext(o.context)
	case o.path != "":
		q.Context = domain.PageContextFromPath(o.path)
	default:
		q.Context = domain.PageOther
	}

	return q
}

// previewer plays one placement the way a page would.
type previewer struct {
	client    *adclient.Client
	tracker   *adclient.Tracker
	out       io.Writer
	visitorID string

	mu sync.Mutex // guards out
}

func (p *previewer) run(ctx context.Context, query domain.PlacementQuery, duration, interval time.Duration) error {
	placement, err := p.client.Placement(ctx, query, p.visitorID)
	if err != nil {
		return err
	}

	p.printf("%d ads ranked for %s (context %s, device %s)\n",
		len(placement.Ranked), query.Position, query.Context, query.Device)
	if len(placement.Ranked) == 0 {
		return nil
	}

	visibility := rotation.NewVisibility(p.tracker)
	defer p.tracker.Wait()
	defer visibility.ExitAll()

	opts := []rotation.Option{
		rotation.WithOnChange(func(frame rotation.Frame) {
			visibility.Show(frame.Window)
			p.printFrame(frame)
		}),
	}
	if interval > 0 {
		opts = append(opts, rotation.WithInterval(interval))
	}

	carousel := rotation.New(placement.Rotation(), opts...)

	first := rotation.Frame{Window: carousel.Window(), Cursor: carousel.Cursor()}
	visibility.Show(first.Window)
	p.printFrame(first)

	ctx, cancel := context.WithTimeout(ctx, duration)
	defer cancel()

	if carousel.Start(ctx) {
		defer carousel.Stop()
	} else {
		p.printf("rotation off, holding the window for %s\n", duration)
	}

	<-ctx.Done()
	return nil
}

func (p *previewer) printFrame(frame rotation.Frame) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, "%s window at %d\n", time.Now().Format("15:04:05"), frame.Cursor)
	for _, r := range frame.Window {
		fmt.Fprintf(p.out, "  %-36s  %-30s  score=%.2f relevance=%.2f\n",
			r.Ad.ID, r.Ad.Title, r.FinalScore, r.Relevance)
	}
}

func (p *previewer) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.out, format, args...)
}
