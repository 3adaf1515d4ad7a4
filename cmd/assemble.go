package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"rebelinux-site/core/config"
	"rebelinux-site/core/document"
	"rebelinux-site/core/fragment"
	"rebelinux-site/core/logger"
	"rebelinux-site/core/storage"
	"rebelinux-site/feature/site"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	assembleFile string
	assemblePath string
	assembleOut  string
	assembleWait time.Duration
)

// assembleCmd represents the assemble command
var assembleCmd = &cobra.Command{
	Use:   "assemble [page]",
	Short: "Assemble a page once and write the result",
	Long: `Loads a page shell from storage (or a local file with --file), mounts the shared
fragments with retries and writes the assembled document to stdout or --out.
With --wait-online a failed assembly is retried when the fragment origin comes back.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		cfg, err := config.LoadConfig(".")
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logg, err := logger.New(&cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer logg.Sync()

		page := "index"
		if len(args) == 1 {
			page = args[0]
		}

		var shell []byte
		if assembleFile != "" {
			shell, err = os.ReadFile(assembleFile)
		} else {
			var store storage.Client
			store, err = storage.NewClient(cfg.Storage)
			if err != nil {
				return fmt.Errorf("failed to create storage client: %w", err)
			}
			shell, err = storage.ReadObject(ctx, store, cfg.Storage.Bucket, "pages/"+page+".html")
		}
		if err != nil {
			return fmt.Errorf("failed to read page shell: %w", err)
		}

		path := assemblePath
		if path == "" {
			path = "/" + page
		}
		retryURL, err := fragment.Resolve(cfg.Server.PublicURL, path)
		if err != nil {
			return err
		}

		doc, l, err := newAssembly(shell, path, retryURL, cfg.Loader, logg)
		if err != nil {
			return err
		}

		_, cycleErr := l.LoadAll(ctx)
		if cycleErr != nil && assembleWait > 0 {
			logg.Info("Waiting for the fragment origin", zap.Duration("timeout", assembleWait))
			probe := fragment.NewProbe(cfg.Loader.Origin, cfg.Loader.ProbeInterval(), nil, logg)
			cycleErr = waitOnline(ctx, l, probe, assembleWait)
		}

		var w io.Writer = os.Stdout
		if assembleOut != "" {
			f, err := os.Create(assembleOut)
			if err != nil {
				return fmt.Errorf("failed to create output file: %w", err)
			}
			defer f.Close()
			w = f
		}
		if err := doc.Render(w); err != nil {
			return fmt.Errorf("failed to write page: %w", err)
		}

		return cycleErr
	},
}

func init() {
	RootCmd.AddCommand(assembleCmd)

	assembleCmd.Flags().StringVar(&assembleFile, "file", "", "Read the page shell from a local file instead of storage")
	assembleCmd.Flags().StringVar(&assemblePath, "path", "", "Request path used for active navigation (defaults to /<page>)")
	assembleCmd.Flags().StringVarP(&assembleOut, "out", "o", "", "Write the assembled page to a file instead of stdout")
	assembleCmd.Flags().DurationVar(&assembleWait, "wait-online", 0, "After a failed assembly, wait this long for the origin to come back and retry")
}

// newAssembly parses shell and wires a loader with the site setup sequence.
func newAssembly(shell []byte, path, retryURL string, cfg fragment.Config, logg *zap.Logger) (*document.Document, *fragment.Loader, error) {
	doc, err := document.Parse(bytes.NewReader(shell))
	if err != nil {
		return nil, nil, err
	}

	descriptors, err := fragment.DefaultDescriptors(cfg.Origin)
	if err != nil {
		return nil, nil, err
	}

	l := fragment.New(doc, descriptors, fragment.Options{
		Fetcher:  fragment.NewHTTPFetcher(nil),
		Policy:   cfg.Policy(),
		Setup:    site.NewSetup(doc, path, logg),
		RetryURL: retryURL,
		Logger:   logg,
	})
	l.Subscribe(func(ev fragment.Event) {
		if ev.Type == fragment.EventComponentFailed {
			logg.Debug("Component event", zap.String("type", string(ev.Type)), zap.String("container", ev.ContainerID), zap.Int("attempt", ev.Attempt))
		}
	})
	return doc, l, nil
}

// waitOnline reruns the failed cycle whenever probe sees the origin come back, until a cycle
// succeeds or timeout elapses. An origin that is already reachable triggers one rerun immediately.
func waitOnline(ctx context.Context, l *fragment.Loader, probe *fragment.Probe, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	lastErr := fragment.ErrCycleFailed
	restored := func(ctx context.Context) {
		if _, err := l.ConnectivityRestored(ctx); err != nil {
			lastErr = err
			return
		}
		lastErr = nil
		cancel()
	}

	if probe.Check(ctx) {
		restored(ctx)
	}
	if lastErr != nil {
		probe.Run(ctx, restored)
	}
	return lastErr
}
