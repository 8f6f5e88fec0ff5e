package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/terrabrasilis/wmscap/pkg/auth"
	"github.com/terrabrasilis/wmscap/pkg/cache"
	"github.com/terrabrasilis/wmscap/pkg/capabilities"
	"github.com/terrabrasilis/wmscap/pkg/observability"
	"github.com/terrabrasilis/wmscap/pkg/urlutil"
)

type fetchOptions struct {
	useCache    bool
	concurrency int
	output      string
}

// fetchCommand creates the fetch command.
func (c *CLI) fetchCommand() *cobra.Command {
	var opts fetchOptions

	cmd := &cobra.Command{
		Use:   "fetch <url>...",
		Short: "Fetch WMS GetCapabilities documents",
		Long: `Fetch the GetCapabilities document of one or more WMS services.

Query parameters of each URL are replaced by the GetCapabilities request.
With a single URL and no --output, the raw XML is written to stdout.
Otherwise each document is written to the output directory (or just
summarized) and failures are reported per URL.`,
		Example: `  wmscap fetch https://terrabrasilis.dpi.inpe.br/geoserver/ows
  wmscap fetch -o ./docs --cache URL1 URL2 URL3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runFetch(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.useCache, "cache", false, "reuse cached documents and cache new ones")
	cmd.Flags().IntVarP(&opts.concurrency, "concurrency", "j", defaultConcurrency, "maximum parallel requests")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "write documents into this directory")

	return cmd
}

// fetched is the outcome of fetching one URL.
type fetched struct {
	url    string
	status string
	body   string
	cached bool
	err    error
}

func (c *CLI) runFetch(ctx context.Context, out io.Writer, urls []string, opts fetchOptions) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	authn := c.newAuthenticator(cfg)
	client, err := c.newClient(cfg, authn)
	if err != nil {
		return err
	}
	store, err := newCache(opts.useCache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer store.Close()

	prog := newProgress(logger)
	results := fetchCached(ctx, client, store, cacheScope(authn), cfg.CacheTTL.Std(), urls, opts.concurrency)

	if len(urls) == 1 && opts.output == "" {
		r := results[0]
		if r.err != nil {
			return r.err
		}
		_, err := io.WriteString(out, r.body)
		return err
	}

	if opts.output != "" {
		if err := os.MkdirAll(opts.output, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
			printError("%s", urlutil.Redact(r.url))
			printDetail("%v", r.err)
			continue
		}
		printSuccess("%s", urlutil.Redact(r.url))
		printFetchStats(r.status, len(r.body), r.cached)
		if opts.output != "" {
			path := filepath.Join(opts.output, documentName(r.url))
			if err := os.WriteFile(path, []byte(r.body), 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printFile(path)
		}
	}
	prog.done(fmt.Sprintf("Fetched %d of %d documents", len(urls)-failed, len(urls)))

	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(urls))
	}
	return nil
}

// fetchCached serves what it can from store and fetches the rest
// concurrently. Entries are partitioned by scope so documents fetched with
// one identity are never served to another. Results keep the order of urls.
func fetchCached(ctx context.Context, client *capabilities.Client, store cache.Cache, scope string, ttl time.Duration, urls []string, concurrency int) []fetched {
	logger := loggerFromContext(ctx)
	hooks := observability.Cache()
	results := make([]fetched, len(urls))

	var missing []string
	var missingIdx []int
	for i, u := range urls {
		results[i].url = u
		data, ok, err := store.Get(ctx, cacheKey(scope, u))
		if err != nil {
			logger.Warn("cache read failed", "err", err)
		}
		if ok {
			hooks.OnCacheHit(ctx, cacheKeyType)
			results[i].body = string(data)
			results[i].status = "cache"
			results[i].cached = true
			continue
		}
		hooks.OnCacheMiss(ctx, cacheKeyType)
		missing = append(missing, u)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return results
	}

	spinner := newSpinner(ctx, fmt.Sprintf("Fetching %d document(s)...", len(missing)))
	spinner.Start()
	fresh := client.FetchAll(ctx, missing, concurrency)
	spinner.Stop()

	for j, res := range fresh {
		r := &results[missingIdx[j]]
		if !res.OK() {
			r.err = res.Err
			continue
		}
		r.body = res.Response.Body
		r.status = res.Response.Status
		if err := store.Set(ctx, cacheKey(scope, r.url), []byte(r.body), ttl); err != nil {
			logger.Warn("cache write failed", "err", err)
		} else {
			hooks.OnCacheSet(ctx, cacheKeyType, len(r.body))
		}
	}
	return results
}

const cacheKeyType = "capabilities"

// cacheScope names the identity documents are fetched under: "anonymous",
// or a digest of the bearer token.
func cacheScope(authn auth.Authenticator) string {
	token := authn.Token()
	if token == "" {
		return "anonymous"
	}
	return "token-" + cache.Hash([]byte(token))[:16]
}

func cacheKey(scope, serviceURL string) string {
	return cache.Key(cacheKeyType+":"+scope, capabilities.RequestURL(serviceURL))
}

// documentName derives an output file name from a service URL.
func documentName(serviceURL string) string {
	host := "service"
	if u, err := url.Parse(serviceURL); err == nil && u.Hostname() != "" {
		host = u.Hostname()
	}
	return fmt.Sprintf("%s-%s.xml", host, cache.Hash([]byte(capabilities.RequestURL(serviceURL)))[:8])
}
