package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	blog "github.com/goliatone/go-blog"
	"github.com/goliatone/go-blog/cmd/blog/internal/bootstrap"
)

var moduleBuilder = bootstrap.BuildModule

const usage = `Usage: blog <command> [flags]

Commands:
  build   Render the site into the output directory
  serve   Serve the built site for local preview
  watch   Rebuild on content changes and serve the result
  new     Scaffold a new post
  clean   Remove the output directory

Run "blog <command> -h" for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "new":
		err = runNew(os.Args[2:])
	case "clean":
		err = runClean(os.Args[2:])
	case "-h", "--help", "help":
		fmt.Fprint(os.Stdout, usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "blog: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("blog %s: %v", os.Args[1], err)
	}
}

func commonFlags(fs *flag.FlagSet) *bootstrap.Options {
	opts := &bootstrap.Options{}
	fs.StringVar(&opts.ConfigPath, "config", "", "Path to the blog config file (default blog.yaml)")
	fs.StringVar(&opts.ContentDir, "content-dir", "", "Path to the content root")
	fs.StringVar(&opts.OutputDir, "output-dir", "", "Path to the build output directory")
	fs.StringVar(&opts.BaseURL, "base-url", "", "Site base URL used for canonical links and feeds")
	fs.StringVar(&opts.ThemePath, "theme", "", "Path to a theme directory (default embedded theme)")
	fs.StringVar(&opts.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&opts.LogFormat, "log-format", "", "Log format (console, json, pretty)")
	return opts
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("blog-build", flag.ExitOnError)
	opts := commonFlags(fs)
	drafts := fs.Bool("drafts", false, "Include draft posts in the build")
	dryRun := fs.Bool("dry-run", false, "Render without writing output")
	fs.BoolVar(&opts.Clean, "clean", false, "Remove the output directory before building")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	result, err := module.Build(context.Background(), blog.BuildOptions{
		IncludeDrafts: *drafts,
		DryRun:        *dryRun,
	})
	if err != nil {
		return err
	}
	if result != nil {
		fmt.Fprintf(os.Stdout, "built %d entries (%d pages written, %d skipped) in %s\n",
			result.Entries, result.PagesWritten, result.PagesSkipped, result.Duration.Round(time.Millisecond))
	}
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("blog-serve", flag.ExitOnError)
	opts := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()
	return ignoreCanceled(module.Serve(ctx))
}

func runWatch(args []string) error {
	fs := flag.NewFlagSet("blog-watch", flag.ExitOnError)
	opts := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	ctx, stop := signalContext()
	defer stop()

	// Initial build so the preview has something to serve.
	if _, err := module.Build(ctx, blog.BuildOptions{IncludeDrafts: true}); err != nil {
		return err
	}

	errCh := make(chan error, 2)
	go func() { errCh <- module.Watch(ctx) }()
	go func() { errCh <- module.Serve(ctx) }()

	err = <-errCh
	stop()
	return ignoreCanceled(err)
}

func runNew(args []string) error {
	fs := flag.NewFlagSet("blog-new", flag.ExitOnError)
	opts := commonFlags(fs)
	title := fs.String("title", "", "Post title (required)")
	description := fs.String("description", "", "Post description (required)")
	slug := fs.String("slug", "", "Post slug (derived from the title when empty)")
	tags := fs.String("tags", "", "Comma separated tag list")
	author := fs.String("author", "", "Post author")
	draft := fs.Bool("draft", false, "Mark the post as a draft")
	overwrite := fs.Bool("overwrite", false, "Replace an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}

	return module.NewPost(context.Background(), blog.NewPostCommand{
		Title:       *title,
		Description: *description,
		Slug:        *slug,
		Tags:        bootstrap.SplitTags(*tags),
		Author:      *author,
		Draft:       *draft,
		Overwrite:   *overwrite,
	})
}

func runClean(args []string) error {
	fs := flag.NewFlagSet("blog-clean", flag.ExitOnError)
	opts := commonFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	module, err := moduleBuilder(*opts)
	if err != nil {
		return fmt.Errorf("bootstrap module: %w", err)
	}
	return module.Clean(context.Background())
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
