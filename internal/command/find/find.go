package find

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/bornholm/schoolscout/internal/logx"
	"github.com/bornholm/schoolscout/pkg/school"
	"github.com/gosimple/slug"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func Find() *cli.Command {
	return &cli.Command{
		Name:  "find",
		Usage: "Find schools of a region and their phone numbers",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "region",
				Required: true,
				Aliases:  []string{"r"},
				EnvVars:  []string{"SCHOOLSCOUT_REGION"},
				Usage:    "the region to search, e.g. \"Addis Ababa\"",
			},
			&cli.StringFlag{
				Name:    "type",
				Value:   school.DefaultSchoolType,
				Aliases: []string{"t"},
				EnvVars: []string{"SCHOOLSCOUT_TYPE"},
				Usage:   "the type of school, e.g. \"private\" or \"international\"",
			},
			&cli.StringFlag{
				Name:    "engine",
				Value:   EngineGoogle,
				Aliases: []string{"e"},
				EnvVars: []string{"SCHOOLSCOUT_ENGINE"},
				Usage:   fmt.Sprintf("the search engine to use (%s)", strings.Join(engines, ", ")),
			},
			&cli.StringFlag{
				Name:    "google-api-key",
				EnvVars: []string{"SCHOOLSCOUT_GOOGLE_API_KEY"},
				Usage:   "the Google Custom Search API key",
			},
			&cli.StringFlag{
				Name:    "google-cx",
				EnvVars: []string{"SCHOOLSCOUT_GOOGLE_CX"},
				Usage:   "the Google Programmable Search Engine identifier",
			},
			&cli.StringFlag{
				Name:    "google-endpoint",
				EnvVars: []string{"SCHOOLSCOUT_GOOGLE_ENDPOINT"},
				Hidden:  true,
			},
			&cli.StringFlag{
				Name:    "searx-instance",
				EnvVars: []string{"SCHOOLSCOUT_SEARX_INSTANCE"},
				Usage:   "the SearXNG instance to query, picked from searx.space if empty",
			},
			&cli.StringFlag{
				Name:    "scraper",
				Value:   ScraperHTTP,
				EnvVars: []string{"SCHOOLSCOUT_SCRAPER"},
				Usage:   fmt.Sprintf("how web pages are fetched (%s)", strings.Join(scrapers, ", ")),
			},
			&cli.DurationFlag{
				Name:    "timeout",
				Value:   10 * time.Second,
				EnvVars: []string{"SCHOOLSCOUT_TIMEOUT"},
				Usage:   "the timeout of each request",
			},
			&cli.BoolFlag{
				Name:    "check-websites",
				EnvVars: []string{"SCHOOLSCOUT_CHECK_WEBSITES"},
				Usage:   "check that each school website answers",
			},
			&cli.StringFlag{
				Name:    "match",
				Aliases: []string{"m"},
				EnvVars: []string{"SCHOOLSCOUT_MATCH"},
				Usage:   "only keep schools whose name or snippet match the query, e.g. \"kindergarten\"",
			},
			&cli.StringFlag{
				Name:    "format",
				Value:   FormatJSON,
				Aliases: []string{"f"},
				EnvVars: []string{"SCHOOLSCOUT_FORMAT"},
				Usage:   fmt.Sprintf("the output format (%s)", strings.Join(formats, ", ")),
			},
			&cli.StringFlag{
				Name:      "output",
				Value:     "",
				Aliases:   []string{"o"},
				EnvVars:   []string{"SCHOOLSCOUT_OUTPUT"},
				TakesFile: true,
				Usage:     "the output file, \"-\" for stdout, default to slug of region",
			},
		},
		Action: func(cliCtx *cli.Context) error {
			region := strings.TrimSpace(cliCtx.String("region"))
			schoolType := strings.TrimSpace(cliCtx.String("type"))
			engine := cliCtx.String("engine")
			format := cliCtx.String("format")
			output := cliCtx.String("output")
			match := cliCtx.String("match")
			timeout := cliCtx.Duration("timeout")

			if region == "" {
				return errors.New("region must not be empty")
			}

			encode, ext, err := encoderFor(format)
			if err != nil {
				return errors.WithStack(err)
			}

			ctx := logx.WithAttrs(cliCtx.Context, slog.String("region", region), slog.String("engine", engine))

			pageScraper, closeScraper, err := newScraper(cliCtx.String("scraper"), timeout)
			if err != nil {
				return errors.Wrapf(err, "failed to create scraper")
			}

			defer closeScraper()

			client, err := newSearchClient(engine, engineOptions{
				GoogleAPIKey:   cliCtx.String("google-api-key"),
				GoogleCX:       cliCtx.String("google-cx"),
				GoogleEndpoint: cliCtx.String("google-endpoint"),
				SearxInstance:  cliCtx.String("searx-instance"),
				Timeout:        timeout,
				Scraper:        pageScraper,
			})
			if err != nil {
				return errors.Wrapf(err, "failed to create search client")
			}

			var failures *multierror.Error

			ctx = school.WithProgress(ctx, func(event school.ProgressEvent) {
				if event.Failed() {
					failures = multierror.Append(failures, event.Err)
				}

				slog.InfoContext(ctx, "query progress",
					slog.Int("progress", int(event.Progress()*100)),
					slog.String("query", event.Query),
					slog.Int("results", event.Found),
					slog.Bool("failed", event.Failed()),
					slog.Duration("elapsed", event.Elapsed.Round(time.Millisecond)),
				)
			})

			slog.InfoContext(ctx, "searching schools", slog.String("type", schoolType))

			records := school.NewFinder(client).FindSchools(ctx, region, schoolType)

			if err := failures.ErrorOrNil(); err != nil {
				slog.WarnContext(ctx, "some queries failed", slog.Int("failed", failures.Len()), slog.Any("error", err))
			}

			if cliCtx.Bool("check-websites") {
				records = school.CheckWebsites(ctx, pageScraper, records)
			}

			records, err = school.Filter(records, match)
			if err != nil {
				return errors.Wrapf(err, "failed to filter schools")
			}

			var buff bytes.Buffer

			report := Report{
				Region:     region,
				SchoolType: schoolType,
				Engine:     engine,
				Match:      match,
				FoundAt:    time.Now().UTC(),
				Schools:    records,
			}

			if err := encode(&buff, report); err != nil {
				return errors.Wrapf(err, "failed to encode schools")
			}

			if output == "-" {
				if _, err := io.Copy(os.Stdout, &buff); err != nil {
					return errors.WithStack(err)
				}

				return nil
			}

			if output == "" {
				output = slug.Make(fmt.Sprintf("%s %s schools", schoolType, region)) + ext
			}

			if err := os.WriteFile(output, buff.Bytes(), 0644); err != nil {
				return errors.Wrapf(err, "failed to write schools")
			}

			slog.InfoContext(ctx, "schools written", slog.String("output", output), slog.Int("schools", len(records)))

			return nil
		},
	}
}
