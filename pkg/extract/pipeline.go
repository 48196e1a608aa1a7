package extract

import (
	"context"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"llmstxt-audit/pkg/models"
)

// ClassifyFunc assigns a category to an extracted page. It must be safe for
// concurrent use.
type ClassifyFunc func(*models.ExtractedPage) models.PageCategory

// Pipeline extracts crawled pages concurrently.
type Pipeline struct {
	workers  int
	classify ClassifyFunc
	log      *logrus.Entry
}

// NewPipeline creates a Pipeline running at most workers extractions at
// once. classify may be nil, leaving every page uncategorized.
func NewPipeline(workers int, classify ClassifyFunc, log *logrus.Entry) *Pipeline {
	if workers <= 0 {
		workers = 1
	}
	return &Pipeline{workers: workers, classify: classify, log: log}
}

// Run extracts all pages and returns results in the same order as the
// input. Pages whose HTML cannot be parsed yield a degraded entry carrying
// only the fetch metadata, so every input page appears in the output.
func (p *Pipeline) Run(ctx context.Context, pages []models.FetchedPage) ([]models.ExtractedPage, error) {
	results := make([]models.ExtractedPage, len(pages))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	for i := range pages {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			page := &pages[i]
			extracted, err := ExtractContent(page)
			if err != nil {
				p.log.WithField("url", page.URL).Warnf("Extraction degraded: %v", err)
				extracted = degradedPage(page)
			}
			if p.classify != nil {
				extracted.Category = p.classify(extracted)
			}
			results[i] = *extracted
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// degradedPage carries forward what the crawler already knew about a page
// whose markup could not be parsed.
func degradedPage(page *models.FetchedPage) *models.ExtractedPage {
	return &models.ExtractedPage{URL: page.URL, Title: page.Title}
}
