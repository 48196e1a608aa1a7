package export

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/sirupsen/logrus"

	"llmstxt-audit/pkg/models"
	"llmstxt-audit/pkg/utils"
)

// Archiver writes crawled pages to disk as Markdown, one file per page,
// mirroring the site's path structure under the output directory.
type Archiver struct {
	outputDir string
	converter *md.Converter
	log       *logrus.Entry
}

// NewArchiver creates an Archiver rooted at outputDir. The directory is
// created on the first page written, not here.
func NewArchiver(outputDir string, log *logrus.Entry) *Archiver {
	return &Archiver{
		outputDir: outputDir,
		converter: md.NewConverter("", true, nil),
		log:       log,
	}
}

// ArchiveAll converts and writes every page in the crawl result. Pages that
// fail to convert or write are logged and skipped; the count of pages
// written is returned.
func (a *Archiver) ArchiveAll(result *models.CrawlResult) int {
	written := 0
	for i := range result.Pages {
		page := &result.Pages[i]
		if _, err := a.ArchivePage(page); err != nil {
			a.log.WithField("url", page.URL).Warnf("Skipping page archive: %v", err)
			continue
		}
		written++
	}
	a.log.Infof("Archived %d of %d pages to %s", written, len(result.Pages), a.outputDir)
	return written
}

// ArchivePage converts one page to Markdown and writes it. Returns the full
// path of the written file.
func (a *Archiver) ArchivePage(page *models.FetchedPage) (string, error) {
	parsed, err := url.Parse(page.URL)
	if err != nil {
		return "", fmt.Errorf("%w: page URL %q: %v", utils.ErrParsing, page.URL, err)
	}

	markdown, err := a.converter.ConvertString(page.RawHTML)
	if err != nil {
		return "", fmt.Errorf("%w: converting %s: %v", utils.ErrParsing, page.URL, err)
	}

	fullPath := filepath.Join(a.outputDir, PathForURL(parsed))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return "", fmt.Errorf("%w: creating archive directory: %v", utils.ErrFilesystem, err)
	}
	if err := os.WriteFile(fullPath, []byte(markdown), 0644); err != nil {
		return "", fmt.Errorf("%w: writing %s: %v", utils.ErrFilesystem, fullPath, err)
	}

	a.log.WithField("url", page.URL).Debugf("Saved Markdown (%d bytes): %s", len(markdown), fullPath)
	return fullPath, nil
}

// PathForURL maps a page URL to a relative Markdown file path. Directory-like
// URLs become <path>/index.md; file-like URLs keep their base name with the
// extension swapped for .md. Every path component is sanitized.
func PathForURL(u *url.URL) string {
	relative := strings.TrimPrefix(strings.TrimSuffix(u.Path, "/"), "/")
	if relative == "" {
		return "index.md"
	}

	baseName := path.Base(relative)
	dirPart := path.Dir(relative)
	ext := path.Ext(baseName)

	var parts []string
	filename := "index.md"
	if ext != "" && len(ext) > 1 {
		filename = utils.SanitizeFilename(strings.TrimSuffix(baseName, ext)) + ".md"
		if dirPart != "" && dirPart != "." {
			parts = splitSanitized(dirPart)
		}
	} else {
		parts = splitSanitized(relative)
	}

	if len(parts) == 0 {
		return filename
	}
	return filepath.Join(filepath.Join(parts...), filename)
}

func splitSanitized(p string) []string {
	var parts []string
	for _, part := range strings.Split(p, "/") {
		if part != "" {
			parts = append(parts, utils.SanitizeFilename(part))
		}
	}
	return parts
}
