package services

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/gilliek/go-opml/opml"

	"github.com/custodia-labs/finkit/internal/core/domain"
	"github.com/custodia-labs/finkit/internal/logger"
)

type opmlEntry struct {
	url, title, category string
}

// ImportOPML subscribes to every feed outline in r. Folder outlines become
// categories. Duplicates and invalid URLs are skipped. Returns the number of
// feeds added.
func (s *FeedService) ImportOPML(ctx context.Context, r io.Reader) (int, error) {
	if s.store == nil {
		return 0, domain.ErrNotImplemented
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return 0, fmt.Errorf("reading OPML: %w", err)
	}
	doc, err := opml.NewOPML(data)
	if err != nil {
		return 0, fmt.Errorf("%w: OPML: %v", domain.ErrParse, err)
	}

	var entries []opmlEntry
	collectOutlines(doc.Body.Outlines, "", &entries)

	added := 0
	err = s.store.UpdateFeeds(ctx, func(feeds []domain.Feed) ([]domain.Feed, error) {
		for _, e := range entries {
			feed, err := s.newFeed(e.url, e.category, e.title)
			if err != nil {
				logger.Warn("skipping OPML outline %q: %v", e.url, err)
				continue
			}
			if findByURL(feeds, feed.URL) >= 0 {
				continue
			}
			feeds = append(feeds, *feed)
			added++
		}
		return feeds, nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}

func collectOutlines(outlines []opml.Outline, category string, out *[]opmlEntry) {
	for _, o := range outlines {
		if o.XMLURL != "" {
			title := o.Title
			if title == "" {
				title = o.Text
			}
			*out = append(*out, opmlEntry{url: o.XMLURL, title: title, category: category})
			continue
		}
		folder := strings.TrimSpace(o.Text)
		if folder == "" {
			folder = category
		}
		collectOutlines(o.Outlines, folder, out)
	}
}

// ExportOPML writes all feeds as an OPML 2.0 document grouped by category.
func (s *FeedService) ExportOPML(ctx context.Context, w io.Writer) error {
	feeds, err := s.List(ctx, "")
	if err != nil {
		return err
	}

	doc := opml.OPML{
		Version: "2.0",
		Head: opml.Head{
			Title:       "finkit feeds",
			DateCreated: s.now().UTC().Format("Mon, 02 Jan 2006 15:04:05 MST"),
		},
	}

	folders := make(map[string][]opml.Outline)
	for i := range feeds {
		f := &feeds[i]
		o := opml.Outline{Text: f.DisplayTitle(), Title: f.Title, Type: "rss", XMLURL: f.URL}
		if f.Category == "" {
			doc.Body.Outlines = append(doc.Body.Outlines, o)
			continue
		}
		folders[f.Category] = append(folders[f.Category], o)
	}

	names := make([]string, 0, len(folders))
	for name := range folders {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Body.Outlines = append(doc.Body.Outlines, opml.Outline{Text: name, Outlines: folders[name]})
	}

	out, err := doc.XML()
	if err != nil {
		return fmt.Errorf("encoding OPML: %w", err)
	}
	_, err = io.WriteString(w, out+"\n")
	return err
}
