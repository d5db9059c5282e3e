package finviz

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/dailybrief/internal/contracts"
)

// Finviz 뉴스 테이블 시각은 미 동부 기준
var eastern = loadEastern()

func loadEastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		return time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// GetNews scrapes the news table. Items outside r are dropped.
func (c *Client) GetNews(ctx context.Context, symbol string, r *contracts.DateRange) ([]contracts.NewsItem, error) {
	doc, err := c.fetchQuotePage(ctx, symbol)
	if err != nil {
		return nil, err
	}

	items := parseNewsTable(doc, c.now())
	if r != nil {
		filtered := items[:0]
		for _, it := range items {
			if r.Contains(it.PublishedAt) {
				filtered = append(filtered, it)
			}
		}
		items = filtered
	}

	c.logger.WithFields(map[string]interface{}{
		"symbol": symbol,
		"count":  len(items),
	}).Debug("Fetched news")
	return items, nil
}

// parseNewsTable reads table#news-table. The first row of each day carries the
// full date ("Mar-10-26 08:15AM" or "Today 08:15AM"); later rows carry only the
// time and inherit the date.
func parseNewsTable(doc *goquery.Document, now time.Time) []contracts.NewsItem {
	var items []contracts.NewsItem
	var day time.Time

	doc.Find("table#news-table tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		link := cells.Eq(1).Find("a").First()
		headline := strings.TrimSpace(link.Text())
		if headline == "" {
			return
		}

		published, d := parseStamp(strings.TrimSpace(cells.Eq(0).Text()), day, now)
		day = d

		source := strings.Trim(strings.TrimSpace(cells.Eq(1).Find("span").Last().Text()), "()")
		if source == "" {
			source = Name
		} else {
			source = Name + "/" + source
		}

		href, _ := link.Attr("href")
		items = append(items, contracts.NewsItem{
			Headline:    headline,
			URL:         href,
			Source:      source,
			PublishedAt: published,
		})
	})

	return items
}

// parseStamp returns the timestamp and the day it belongs to. An unparsable
// stamp yields a zero time.
func parseStamp(stamp string, day, now time.Time) (time.Time, time.Time) {
	fields := strings.Fields(stamp)
	var clock string

	switch len(fields) {
	case 2:
		clock = fields[1]
		if strings.EqualFold(fields[0], "Today") {
			n := now.In(eastern)
			day = time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, eastern)
		} else if d, err := time.ParseInLocation("Jan-02-06", fields[0], eastern); err == nil {
			day = d
		} else {
			return time.Time{}, day
		}
	case 1:
		clock = fields[0]
	default:
		return time.Time{}, day
	}

	if day.IsZero() {
		return time.Time{}, day
	}
	t, err := time.ParseInLocation("03:04PM", clock, eastern)
	if err != nil {
		return time.Time{}, day
	}
	return day.Add(time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute), day
}
