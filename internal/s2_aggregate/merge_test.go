package s2_aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/dailybrief/internal/briefconfig"
	"github.com/wonny/dailybrief/internal/contracts"
)

func TestVerifyPrice(t *testing.T) {
	primary := contracts.Quote{Price: 100, Source: "yahoo"}

	tests := []struct {
		name      string
		secondary *contracts.Quote
		want      bool
	}{
		{"within tolerance", &contracts.Quote{Price: 101.5}, true},
		{"exactly at tolerance", &contracts.Quote{Price: 98}, true},
		{"beyond tolerance", &contracts.Quote{Price: 110}, false},
		{"missing", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, warn := VerifyPrice(primary, tt.secondary, 2)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, !tt.want, warn != "")
		})
	}
}

func TestScoreIsSumOfFourComponents(t *testing.T) {
	w := briefconfig.Default().Aggregation.Weights

	for mask := 0; mask < 16; mask++ {
		q := contracts.DataQuality{
			PriceVerified:        mask&1 != 0,
			FundamentalsComplete: mask&2 != 0,
			NewsAvailable:        mask&4 != 0,
			SocialDataAvailable:  mask&8 != 0,
		}

		want := 0
		if q.PriceVerified {
			want += 30
		}
		if q.FundamentalsComplete {
			want += 30
		}
		if q.NewsAvailable {
			want += 20
		}
		if q.SocialDataAvailable {
			want += 20
		}

		got := Score(q, w)
		assert.Equal(t, want, got)
		assert.GreaterOrEqual(t, got, 0)
		assert.LessOrEqual(t, got, 100)
	}
}

func TestMergeNews(t *testing.T) {
	base := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	r := contracts.LastDays(base, 7)

	items := []contracts.NewsItem{
		{Headline: "Old story", PublishedAt: base.AddDate(0, 0, -1)},
		{Headline: "Fresh  story", PublishedAt: base.Add(-time.Hour)},
		{Headline: "fresh story", PublishedAt: base.Add(-2 * time.Hour)}, // duplicate after normalization
		{Headline: "Ancient", PublishedAt: base.AddDate(0, 0, -30)},      // outside range
		{Headline: "Undated"},
		{Headline: "   "},
	}

	got := MergeNews(items, r, 10)

	headlines := make([]string, len(got))
	for i, n := range got {
		headlines[i] = n.Headline
	}
	assert.Equal(t, []string{"Fresh  story", "Old story", "Undated"}, headlines)

	assert.Len(t, MergeNews(newsItems(15, "x"), contracts.DateRange{}, 10), 10)
}

func TestMergeFundamentalsWithoutPE(t *testing.T) {
	b := &Bundle{
		Symbol:       "X",
		Quote:        contracts.Quote{Symbol: "X", Price: 10, IsRealData: true},
		Fundamentals: &contracts.Fundamentals{PE: -3},
		Sentiments:   []*contracts.Sentiment{{Mentions: 9}},
	}

	rec := Merge(b, briefconfig.Default().Aggregation)

	assert.False(t, rec.Quality.FundamentalsComplete)
	assert.False(t, rec.Quality.SocialDataAvailable, "9 mentions is below the threshold")
	assert.Contains(t, rec.Quality.Warnings, "fundamentals missing valid P/E")
	assert.Equal(t, 0, rec.Quality.OverallScore)
}

func TestSummarizeInsider(t *testing.T) {
	s := SummarizeInsider([]contracts.InsiderTransaction{
		{Shares: 100}, {Shares: -50}, {Shares: -25}, {Shares: 0},
	})

	assert.Equal(t, 1, s.Buys)
	assert.Equal(t, 2, s.Sells)
	assert.Equal(t, int64(25), s.NetShares)
}
