package playlist

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  []EpisodeRecord
	}{
		"single entry with title": {
			input: "#EXTINF:-1,Show Name S01E02 Episode Title\nhttp://x/ep.ts\n",
			want: []EpisodeRecord{
				{SeriesName: "Show Name", Season: 1, Episode: 2, EpisodeTitle: "Episode Title", StreamURL: "http://x/ep.ts"},
			},
		},
		"year and tag stripped": {
			input: "#EXTINF:-1,The Expanse (2015) (US) S03E10\nhttp://x/10.ts\n",
			want: []EpisodeRecord{
				{SeriesName: "The Expanse", Season: 3, Episode: 10, StreamURL: "http://x/10.ts"},
			},
		},
		"lowercase markers and leading zeros": {
			input: "#EXTINF:-1,Show s003e007 Title\nhttps://x/7.ts\n",
			want: []EpisodeRecord{
				{SeriesName: "Show", Season: 3, Episode: 7, EpisodeTitle: "Title", StreamURL: "https://x/7.ts"},
			},
		},
		"space between markers": {
			input: "#EXTINF:-1,Show S1 E7\nhttp://x/7.ts",
			want: []EpisodeRecord{
				{SeriesName: "Show", Season: 1, Episode: 7, StreamURL: "http://x/7.ts"},
			},
		},
		"missing season defaults to one": {
			input: "#EXTINF:-1,Show E05\nhttp://x/5.ts\n",
			want: []EpisodeRecord{
				{SeriesName: "Show", Season: 1, Episode: 5, StreamURL: "http://x/5.ts"},
			},
		},
		"attributes and crlf": {
			input: "#EXTM3U\r\n#EXTINF:-1 tvg-id=\"a\" group-title=\"TV\",Show S02E01 Pilot\r\nhttp://x/1.ts\r\n",
			want: []EpisodeRecord{
				{SeriesName: "Show", Season: 2, Episode: 1, EpisodeTitle: "Pilot", StreamURL: "http://x/1.ts"},
			},
		},
		"quoted attribute with comma": {
			input: "#EXTINF:-1 tvg-name=\"Office, The\" group-title=\"TV, US\",The Office S02E03 Office Olympics\nhttp://x/o.ts\n",
			want: []EpisodeRecord{
				{SeriesName: "The Office", Season: 2, Episode: 3, EpisodeTitle: "Office Olympics", StreamURL: "http://x/o.ts"},
			},
		},
		"earliest episode marker ends the title": {
			input: "#EXTINF:-1,Show E1 Special S01E02\nhttp://x/s.ts\n",
			want: []EpisodeRecord{
				{SeriesName: "Show", Season: 1, Episode: 1, EpisodeTitle: "Special S01E02", StreamURL: "http://x/s.ts"},
			},
		},
		"non matching entries skipped": {
			input: "#EXTM3U\n#EXTINF:-1,News Channel\nhttp://x/live.ts\n#EXTINF:-1,Bad S01E01\nnot a url\n#EXTINF:-1,Good S01E01\nhttp://x/good.ts\n",
			want: []EpisodeRecord{
				{SeriesName: "Good", Season: 1, Episode: 1, StreamURL: "http://x/good.ts"},
			},
		},
		"order preserved": {
			input: "#EXTINF:-1,B S02E03 T\nhttp://b\n#EXTINF:-1,A S01E01\nhttp://a\n",
			want: []EpisodeRecord{
				{SeriesName: "B", Season: 2, Episode: 3, EpisodeTitle: "T", StreamURL: "http://b"},
				{SeriesName: "A", Season: 1, Episode: 1, StreamURL: "http://a"},
			},
		},
		"empty playlist": {
			input: "",
			want:  []EpisodeRecord{},
		},
		"no matches": {
			input: "#EXTM3U\n#EXTINF:-1,Live TV\nhttp://x/live\n",
			want:  []EpisodeRecord{},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := Parse(tc.input)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseIdempotent(t *testing.T) {
	t.Parallel()

	input := "#EXTINF:-1,Show S01E01 One\nhttp://x/1\n#EXTINF:-1,Show S01E02 Two\nhttp://x/2\n"
	first := Parse(input)
	second := Parse(input)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Parse() not idempotent (-first +second):\n%s", diff)
	}
}

func TestParseAllConcatenatesInOrder(t *testing.T) {
	t.Parallel()

	texts := []string{
		"#EXTINF:-1,A S01E02\nhttp://a/2\n#EXTINF:-1,A S01E01\nhttp://a/1\n",
		"",
		"#EXTINF:-1,B S01E01\nhttp://b/1\n",
	}
	got := ParseAll(texts)

	var urls []string
	for _, r := range got {
		urls = append(urls, r.StreamURL)
	}
	want := []string{"http://a/2", "http://a/1", "http://b/1"}
	if diff := cmp.Diff(want, urls); diff != "" {
		t.Errorf("ParseAll() order mismatch (-want +got):\n%s", diff)
	}
}
