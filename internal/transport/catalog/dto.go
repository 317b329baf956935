package catalog

import (
	"time"

	"github.com/kailas-cloud/streamscout/internal/domain"
)

// livesResponse mirrors the upstream catalog's paginated live listing.
type livesResponse struct {
	Content struct {
		Data []liveItem `json:"data"`
		Page struct {
			Next string `json:"next"`
		} `json:"page"`
	} `json:"content"`
}

type liveItem struct {
	ChannelID           string   `json:"channelId"`
	ChannelName         string   `json:"channelName"`
	LiveTitle           string   `json:"liveTitle"`
	LiveCategoryValue   string   `json:"liveCategoryValue"`
	Tags                []string `json:"tags"`
	ConcurrentUserCount int      `json:"concurrentUserCount"`
	OpenDate            string   `json:"openDate"`
}

func (it liveItem) toDomain() domain.LiveStream {
	return domain.LiveStream{
		ChannelID:   it.ChannelID,
		ChannelName: it.ChannelName,
		Title:       it.LiveTitle,
		Category:    it.LiveCategoryValue,
		Tags:        it.Tags,
		ViewerCount: it.ConcurrentUserCount,
		OpenedAt:    parseOpenDate(it.OpenDate),
	}
}

// parseOpenDate parses the upstream openDate timestamp; a parse failure
// yields the zero time rather than an error.
func parseOpenDate(s string) time.Time {
	t, err := time.Parse("2006-01-02T15:04:05", s)
	if err != nil {
		return time.Time{}
	}
	return t
}
