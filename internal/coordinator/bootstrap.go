package coordinator

import (
	"context"
	"fmt"
	"sort"
)

const bootstrapScanLimit = 100

// ScanReport summarizes the reconciliation bootstrap scan across every
// configured channel.
type ScanReport struct {
	Scanned      bool                `json:"scanned"`
	Reason       string              `json:"reason,omitempty"`
	TotalScanned int                 `json:"total_scanned"`
	TotalAdded   int                 `json:"total_added"`
	Errors       map[string][]string `json:"errors,omitempty"`
}

// InitializeChannelScanning seeds the duplicate detector from recent channel
// history so reconciliation works even after a state-store loss. The scan is
// best-effort: a failing channel is recorded and the rest still run. It is
// skipped entirely when the messenger is not connected, then when no detector
// is wired.
func (e *Engine) InitializeChannelScanning(ctx context.Context) ScanReport {
	report := ScanReport{Errors: map[string][]string{}}

	if e.messenger == nil || !e.messenger.IsReady() {
		report.Reason = "discord_not_ready"
		return report
	}
	if e.detector == nil {
		report.Reason = "no_duplicate_detector"
		return report
	}
	report.Scanned = true

	if e.channels.Video != "" {
		e.scanVideoChannel(ctx, &report)
	}

	// Deterministic category order keeps log output stable.
	categories := make([]string, 0, len(e.channels.Social))
	for category := range e.channels.Social {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		e.scanSocialChannel(ctx, category, e.channels.Social[category], &report)
	}

	if len(report.Errors) == 0 {
		report.Errors = nil
	}

	e.log.InfoObj("channel scan finished", "channel_scan", report)
	return report
}

func (e *Engine) scanVideoChannel(ctx context.Context, report *ScanReport) {
	ch, err := e.messenger.FetchChannel(ctx, e.channels.Video)
	if err != nil {
		report.Errors["video"] = append(report.Errors["video"], err.Error())
		return
	}

	res, err := e.detector.ScanChannelForVideos(ctx, ch, bootstrapScanLimit)
	report.TotalScanned += res.MessagesScanned
	report.TotalAdded += res.VideoIDsAdded
	report.Errors["video"] = append(report.Errors["video"], res.Errors...)
	if err != nil {
		report.Errors["video"] = append(report.Errors["video"], err.Error())
	}
	if len(report.Errors["video"]) == 0 {
		delete(report.Errors, "video")
	}
}

func (e *Engine) scanSocialChannel(ctx context.Context, category, channelID string, report *ScanReport) {
	if channelID == "" {
		return
	}

	ch, err := e.messenger.FetchChannel(ctx, channelID)
	if err != nil {
		report.Errors[category] = append(report.Errors[category], fmt.Sprintf("fetch %s: %s", channelID, err))
		return
	}

	res, err := e.detector.ScanChannelForTweets(ctx, ch, bootstrapScanLimit)
	report.TotalScanned += res.MessagesScanned
	report.TotalAdded += res.TweetIDsAdded
	report.Errors[category] = append(report.Errors[category], res.Errors...)
	if err != nil {
		report.Errors[category] = append(report.Errors[category], err.Error())
	}
	if len(report.Errors[category]) == 0 {
		delete(report.Errors, category)
	}
}
