// Package seed holds the mock dataset the dashboard starts with and the
// delayed loader that hands it out.
package seed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mdmarufa/cloudex/internal/logging"
	"github.com/mdmarufa/cloudex/internal/metrics"
	"github.com/mdmarufa/cloudex/pkg/models"
)

// DefaultDelay is the simulated network latency of the initial fetch.
const DefaultDelay = 800 * time.Millisecond

const (
	kib = int64(1) << 10
	mib = int64(1) << 20
	gib = int64(1) << 30
)

// DemoUser is the account every seeded record belongs to.
var DemoUser = models.User{
	ID:           1,
	Username:     "demo",
	DisplayName:  "Alex Morgan",
	Email:        "alex.morgan@cloudex.dev",
	StorageLimit: 15 * gib,
}

// Dataset is everything the dashboard loads at startup.
type Dataset struct {
	User          models.User
	Files         []models.FileItem
	Conversations []models.Conversation
	Messages      []models.Message
	Notifications []models.Notification
}

// Loader returns the dataset after a fixed delay. There is no retry and
// no error path other than cancellation.
type Loader struct {
	Delay time.Duration
	Now   func() time.Time
}

// Fetch waits for the configured delay and returns a fresh copy of the
// dataset with timestamps relative to the current time.
func (l Loader) Fetch(ctx context.Context) (*Dataset, error) {
	start := time.Now()
	if l.Delay > 0 {
		timer := time.NewTimer(l.Delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	now := time.Now()
	if l.Now != nil {
		now = l.Now()
	}
	ds := Data(now)
	metrics.RecordSeedLoad(time.Since(start))
	logging.Info("seed data fetched",
		zap.Int("files", len(ds.Files)),
		zap.Int("messages", len(ds.Messages)),
		zap.Duration("delay", l.Delay))
	return ds, nil
}

// Data builds the dataset relative to now.
func Data(now time.Time) *Dataset {
	ago := func(d time.Duration) time.Time { return now.Add(-d) }
	day := 24 * time.Hour
	owner := DemoUser.Username

	file := func(id, name string, typ models.FileType, size int64, path string, age time.Duration, starred bool) models.FileItem {
		return models.FileItem{
			ID:         id,
			Name:       name,
			Type:       typ,
			Size:       size,
			ModifiedAt: ago(age),
			Owner:      owner,
			IsStarred:  starred,
			Path:       path,
		}
	}
	folder := func(id, name, path string, age time.Duration) models.FileItem {
		return file(id, name, models.TypeFolder, 0, path, age, false)
	}

	files := []models.FileItem{
		folder("f-design", "Design", "/", 40*day),
		folder("f-documents", "Documents", "/", 90*day),
		folder("f-photos", "Photos", "/", 200*day),
		folder("f-assets", "Assets", "/Design", 35*day),

		file("d-logo", "logo.png", models.TypeImage, 420*kib, "/Design", 2*day, true),
		file("d-brand", "brand-guidelines.pdf", models.TypeDocument, 6*mib, "/Design", 12*day, false),
		file("d-wireframe", "wireframes.fig", models.TypeImage, 18*mib, "/Design", 5*day, false),
		file("d-icons", "icon-set.zip", models.TypeArchive, 34*mib, "/Design/Assets", 30*day, false),
		file("d-hero", "hero-banner.jpg", models.TypeImage, 3*mib, "/Design/Assets", 3*time.Hour, false),
		file("d-motion", "intro-animation.mp4", models.TypeVideo, 240*mib, "/Design/Assets/Motion", 9*day, false),

		file("doc-q3", "Q3 Report.docx", models.TypeDocument, 2*mib, "/Documents", 20*day, true),
		file("doc-budget", "budget-2026.xlsx", models.TypeDocument, 780*kib, "/Documents", 6*day, false),
		file("doc-contract", "contract-signed.pdf", models.TypeDocument, 1200*kib, "/Documents/Legal", 60*day, false),
		file("doc-nda", "nda-template.docx", models.TypeDocument, 96*kib, "/Documents/Legal", 120*day, false),
		file("doc-invoice", "invoice-0042.pdf", models.TypeDocument, 210*kib, "/Documents/Finance/2026", 15*day, false),
		file("doc-receipts", "receipts.zip", models.TypeArchive, 48*mib, "/Documents/Finance/2025", 250*day, false),

		file("p-beach", "beach.jpg", models.TypeImage, 5*mib, "/Photos/Vacation", 150*day, true),
		file("p-sunset", "sunset.heic", models.TypeImage, 4*mib, "/Photos/Vacation", 149*day, false),
		file("p-family", "family-dinner.png", models.TypeImage, 7*mib, "/Photos", 45*day, false),
		file("p-clip", "drone-footage.mov", models.TypeVideo, 1200*mib, "/Photos/Vacation", 148*day, false),

		file("m-podcast", "podcast-ep12.mp3", models.TypeAudio, 62*mib, "/Music/Podcasts", 10*day, false),
		file("m-demo", "demo-track.wav", models.TypeAudio, 88*mib, "/Music", 75*day, true),
		file("m-playlist", "focus.flac", models.TypeAudio, 31*mib, "/Music", 300*day, false),

		file("v-onboard", "onboarding.mp4", models.TypeVideo, 410*mib, "/Videos/Training", 33*day, false),
		file("v-standup", "standup-recording.webm", models.TypeVideo, 150*mib, "/Videos", 1*day, false),

		file("b-backup", "laptop-backup.tar.gz", models.TypeArchive, 2*gib, "/Backups", 180*day, false),
		file("b-db", "db-dump.sql.gz", models.TypeArchive, 640*mib, "/Backups/Database", 7*day, false),

		file("r-todo", "todo.txt", models.TypeDocument, 2*kib, "/", 4*time.Hour, false),
		file("r-resume", "resume.pdf", models.TypeDocument, 180*kib, "/", 25*day, true),
	}

	conversations := []models.Conversation{
		{ID: "c-sara", Participants: []string{owner, "sara"}, Subject: "Brand refresh"},
		{ID: "c-omar", Participants: []string{owner, "omar"}, Subject: "Q3 numbers"},
		{ID: "c-team", Participants: []string{owner, "lena", "omar"}, Subject: "Offsite photos"},
	}

	messages := []models.Message{
		{ID: "msg-1", ConversationID: "c-sara", From: "sara", To: owner, Subject: "Brand refresh",
			Body: "Uploaded the new logo, can you take a look?", SentAt: ago(26 * time.Hour), Read: true,
			Attachments: []models.Attachment{{Name: "logo-v2.png", Size: 380 * kib, Type: models.TypeImage}}},
		{ID: "msg-2", ConversationID: "c-sara", From: owner, To: "sara", Subject: "Brand refresh",
			Body: "Looks great. Can we try a darker variant?", SentAt: ago(25 * time.Hour), Read: true},
		{ID: "msg-3", ConversationID: "c-sara", From: "sara", To: owner, Subject: "Brand refresh",
			Body: "Sure, I will send it over tomorrow.", SentAt: ago(2 * time.Hour)},
		{ID: "msg-4", ConversationID: "c-omar", From: "omar", To: owner, Subject: "Q3 numbers",
			Body: "The Q3 report is in Documents. Numbers are final.", SentAt: ago(3 * day), Read: true},
		{ID: "msg-5", ConversationID: "c-team", From: "lena", To: owner, Subject: "Offsite photos",
			Body: "Drone footage is up in Photos/Vacation!", SentAt: ago(5 * time.Hour)},
		{ID: "msg-6", ConversationID: "c-team", From: "omar", To: owner, Subject: "Offsite photos",
			Body: "That sunset shot is amazing.", SentAt: ago(4 * time.Hour)},
	}

	notifications := []models.Notification{
		{ID: "n-1", Kind: models.NotifyWarning, Title: "Storage usage",
			Body: "You have used more than 30% of your storage.", CreatedAt: ago(6 * time.Hour)},
		{ID: "n-2", Kind: models.NotifySuccess, Title: "Upload complete",
			Body: "hero-banner.jpg was uploaded.", Path: "/Design/Assets/hero-banner.jpg", CreatedAt: ago(3 * time.Hour)},
		{ID: "n-3", Kind: models.NotifyInfo, Title: "New message from sara",
			Body: "Sure, I will send it over tomorrow.", CreatedAt: ago(2 * time.Hour)},
		{ID: "n-4", Kind: models.NotifyInfo, Title: "Shared folder updated",
			Body: "lena added files to Photos/Vacation.", Path: "/Photos/Vacation", CreatedAt: ago(2 * day), Read: true},
	}

	return &Dataset{
		User:          DemoUser,
		Files:         files,
		Conversations: conversations,
		Messages:      messages,
		Notifications: notifications,
	}
}
