package sync

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/vidfeed/feed-sync-go/internal/db/models"
	"github.com/vidfeed/feed-sync-go/internal/provider"
)

func candidate(videoID, channelID string, published time.Time) provider.Candidate {
	return provider.Candidate{
		VideoID:     videoID,
		ChannelID:   channelID,
		ChannelName: "Channel " + channelID,
		Title:       "Video " + videoID,
		PublishedAt: published,
	}
}

// fakeSearcher returns canned per-channel results, failing the channels
// listed in failures.
type fakeSearcher struct {
	results  map[string][]provider.Candidate
	failures map[string]error
	calls    []string
}

func (f *fakeSearcher) SearchRecentUploads(_ context.Context, _ string, ch provider.Channel, _ time.Time) ([]provider.Candidate, error) {
	f.calls = append(f.calls, ch.ID)
	if err, ok := f.failures[ch.ID]; ok {
		return nil, err
	}
	return f.results[ch.ID], nil
}

// fakeChannelFetcher is the feed-side equivalent of fakeSearcher.
type fakeChannelFetcher struct {
	mu       sync.Mutex
	results  map[string][]provider.Candidate
	failures map[string]error
	calls    []string
}

func (f *fakeChannelFetcher) FetchChannelUploads(_ context.Context, ch provider.Channel, _ time.Time) ([]provider.Candidate, error) {
	f.mu.Lock()
	f.calls = append(f.calls, ch.ID)
	f.mu.Unlock()
	if err, ok := f.failures[ch.ID]; ok {
		return nil, err
	}
	return f.results[ch.ID], nil
}

// fakeDurationFetcher resolves durations from a fixed map.
type fakeDurationFetcher struct {
	durations map[string]int
	softErrs  []string
	err       error
	gotIDs    []string
}

func (f *fakeDurationFetcher) FetchDurations(_ context.Context, _ string, ids []string) (map[string]int, []string, error) {
	f.gotIDs = append(f.gotIDs, ids...)
	return f.durations, f.softErrs, f.err
}

// fakeVideoStore records inserts and can fail selected batches.
type fakeVideoStore struct {
	inserted    []*models.Video
	known       map[string]bool
	failBatches map[int]error
	batchCount  int
}

func (f *fakeVideoStore) InsertIgnoreDuplicates(_ context.Context, videos []*models.Video) ([]string, error) {
	batchIdx := f.batchCount
	f.batchCount++
	if err, ok := f.failBatches[batchIdx]; ok {
		return nil, err
	}
	var ids []string
	for _, v := range videos {
		if f.known[v.VideoID] {
			continue
		}
		if f.known == nil {
			f.known = make(map[string]bool)
		}
		f.known[v.VideoID] = true
		f.inserted = append(f.inserted, v)
		ids = append(ids, v.VideoID)
	}
	return ids, nil
}

// fakeUserStore serves a fixed set of users.
type fakeUserStore struct {
	users       map[uuid.UUID]*models.User
	order       []uuid.UUID
	touched     []uuid.UUID
	touchErr    error
	listErr     error
	getCalled   int
	touchCalled int
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	f.getCalled++
	u, ok := f.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: not found", id)
	}
	return u, nil
}

func (f *fakeUserStore) ListAll(_ context.Context) ([]*models.User, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]*models.User, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.users[id])
	}
	return out, nil
}

func (f *fakeUserStore) TouchLastSynced(_ context.Context, id uuid.UUID, _ time.Time) error {
	f.touchCalled++
	if f.touchErr != nil {
		return f.touchErr
	}
	f.touched = append(f.touched, id)
	return nil
}

// fakeCredentials returns a fixed token or error per user.
type fakeCredentials struct {
	token string
	err   error
}

func (f *fakeCredentials) ValidAccessToken(_ context.Context, _ *models.User) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.token, nil
}

// fakeLister returns a fixed channel list.
type fakeLister struct {
	channels []provider.Channel
	err      error
	calls    int
}

func (f *fakeLister) ListAllSubscriptions(_ context.Context, _ string) ([]provider.Channel, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.channels, nil
}

// fakePublisher records published events and can fail selected videos.
type fakePublisher struct {
	published []string
	failIDs   map[string]error
}

func (f *fakePublisher) PublishVideoIngested(_ context.Context, v *models.Video) error {
	if err, ok := f.failIDs[v.VideoID]; ok {
		return err
	}
	f.published = append(f.published, v.VideoID)
	return nil
}
