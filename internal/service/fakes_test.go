package service

import (
	"context"
	"sync"
	"time"

	"weather_relay/internal/ai"
	"weather_relay/internal/classifier"
	"weather_relay/internal/models"
)

func f64(v float64) *float64 { return &v }

func input(light, temp, humidity float64) SensorInput {
	return SensorInput{Light: f64(light), Temp: f64(temp), Humidity: f64(humidity)}
}

type fakeDispatchRepo struct {
	mu       sync.Mutex
	appended []models.DispatchEvent

	gotFrom, gotTo time.Time
	gotKind        string
	listCalls      int
	listOut        []models.DispatchEvent
	listErr        error
}

func (f *fakeDispatchRepo) Append(_ context.Context, e models.DispatchEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeDispatchRepo) List(_ context.Context, from, to time.Time, kind string) ([]models.DispatchEvent, error) {
	f.listCalls++
	f.gotFrom, f.gotTo, f.gotKind = from, to, kind
	return f.listOut, f.listErr
}

func (f *fakeDispatchRepo) statuses() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, e := range f.appended {
		out[e.Kind+"/"+e.Status]++
	}
	return out
}

// fakePending mirrors the unique-key insert of the SQLite table.
type fakePending struct {
	mu       sync.Mutex
	tokens   map[string]bool
	released []string
	claimErr error
}

func newFakePending() *fakePending { return &fakePending{tokens: map[string]bool{}} }

func (f *fakePending) Claim(_ context.Context, token string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.claimErr != nil {
		return false, f.claimErr
	}
	if f.tokens[token] {
		return false, nil
	}
	f.tokens[token] = true
	return true, nil
}

func (f *fakePending) Release(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.tokens, token)
	f.released = append(f.released, token)
	return nil
}

type fakeRecipients struct {
	mu      sync.Mutex
	ids     []string
	saveErr error
	listErr error
}

func (f *fakeRecipients) Save(_ context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return false, f.saveErr
	}
	for _, have := range f.ids {
		if have == id {
			return false, nil
		}
	}
	f.ids = append(f.ids, id)
	return true, nil
}

func (f *fakeRecipients) List(ctx context.Context) ([]models.Recipient, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Recipient, 0, len(f.ids))
	for _, id := range f.ids {
		out = append(out, models.Recipient{UserID: id})
	}
	return out, nil
}

func (f *fakeRecipients) ListIDs(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]string(nil), f.ids...), nil
}

type sent struct {
	target string
	text   string
}

type fakeMessenger struct {
	mu       sync.Mutex
	pushes   []sent
	replies  []sent
	pushErr  map[string]error
	replyErr error
	// replyGate, when set, blocks Reply until closed.
	replyGate chan struct{}
}

func (f *fakeMessenger) Push(_ context.Context, to, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pushes = append(f.pushes, sent{to, text})
	return f.pushErr[to]
}

func (f *fakeMessenger) Reply(_ context.Context, token, text string) error {
	if f.replyGate != nil {
		<-f.replyGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.replies = append(f.replies, sent{token, text})
	return f.replyErr
}

func (f *fakeMessenger) replyCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.replies)
}

type fakeAI struct {
	mu     sync.Mutex
	answer string
	err    error
	calls  [][]ai.Message
	// delays[i], when present, is how long call i takes.
	delays []time.Duration
}

func (f *fakeAI) Complete(_ context.Context, msgs []ai.Message) (string, error) {
	f.mu.Lock()
	var delay time.Duration
	if n := len(f.calls); n < len(f.delays) {
		delay = f.delays[n]
	}
	f.calls = append(f.calls, msgs)
	answer, err := f.answer, f.err
	f.mu.Unlock()

	time.Sleep(delay)
	return answer, err
}

func (f *fakeAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeRecorder struct {
	mu  sync.Mutex
	obs []string
}

func (f *fakeRecorder) ObserveDispatch(kind, status string, _ time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.obs = append(f.obs, kind+"/"+status)
}

type fakeSink struct {
	mu     sync.Mutex
	got    []models.Snapshot
	labels []classifier.Labels
	err    error
}

func (f *fakeSink) Publish(_ context.Context, snap models.Snapshot, labels classifier.Labels) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, snap)
	f.labels = append(f.labels, labels)
	return f.err
}

type fakeBroadcaster struct {
	mu   sync.Mutex
	msgs []string
	err  error
}

func (f *fakeBroadcaster) Broadcast(_ context.Context, msg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msg)
	return f.err
}

func (f *fakeBroadcaster) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}
