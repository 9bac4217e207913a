package application

import (
	"context"
	"time"

	settingsApp "github.com/subgate/subgate/core/settings/application"
	"github.com/subgate/subgate/subscription/domain"
)

// In-memory doubles used across the application tests.

type memSettingsRepo struct {
	values map[string]string
}

func (r *memSettingsRepo) Get(_ context.Context, key string) (string, error) {
	return r.values[key], nil
}

func (r *memSettingsRepo) Set(_ context.Context, key, value string) error {
	r.values[key] = value
	return nil
}

func (r *memSettingsRepo) InitSchema(_ context.Context) error { return nil }

func newTestSettings(values map[string]string) *settingsApp.SettingsService {
	if values == nil {
		values = make(map[string]string)
	}
	return settingsApp.NewSettingsService(&memSettingsRepo{values: values})
}

type fakeSubscriberRepo struct {
	subs map[int64]*domain.Subscriber
}

func newFakeSubscriberRepo() *fakeSubscriberRepo {
	return &fakeSubscriberRepo{subs: make(map[int64]*domain.Subscriber)}
}

func (r *fakeSubscriberRepo) Get(_ context.Context, id int64) (*domain.Subscriber, error) {
	sub, ok := r.subs[id]
	if !ok {
		return nil, domain.ErrSubscriberNotFound
	}
	cp := *sub
	return &cp, nil
}

func (r *fakeSubscriberRepo) Upsert(_ context.Context, sub *domain.Subscriber) error {
	cp := *sub
	cp.Notified = false
	r.subs[sub.ID] = &cp
	return nil
}

func (r *fakeSubscriberRepo) Extend(_ context.Context, id int64, delta time.Duration) (time.Time, error) {
	sub, ok := r.subs[id]
	if !ok {
		return time.Time{}, domain.ErrSubscriberNotFound
	}
	sub.ValidUntil = sub.ValidUntil.Add(delta)
	sub.Notified = false
	return sub.ValidUntil, nil
}

func (r *fakeSubscriberRepo) Delete(_ context.Context, id int64) error {
	delete(r.subs, id)
	return nil
}

func (r *fakeSubscriberRepo) FindExpiringUnnotified(_ context.Context, window time.Duration) ([]*domain.Subscriber, error) {
	now := time.Now()
	var out []*domain.Subscriber
	for _, sub := range r.subs {
		if sub.Notified {
			continue
		}
		if sub.ValidUntil.After(now) && !sub.ValidUntil.After(now.Add(window)) {
			cp := *sub
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSubscriberRepo) MarkNotified(_ context.Context, id int64) error {
	sub, ok := r.subs[id]
	if !ok {
		return domain.ErrSubscriberNotFound
	}
	sub.Notified = true
	return nil
}

func (r *fakeSubscriberRepo) Count(_ context.Context) (int64, error) {
	return int64(len(r.subs)), nil
}

func (r *fakeSubscriberRepo) CountActive(_ context.Context) (int64, error) {
	var n int64
	for _, sub := range r.subs {
		if sub.IsActive(time.Now()) {
			n++
		}
	}
	return n, nil
}

func (r *fakeSubscriberRepo) InitSchema(_ context.Context) error { return nil }

type fakeChannelAccess struct {
	inviteLink string
	inviteErr  error

	resolveTitle string
	resolveErr   error

	removeErr error

	inviteCalls int
	removeCalls int
	removedIDs  []int64
}

func (a *fakeChannelAccess) CreateInviteLink(_ context.Context, _ string, _ time.Duration) (string, error) {
	a.inviteCalls++
	if a.inviteErr != nil {
		return "", a.inviteErr
	}
	return a.inviteLink, nil
}

func (a *fakeChannelAccess) RemoveMember(_ context.Context, _ string, userID int64) error {
	a.removeCalls++
	a.removedIDs = append(a.removedIDs, userID)
	return a.removeErr
}

func (a *fakeChannelAccess) ResolveChannel(_ context.Context, _ string) (string, error) {
	if a.resolveErr != nil {
		return "", a.resolveErr
	}
	return a.resolveTitle, nil
}

type sentOffer struct {
	userID int64
	price  int
}

type fakeNotifier struct {
	offerErr error

	offers  []sentOffer
	directs map[int64]string
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{directs: make(map[int64]string)}
}

func (n *fakeNotifier) SendRenewalOffer(_ context.Context, userID int64, _ time.Time, price int) error {
	if n.offerErr != nil {
		return n.offerErr
	}
	n.offers = append(n.offers, sentOffer{userID: userID, price: price})
	return nil
}

func (n *fakeNotifier) SendDirect(_ context.Context, userID int64, text string) error {
	n.directs[userID] = text
	return nil
}
