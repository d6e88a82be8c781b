package platform

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ticketdesk/models"
)

// FakeClient is an in-memory Client that records every call. It backs the
// coordinator tests and doubles as the local-dev platform when no gateway
// URL is configured.
type FakeClient struct {
	mu         sync.Mutex
	channels   map[string]*FakeChannel
	categories map[string][]models.CategoryRef
	calls      []string
	errs       map[string]error
}

// FakeChannel is the fake's view of one channel.
type FakeChannel struct {
	Ref        models.ChannelRef
	Overwrites map[string]bool
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		channels:   make(map[string]*FakeChannel),
		categories: make(map[string][]models.CategoryRef),
		errs:       make(map[string]error),
	}
}

// FailWith makes the named method return err on every subsequent call.
func (f *FakeClient) FailWith(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[method] = err
}

// Calls returns the recorded call log in order.
func (f *FakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

// Channel returns the fake's state for a channel id, or nil if absent.
func (f *FakeClient) Channel(channelID string) *FakeChannel {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.channels[channelID]
}

func (f *FakeClient) CreateChannel(ctx context.Context, scope, parentID, name string, overwrites []models.Overwrite) (models.ChannelRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("CreateChannel(%s)", name))
	if err := f.errs["CreateChannel"]; err != nil {
		return models.ChannelRef{}, err
	}

	ref := models.ChannelRef{ID: uuid.NewString(), Name: name, ParentID: parentID}
	channel := &FakeChannel{Ref: ref, Overwrites: make(map[string]bool)}
	for _, ow := range overwrites {
		channel.Overwrites[ow.SubjectID] = ow.View
	}
	f.channels[ref.ID] = channel
	return ref, nil
}

func (f *FakeClient) RenameChannel(ctx context.Context, channelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("RenameChannel(%s, %s)", channelID, name))
	if err := f.errs["RenameChannel"]; err != nil {
		return err
	}
	if channel, ok := f.channels[channelID]; ok {
		channel.Ref.Name = name
	}
	return nil
}

func (f *FakeClient) MoveChannel(ctx context.Context, channelID, parentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("MoveChannel(%s, %s)", channelID, parentID))
	if err := f.errs["MoveChannel"]; err != nil {
		return err
	}
	if channel, ok := f.channels[channelID]; ok {
		channel.Ref.ParentID = parentID
	}
	return nil
}

func (f *FakeClient) DeleteChannel(ctx context.Context, channelID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("DeleteChannel(%s)", channelID))
	if err := f.errs["DeleteChannel"]; err != nil {
		return err
	}
	delete(f.channels, channelID)
	return nil
}

func (f *FakeClient) SetOverwrite(ctx context.Context, channelID, subjectID string, view bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("SetOverwrite(%s, %s, %t)", channelID, subjectID, view))
	if err := f.errs["SetOverwrite"]; err != nil {
		return err
	}
	if channel, ok := f.channels[channelID]; ok {
		channel.Overwrites[subjectID] = view
	}
	return nil
}

func (f *FakeClient) FindCategory(ctx context.Context, scope, name string) (*models.CategoryRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("FindCategory(%s)", name))
	if err := f.errs["FindCategory"]; err != nil {
		return nil, err
	}
	for _, category := range f.categories[scope] {
		if category.Name == name {
			ref := category
			return &ref, nil
		}
	}
	return nil, nil
}

func (f *FakeClient) CreateCategory(ctx context.Context, scope, name string) (models.CategoryRef, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf("CreateCategory(%s)", name))
	if err := f.errs["CreateCategory"]; err != nil {
		return models.CategoryRef{}, err
	}
	ref := models.CategoryRef{ID: uuid.NewString(), Name: name}
	f.categories[scope] = append(f.categories[scope], ref)
	return ref, nil
}
