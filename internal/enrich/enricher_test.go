package enrich

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assignlens/internal/domain"
)

type fakeDirectory struct {
	mu      sync.Mutex
	batches [][]string
	counts  map[string]domain.GroupCounts
	failOn  map[string]bool
}

func (f *fakeDirectory) GroupCounts(_ context.Context, ids []string) (map[string]domain.GroupCounts, error) {
	f.mu.Lock()
	f.batches = append(f.batches, ids)
	f.mu.Unlock()

	out := make(map[string]domain.GroupCounts, len(ids))
	for _, id := range ids {
		if f.failOn[id] {
			return nil, errors.New("directory unavailable")
		}
		if c, ok := f.counts[id]; ok {
			out[id] = c
		}
	}
	return out, nil
}

func membershipFixture(n int) []domain.GroupMembership {
	ms := make([]domain.GroupMembership, n)
	for i := range ms {
		ms[i] = domain.GroupMembership{
			GroupID:     string(rune('a'+i/26)) + string(rune('a'+i%26)),
			DisplayName: "Group",
			Kind:        domain.MembershipAssigned,
		}
	}
	return ms
}

func TestAnnotate_FillsCounts(t *testing.T) {
	dir := &fakeDirectory{counts: map[string]domain.GroupCounts{
		"g1": {DeviceMembers: 12, UserMembers: 3},
	}}
	e := New(dir, nil)

	in := []domain.GroupMembership{
		{GroupID: "g1", DisplayName: "Kiosk Devices", Kind: domain.MembershipAssigned},
		{GroupID: "g2", DisplayName: "Unknown To Directory", Kind: domain.MembershipAssigned},
	}
	out, err := e.Annotate(context.Background(), in)
	require.NoError(t, err)
	require.Len(t, out, 2)

	require.NotNil(t, out[0].DeviceMemberCount)
	assert.Equal(t, 12, *out[0].DeviceMemberCount)
	require.NotNil(t, out[0].UserMemberCount)
	assert.Equal(t, 3, *out[0].UserMemberCount)

	assert.Nil(t, out[1].DeviceMemberCount)
	assert.Nil(t, out[1].UserMemberCount)

	// input untouched
	assert.Nil(t, in[0].DeviceMemberCount)
}

func TestAnnotate_BatchesRespectCeiling(t *testing.T) {
	dir := &fakeDirectory{}
	e := New(dir, nil, WithBatchSize(5), WithConcurrency(1))

	_, err := e.Annotate(context.Background(), membershipFixture(12))
	require.NoError(t, err)

	require.Len(t, dir.batches, 3)
	total := 0
	for _, b := range dir.batches {
		assert.LessOrEqual(t, len(b), 5)
		total += len(b)
	}
	assert.Equal(t, 12, total)
}

func TestAnnotate_SkipsDirectoryRoles(t *testing.T) {
	dir := &fakeDirectory{}
	e := New(dir, nil)

	_, err := e.Annotate(context.Background(), []domain.GroupMembership{
		{GroupID: "role-1", DisplayName: "Intune Administrator", Kind: domain.MembershipDirectoryRole},
	})
	require.NoError(t, err)
	assert.Empty(t, dir.batches)
}

func TestAnnotate_FailedBatchDegrades(t *testing.T) {
	dir := &fakeDirectory{
		counts: map[string]domain.GroupCounts{
			"g1": {DeviceMembers: 1, UserMembers: 1},
			"g2": {DeviceMembers: 2, UserMembers: 2},
		},
		failOn: map[string]bool{"g2": true},
	}
	e := New(dir, nil, WithBatchSize(1), WithConcurrency(1))

	out, err := e.Annotate(context.Background(), []domain.GroupMembership{
		{GroupID: "g1", Kind: domain.MembershipAssigned},
		{GroupID: "g2", Kind: domain.MembershipAssigned},
	})
	require.NoError(t, err)
	require.Len(t, out, 2)
	require.NotNil(t, out[0].DeviceMemberCount)
	assert.Nil(t, out[1].DeviceMemberCount)
}

func TestAnnotate_Empty(t *testing.T) {
	e := New(&fakeDirectory{}, nil)
	out, err := e.Annotate(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestChunk(t *testing.T) {
	assert.Nil(t, chunk(nil, 5))
	assert.Len(t, chunk([]string{"a"}, 5), 1)

	batches := chunk([]string{"a", "b", "c", "d", "e"}, 2)
	require.Len(t, batches, 3)
	assert.Equal(t, []string{"e"}, batches[2])
}
