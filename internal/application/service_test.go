package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bnema/cyclerun/internal/adapters/checkpoint/memory"
	"github.com/bnema/cyclerun/internal/domain"
	"github.com/bnema/cyclerun/internal/ports"
	"github.com/bnema/cyclerun/internal/ports/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type inMemoryAccounts struct {
	accounts []domain.Account
	saved    []domain.Account
	saveErr  error
}

func (r *inMemoryAccounts) GetByID(_ context.Context, id domain.AccountID) (domain.Account, error) {
	for _, account := range r.accounts {
		if account.ID == id {
			return account, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *inMemoryAccounts) List(context.Context) ([]domain.Account, error) {
	return append([]domain.Account(nil), r.accounts...), nil
}

func (r *inMemoryAccounts) Save(_ context.Context, account domain.Account) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved = append(r.saved, account)
	return nil
}

func newTestService(t *testing.T) (*Service, *inMemoryAccounts, *memory.Store) {
	t.Helper()

	repo := &inMemoryAccounts{accounts: []domain.Account{
		{ID: "acc-1", Name: "main", SessionToken: "abcdefghijklmnopqrstuvwxyz"},
		{ID: "acc-2", SessionToken: "zyxwvutsrqponmlkjihgfedcba", Disabled: true},
	}}
	store := memory.NewStore()
	return NewService(repo, store, fixedClock{now: testNow}, 24*time.Hour), repo, store
}

func TestServiceGetStatusAll(t *testing.T) {
	service, _, store := newTestService(t)
	last := testNow.Add(-2 * time.Hour)
	require.NoError(t, store.Set(context.Background(), domain.Checkpoint{AccountID: "acc-1", LastSuccess: last}))

	statuses, err := service.GetStatusAll(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)

	assert.Equal(t, "abcde****vwxyz", statuses[0].Account.SessionToken)
	assert.True(t, last.Equal(statuses[0].LastSuccess))
	assert.True(t, last.Add(24*time.Hour).Equal(statuses[0].NextEligibleAt))
	assert.False(t, statuses[0].Eligible)

	assert.True(t, statuses[1].LastSuccess.IsZero())
	assert.False(t, statuses[1].Eligible)
}

func TestServiceGetStatusNeverRunIsEligible(t *testing.T) {
	service, _, _ := newTestService(t)

	status, err := service.GetStatus(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, status.Eligible)
	assert.True(t, status.NextEligibleAt.IsZero())
}

func TestServiceGetStatusUnknownAccount(t *testing.T) {
	service, _, _ := newTestService(t)

	_, err := service.GetStatus(context.Background(), "missing")
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestServiceResetCheckpoint(t *testing.T) {
	service, _, store := newTestService(t)
	require.NoError(t, store.Set(context.Background(), domain.Checkpoint{AccountID: "acc-1", LastSuccess: testNow}))

	require.NoError(t, service.ResetCheckpoint(context.Background(), "acc-1"))

	_, err := store.Get(context.Background(), "acc-1")
	require.ErrorIs(t, err, domain.ErrCheckpointNotFound)
	require.ErrorIs(t, service.ResetCheckpoint(context.Background(), "missing"), domain.ErrAccountNotFound)
}

func TestServiceImportAccounts(t *testing.T) {
	service, repo, _ := newTestService(t)

	count, err := service.ImportAccounts(context.Background(), repo, []domain.Account{
		{ID: "1", SessionToken: "a"},
		{ID: "2", SessionToken: "b", Proxy: "http://p:8080"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Len(t, repo.saved, 2)

	_, err = service.ImportAccounts(context.Background(), repo, nil)
	require.ErrorIs(t, err, domain.ErrNoAccounts)

	count, err = service.ImportAccounts(context.Background(), repo, []domain.Account{{ID: "3"}})
	require.Error(t, err)
	assert.Equal(t, 0, count)

	repo.saveErr = errors.New("disk full")
	_, err = service.ImportAccounts(context.Background(), repo, []domain.Account{{ID: "4", SessionToken: "d"}})
	assert.ErrorContains(t, err, "save account 4: disk full")
}

func TestServiceTryRecordsCheckpointOnSuccess(t *testing.T) {
	service, _, store := newTestService(t)
	action := mocks.NewMockAction(t)
	action.EXPECT().Perform(mockAnyContext(), mock.MatchedBy(func(account domain.Account) bool {
		return account.ID == "acc-1"
	})).Return(nil).Once()

	require.NoError(t, service.Try(context.Background(), "acc-1", action, time.Second, true))

	checkpoint, err := store.Get(context.Background(), "acc-1")
	require.NoError(t, err)
	assert.True(t, testNow.Equal(checkpoint.LastSuccess))
}

func TestServiceTryWithoutRecordLeavesCheckpoint(t *testing.T) {
	service, _, store := newTestService(t)

	err := service.Try(context.Background(), "acc-1", ports.ActionFunc(func(context.Context, domain.Account) error {
		return nil
	}), 0, false)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "acc-1")
	require.ErrorIs(t, err, domain.ErrCheckpointNotFound)
}

func TestServiceTryWrapsActionError(t *testing.T) {
	service, _, _ := newTestService(t)

	err := service.Try(context.Background(), "acc-1", ports.ActionFunc(func(context.Context, domain.Account) error {
		return domain.ErrAuthExpired
	}), time.Second, true)
	require.ErrorIs(t, err, domain.ErrAuthExpired)
	assert.ErrorContains(t, err, "account acc-1: perform action")
}
