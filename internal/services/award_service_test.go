package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kurdishgpt/Slaw/internal/models"
	"github.com/Kurdishgpt/Slaw/internal/repositories"
	"github.com/Kurdishgpt/Slaw/internal/repositories/memory"
)

type testEnv struct {
	svc        *AwardService
	users      *memory.UserRepository
	activities *memory.ActivityRepository
	keys       *memory.APIKeyRepository
	clock      time.Time
}

func newTestEnv() *testEnv {
	env := &testEnv{
		users:      memory.NewUserRepository(),
		activities: memory.NewActivityRepository(),
		keys:       memory.NewAPIKeyRepository(),
		clock:      time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	env.svc = NewAwardService(env.users, env.activities, env.keys, "c1")
	env.svc.now = func() time.Time { return env.clock }
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.clock = e.clock.Add(d)
}

func message(userID, msgID, text string) models.MessagePosted {
	return models.MessagePosted{
		UserID:    userID,
		Username:  userID,
		ChannelID: "c1",
		MessageID: msgID,
		Text:      text,
	}
}

func TestHandleMessageIgnoresOtherChannels(t *testing.T) {
	env := newTestEnv()
	msg := message("u1", "m1", "https://pastebin.com/AbC123")
	msg.ChannelID = "somewhere-else"
	result, err := env.svc.HandleMessage(context.Background(), msg)
	require.NoError(t, err)
	assert.Nil(t, result)

	_, err = env.users.FindByID(context.Background(), "u1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestHandleMessageIgnoresNonLinks(t *testing.T) {
	env := newTestEnv()
	result, err := env.svc.HandleMessage(context.Background(), message("u1", "m1", "just chatting"))
	require.NoError(t, err)
	assert.Nil(t, result)

	// Not even a user row is created for plain chatter
	_, err = env.users.FindByID(context.Background(), "u1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestHandleMessageAwardsFirstLink(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "https://pastebin.com/AbC123"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeAwarded, result.Code)
	assert.Equal(t, models.ActivityLinkPaste, result.Type)
	assert.Equal(t, 1, result.Points)
	assert.Equal(t, 1, result.DailyLinksPosted)
	assert.Equal(t, DailyLinkLimit-1, result.LinksLeft)

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.Points)
	require.NotNil(t, user.LastPointEarned)
	assert.True(t, user.LastPointEarned.Equal(env.clock))

	activity, err := env.activities.FindByMessageID(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "pastebin.com/abc123", activity.Link)
	assert.Equal(t, 1, activity.PointsEarned)
}

func TestHandleMessageInviteType(t *testing.T) {
	env := newTestEnv()
	result, err := env.svc.HandleMessage(context.Background(), message("u1", "m1", "discord.gg/my-server"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeAwarded, result.Code)
	assert.Equal(t, models.ActivityLinkInvite, result.Type)
}

func TestDuplicateLinkIsGlobalAndCaseInsensitive(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/AbC123"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, result.Code)

	// Different user, different casing, long after any cooldown
	env.advance(48 * time.Hour)
	result, err = env.svc.HandleMessage(ctx, message("u2", "m2", "pastebin.com/ABC123"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeDuplicateLink, result.Code)

	user, err := env.users.FindByID(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)
}

func TestCooldownRejectsWithCeilingHours(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/first"))
	require.NoError(t, err)

	env.advance(90 * time.Minute)
	result, err := env.svc.HandleMessage(ctx, message("u1", "m2", "pastebin.com/second"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeCooldownActive, result.Code)
	// 12.5 hours left rounds up to 13
	assert.Equal(t, 13, result.RemainingHours)

	// No activity was written for the rejected attempt
	_, err = env.activities.FindByMessageID(ctx, "m2")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestAwardSucceedsAfterCooldown(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/first"))
	require.NoError(t, err)

	env.advance(Cooldown)
	result, err := env.svc.HandleMessage(ctx, message("u1", "m2", "pastebin.com/second"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeAwarded, result.Code)
	assert.Equal(t, 2, result.Points)
}

func TestDailyLimitRejects(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.users.Upsert(ctx, "u1", "u1", nil, nil)
	require.NoError(t, err)
	_, err = env.users.ResetDailyLinksIfDue(ctx, "u1", env.clock)
	require.NoError(t, err)
	_, err = env.users.AdjustDailyLinks(ctx, "u1", DailyLinkLimit)
	require.NoError(t, err)

	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/abc"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeDailyLimitReached, result.Code)
	assert.Equal(t, 0, result.LinksLeft)
}

func TestDailyWindowRollRestoresQuota(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.users.Upsert(ctx, "u1", "u1", nil, nil)
	require.NoError(t, err)
	_, err = env.users.ResetDailyLinksIfDue(ctx, "u1", env.clock)
	require.NoError(t, err)
	_, err = env.users.AdjustDailyLinks(ctx, "u1", DailyLinkLimit)
	require.NoError(t, err)

	env.advance(DailyWindow + time.Minute)
	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/abc"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeAwarded, result.Code)
	assert.Equal(t, 1, result.DailyLinksPosted)
}

func TestMaxPointsRejects(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	_, err := env.users.Upsert(ctx, "u1", "u1", nil, nil)
	require.NoError(t, err)
	require.NoError(t, env.users.SetPoints(ctx, "u1", MaxPoints, nil))

	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/abc"))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, OutcomeMaxPointsReached, result.Code)
	assert.Equal(t, MaxPoints, result.Points)
}

func TestDeletionReversesAward(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/abc"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, result.Code)
	earnedAt := env.clock

	env.advance(10 * time.Minute)
	require.NoError(t, env.svc.HandleMessageDeleted(ctx, models.MessageDeleted{MessageID: "m1"}))

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)
	assert.Equal(t, 0, user.DailyLinksPosted)
	// Deleting the message does not reopen the cooldown window
	require.NotNil(t, user.LastPointEarned)
	assert.True(t, user.LastPointEarned.Equal(earnedAt))

	_, err = env.activities.FindByMessageID(ctx, "m1")
	assert.ErrorIs(t, err, repositories.ErrNotFound)

	// The link stays reusable once its record is gone
	result, err = env.svc.HandleMessage(ctx, message("u2", "m2", "pastebin.com/abc"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeAwarded, result.Code)
}

func TestDeletionOfUnknownMessageIsNoop(t *testing.T) {
	env := newTestEnv()
	require.NoError(t, env.svc.HandleMessageDeleted(context.Background(), models.MessageDeleted{MessageID: "nope"}))
}

func TestDeletionAppliedOnceUnderConcurrentDelivery(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/abc"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, result.Code)
	activity, err := env.activities.FindByMessageID(ctx, "m1")
	require.NoError(t, err)

	// Raise the balance so a double decrement would be observable
	require.NoError(t, env.users.SetPoints(ctx, "u1", 5, nil))

	// Hold the user lock so a second delivery passes its pre-lock lookup
	// and then has to wait
	env.svc.locks.Lock("u1")
	done := make(chan error, 1)
	go func() {
		done <- env.svc.HandleMessageDeleted(ctx, models.MessageDeleted{MessageID: "m1"})
	}()
	time.Sleep(50 * time.Millisecond)

	// The first delivery already reversed the award while the second waited
	require.NoError(t, env.activities.Delete(ctx, activity.ID))
	require.NoError(t, env.users.SetPoints(ctx, "u1", 4, nil))
	env.svc.locks.Unlock("u1")

	require.NoError(t, <-done)
	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 4, user.Points, "second delivery must not decrement again")
}

func TestDeletionNeverDropsPointsBelowZero(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	result, err := env.svc.HandleMessage(ctx, message("u1", "m1", "pastebin.com/abc"))
	require.NoError(t, err)
	require.Equal(t, OutcomeAwarded, result.Code)

	// Points were drained out of band before the deletion arrived
	require.NoError(t, env.users.SetPoints(ctx, "u1", 0, nil))
	require.NoError(t, env.svc.HandleMessageDeleted(ctx, models.MessageDeleted{MessageID: "m1"}))

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)
}

func voiceJoin(userID, channelID, channelName string) models.VoiceStateChanged {
	return models.VoiceStateChanged{
		UserID:         userID,
		Username:       userID,
		NewChannelID:   &channelID,
		NewChannelName: &channelName,
	}
}

func TestVoiceSweepAwardsWholeHours(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	joinedAt := env.clock

	require.NoError(t, env.svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))

	env.advance(2*time.Hour + 30*time.Minute)
	env.svc.SweepVoicePoints(ctx)

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.Points)
	require.NotNil(t, user.LastPointEarned)
	assert.True(t, user.LastPointEarned.Equal(env.clock))
	// Accrual anchors to the interval boundary, not the sweep time
	require.NotNil(t, user.LastVoicePointEarned)
	assert.True(t, user.LastVoicePointEarned.Equal(joinedAt.Add(2*time.Hour)))

	all, err := env.activities.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, a := range all {
		assert.Equal(t, models.ActivityVoice, a.Type)
		assert.Equal(t, "General", a.Link)
		assert.Equal(t, 1, a.PointsEarned)
	}
}

func TestVoiceSweepSkipsPartialHour(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))

	env.advance(59 * time.Minute)
	env.svc.SweepVoicePoints(ctx)

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)
}

func TestVoiceSweepNoDoubleCounting(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))

	env.advance(time.Hour + 10*time.Minute)
	env.svc.SweepVoicePoints(ctx)
	// A second sweep 5 minutes later must not re-award the same hour
	env.advance(5 * time.Minute)
	env.svc.SweepVoicePoints(ctx)

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.Points)

	// The 45 remaining minutes complete the second hour
	env.advance(45 * time.Minute)
	env.svc.SweepVoicePoints(ctx)
	user, err = env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.Points)
}

func TestVoiceSweepRespectsMaxPoints(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))
	require.NoError(t, env.users.SetPoints(ctx, "u1", MaxPoints-1, nil))

	env.advance(3 * time.Hour)
	env.svc.SweepVoicePoints(ctx)

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, MaxPoints, user.Points)

	count, err := env.activities.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestVoiceLeaveStopsAccrual(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))

	env.advance(30 * time.Minute)
	prev := "vc1"
	require.NoError(t, env.svc.HandleVoiceState(ctx, models.VoiceStateChanged{
		UserID:            "u1",
		Username:          "u1",
		PreviousChannelID: &prev,
	}))

	env.advance(2 * time.Hour)
	env.svc.SweepVoicePoints(ctx)

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)
	assert.False(t, user.InVoiceChannel)
}

func TestVoiceChannelSwitchRestartsReference(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	require.NoError(t, env.svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))

	// Switch channels 50 minutes in; the partial hour is forfeited
	env.advance(50 * time.Minute)
	prev := "vc1"
	ev := voiceJoin("u1", "vc2", "Gaming")
	ev.PreviousChannelID = &prev
	require.NoError(t, env.svc.HandleVoiceState(ctx, ev))

	env.advance(50 * time.Minute)
	env.svc.SweepVoicePoints(ctx)
	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points)

	env.advance(10 * time.Minute)
	env.svc.SweepVoicePoints(ctx)
	user, err = env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, user.Points)
	require.NotNil(t, user.VoiceChannelName)
	assert.Equal(t, "Gaming", *user.VoiceChannelName)
}

var errStoreDown = errors.New("store unavailable")

// flakyUserRepo fails SetLastVoicePoint on demand
type flakyUserRepo struct {
	repositories.UserRepository
	failSetLastVoicePoint bool
}

func (r *flakyUserRepo) SetLastVoicePoint(ctx context.Context, id string, t *time.Time) error {
	if r.failSetLastVoicePoint {
		return errStoreDown
	}
	return r.UserRepository.SetLastVoicePoint(ctx, id, t)
}

// flakyActivityRepo fails the nth Create call while failOn is set
type flakyActivityRepo struct {
	repositories.ActivityRepository
	failOn int
	calls  int
}

func (r *flakyActivityRepo) Create(ctx context.Context, activity *models.Activity) error {
	if r.failOn > 0 {
		r.calls++
		if r.calls == r.failOn {
			return errStoreDown
		}
	}
	return r.ActivityRepository.Create(ctx, activity)
}

func TestVoiceSweepRevertsPointsWhenReferenceWriteFails(t *testing.T) {
	users := &flakyUserRepo{UserRepository: memory.NewUserRepository()}
	activities := memory.NewActivityRepository()
	svc := NewAwardService(users, activities, memory.NewAPIKeyRepository(), "c1")
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))

	clock = clock.Add(2 * time.Hour)
	users.failSetLastVoicePoint = true
	svc.SweepVoicePoints(ctx)

	user, err := users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points, "points must be taken back when the accrual reference cannot advance")
	assert.Nil(t, user.LastPointEarned)
	count, err := activities.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Once the store recovers the same hours are awarded exactly once
	users.failSetLastVoicePoint = false
	svc.SweepVoicePoints(ctx)
	user, err = users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, user.Points)
}

func TestVoiceSweepUnwindsBatchWhenAppendFails(t *testing.T) {
	users := memory.NewUserRepository()
	activities := &flakyActivityRepo{ActivityRepository: memory.NewActivityRepository()}
	svc := NewAwardService(users, activities, memory.NewAPIKeyRepository(), "c1")
	clock := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	ctx := context.Background()

	require.NoError(t, svc.HandleVoiceState(ctx, voiceJoin("u1", "vc1", "General")))

	clock = clock.Add(3 * time.Hour)
	activities.failOn = 2
	svc.SweepVoicePoints(ctx)

	user, err := users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, user.Points, "a half-written batch must be unwound")
	assert.Nil(t, user.LastVoicePointEarned)
	count, err := activities.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// The recovered sweep re-accrues from the original reference
	activities.failOn = 0
	svc.SweepVoicePoints(ctx)
	user, err = users.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, user.Points)
	count, err = activities.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestLinkAccount(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	// Unknown key
	outcome, err := env.svc.LinkAccount(ctx, models.LoginRequested{UserID: "u1", Username: "u1", Key: "nope"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeKeyNotFound, outcome)

	key := &models.APIKey{Key: "secret", CreatedAt: env.clock}
	require.NoError(t, env.keys.Create(ctx, key))

	outcome, err = env.svc.LinkAccount(ctx, models.LoginRequested{UserID: "u1", Username: "u1", Key: "secret"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeKeyLinked, outcome)

	user, err := env.users.FindByID(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, user.LinkedAPIKey)
	assert.Equal(t, "secret", *user.LinkedAPIKey)

	stored, err := env.keys.FindByID(ctx, key.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.LastUsed)

	// Relinking by the same user is idempotent
	outcome, err = env.svc.LinkAccount(ctx, models.LoginRequested{UserID: "u1", Username: "u1", Key: "secret"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeKeyLinked, outcome)

	// Another user cannot claim it
	outcome, err = env.svc.LinkAccount(ctx, models.LoginRequested{UserID: "u2", Username: "u2", Key: "secret"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeKeyAlreadyLinked, outcome)
	_, err = env.users.FindByID(ctx, "u2")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}
