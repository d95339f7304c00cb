package race

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Game commands sent to a channel.
const (
	CmdJoinRace  = "!سباق ميدان"
	CmdStartRace = "!س جلد"
)

// Failure reasons reported when no channel can host a race.
const (
	ReasonNoValidChannels = "no_valid_channels"
	ReasonNoChannels      = "no_channels_available"
)

// Actions reported on success.
const (
	ActionJoined  = "joined"
	ActionStarted = "started"
)

// ChannelSender is the transport slice the coordinator needs.
type ChannelSender interface {
	SendChannel(ctx context.Context, channelID int64, text string) error
}

// Result is the outcome of one SmartRace call. Reason is set only on
// failure; ChannelID only on success.
type Result struct {
	Success   bool
	Action    string
	ChannelID int64
	Reason    string
}

// Coordinator turns tracker choices into channel commands. It never
// retries a failed send; that policy belongs to the agent loop.
type Coordinator struct {
	tracker *Tracker
	sender  ChannelSender

	// sleep is swapped in tests to skip real waits
	sleep func(ctx context.Context, d time.Duration) error
}

func NewCoordinator(tracker *Tracker, sender ChannelSender) *Coordinator {
	return &Coordinator{tracker: tracker, sender: sender, sleep: sleepCtx}
}

// SmartRace picks the best channel and acts on it. A wait choice sleeps
// out the running race and re-evaluates; the loop ends only when a
// join, start, failure, or cancellation happens.
func (c *Coordinator) SmartRace(ctx context.Context) Result {
	for {
		if c.tracker.ValidCount() == 0 {
			metricRaceFailedTotal.Add(1)
			return Result{Reason: ReasonNoValidChannels}
		}

		choice := c.tracker.FindBest()
		switch choice.Action {
		case BestJoin:
			if err := c.sender.SendChannel(ctx, choice.ChannelID, CmdJoinRace); err != nil {
				metricRaceFailedTotal.Add(1)
				return Result{Reason: err.Error()}
			}
			metricRaceJoinedTotal.Add(1)
			log.Info().Int64("channel_id", choice.ChannelID).Msg("joined race")
			return Result{Success: true, Action: ActionJoined, ChannelID: choice.ChannelID}

		case BestStart:
			if err := c.sender.SendChannel(ctx, choice.ChannelID, CmdStartRace); err != nil {
				metricRaceFailedTotal.Add(1)
				return Result{Reason: err.Error()}
			}
			metricRaceStartedTotal.Add(1)
			log.Info().Int64("channel_id", choice.ChannelID).Msg("started race")
			return Result{Success: true, Action: ActionStarted, ChannelID: choice.ChannelID}

		case BestWait:
			metricRaceWaitTotal.Add(1)
			log.Debug().
				Int64("channel_id", choice.ChannelID).
				Dur("wait", choice.Wait).
				Msg("waiting for running race to finish")
			if err := c.sleep(ctx, choice.Wait); err != nil {
				return Result{Reason: err.Error()}
			}

		default:
			metricRaceFailedTotal.Add(1)
			return Result{Reason: ReasonNoChannels}
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
