package txsim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"privatediploma/internal/credential"
)

// instant makes every stage delay zero and sleeping a no-op so Run executes
// synchronously.
func instant() []Option {
	return []Option{
		WithDelay(func(Stage) time.Duration { return 0 }),
		WithSleep(func(time.Duration) {}),
	}
}

func TestRunHappyPath(t *testing.T) {
	sim := New(instant()...)

	var transitions []Transition
	err := sim.Run(func(tr Transition) { transitions = append(transitions, tr) })
	require.NoError(t, err)

	require.Len(t, transitions, 4)
	assert.Equal(t, StageIdle, transitions[0].From)
	assert.Equal(t, StageCommitting, transitions[0].To)
	assert.Equal(t, StageProving, transitions[1].To)
	assert.Equal(t, StageBroadcasting, transitions[2].To)
	assert.Equal(t, StageConfirmed, transitions[3].To)
}

func TestRunFailureIsTerminal(t *testing.T) {
	sim := New(append(instant(), WithFailureAt(StageBroadcasting))...)

	var transitions []Transition
	err := sim.Run(func(tr Transition) { transitions = append(transitions, tr) })
	assert.ErrorIs(t, err, credential.ErrTransactionFailed)

	// committing, proving, then the failure; never confirmed.
	require.Len(t, transitions, 3)
	assert.Equal(t, StageFailed, transitions[len(transitions)-1].To)
	for _, tr := range transitions {
		assert.NotEqual(t, StageConfirmed, tr.To)
	}
}

func TestRunFailureFromFirstStage(t *testing.T) {
	sim := New(append(instant(), WithFailureAt(StageCommitting))...)

	var transitions []Transition
	err := sim.Run(func(tr Transition) { transitions = append(transitions, tr) })
	assert.ErrorIs(t, err, credential.ErrTransactionFailed)
	require.Len(t, transitions, 1)
	assert.Equal(t, StageIdle, transitions[0].From)
	assert.Equal(t, StageFailed, transitions[0].To)
}

func TestSubmitAndWait(t *testing.T) {
	sim := New(
		WithDelay(func(Stage) time.Duration { return 0 }),
		WithPollInterval(5*time.Millisecond),
		WithMaxPolls(200),
	)

	tx := sim.Submit(nil)
	require.NoError(t, sim.Wait(tx))
	assert.Equal(t, StageConfirmed, tx.Stage())
	assert.NoError(t, tx.Err())
}

func TestSubmitFailure(t *testing.T) {
	sim := New(
		WithDelay(func(Stage) time.Duration { return 0 }),
		WithPollInterval(5*time.Millisecond),
		WithMaxPolls(200),
		WithFailureAt(StageProving),
	)

	tx := sim.Submit(nil)
	assert.ErrorIs(t, sim.Wait(tx), credential.ErrTransactionFailed)
	assert.Equal(t, StageFailed, tx.Stage())
}

func TestWaitTimeout(t *testing.T) {
	sim := New(
		WithDelay(func(Stage) time.Duration { return time.Second }),
		WithPollInterval(time.Millisecond),
		WithMaxPolls(3),
	)

	tx := sim.Submit(nil)
	assert.ErrorIs(t, sim.Wait(tx), credential.ErrTransactionTimeout)
}
