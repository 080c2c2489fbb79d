package watchdog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"careline-service/internal/mocks"
)

func TestSweepCountsStaleEmergencies(t *testing.T) {
	repo := new(mocks.EmergencyRepositoryMock)
	repo.On("CountOpenOlderThan", mock.Anything, mock.MatchedBy(func(cutoff time.Time) bool {
		return time.Since(cutoff) > 25*time.Minute
	})).Return(3, nil).Once()

	w := New(repo, nil, 30*time.Minute)
	w.Sweep()

	repo.AssertExpectations(t)
}

func TestSweepSurvivesRepoError(t *testing.T) {
	repo := new(mocks.EmergencyRepositoryMock)
	repo.On("CountOpenOlderThan", mock.Anything, mock.Anything).Return(0, assert.AnError).Once()

	w := New(repo, nil, 30*time.Minute)
	w.Sweep()

	repo.AssertExpectations(t)
}
