package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"careline-service/internal/domain"
	"careline-service/internal/repositories"
)

type ChatRepositoryMock struct {
	mock.Mock
}

func (m *ChatRepositoryMock) CreateChat(ctx context.Context, participants []domain.Participant) (domain.Chat, error) {
	args := m.Called(ctx, participants)
	var chat domain.Chat
	if val := args.Get(0); val != nil {
		chat = val.(domain.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) GetChat(ctx context.Context, chatID int) (domain.Chat, error) {
	args := m.Called(ctx, chatID)
	var chat domain.Chat
	if val := args.Get(0); val != nil {
		chat = val.(domain.Chat)
	}
	return chat, args.Error(1)
}

func (m *ChatRepositoryMock) ListChats(ctx context.Context, userID int) ([]domain.ChatSummary, error) {
	args := m.Called(ctx, userID)
	var list []domain.ChatSummary
	if val := args.Get(0); val != nil {
		list = val.([]domain.ChatSummary)
	}
	return list, args.Error(1)
}

func (m *ChatRepositoryMock) IsParticipant(ctx context.Context, chatID int, userID int) (bool, error) {
	args := m.Called(ctx, chatID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) ActivateAlert(ctx context.Context, chatID int, initiatorID int, at time.Time) (bool, error) {
	args := m.Called(ctx, chatID, initiatorID, at)
	return args.Bool(0), args.Error(1)
}

func (m *ChatRepositoryMock) DeactivateAlert(ctx context.Context, chatID int, initiatorID int) (bool, error) {
	args := m.Called(ctx, chatID, initiatorID)
	return args.Bool(0), args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) CreateMessage(ctx context.Context, chatID int, senderID int, kind domain.MessageKind, content string) (domain.Message, error) {
	args := m.Called(ctx, chatID, senderID, kind, content)
	var msg domain.Message
	if val := args.Get(0); val != nil {
		msg = val.(domain.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) ListMessages(ctx context.Context, chatID int) ([]domain.Message, error) {
	args := m.Called(ctx, chatID)
	var msgs []domain.Message
	if val := args.Get(0); val != nil {
		msgs = val.([]domain.Message)
	}
	return msgs, args.Error(1)
}

func (m *MessageRepositoryMock) GetMessage(ctx context.Context, messageID int) (domain.Message, error) {
	args := m.Called(ctx, messageID)
	var msg domain.Message
	if val := args.Get(0); val != nil {
		msg = val.(domain.Message)
	}
	return msg, args.Error(1)
}

type EmergencyRepositoryMock struct {
	mock.Mock
}

func (m *EmergencyRepositoryMock) CreateEmergency(ctx context.Context, emergency domain.Emergency) (domain.Emergency, error) {
	args := m.Called(ctx, emergency)
	var stored domain.Emergency
	if val := args.Get(0); val != nil {
		stored = val.(domain.Emergency)
	}
	return stored, args.Error(1)
}

func (m *EmergencyRepositoryMock) GetEmergency(ctx context.Context, emergencyID int) (domain.Emergency, error) {
	args := m.Called(ctx, emergencyID)
	var emergency domain.Emergency
	if val := args.Get(0); val != nil {
		emergency = val.(domain.Emergency)
	}
	return emergency, args.Error(1)
}

func (m *EmergencyRepositoryMock) AddResolution(ctx context.Context, emergencyID int, supervisorID int) (bool, error) {
	args := m.Called(ctx, emergencyID, supervisorID)
	return args.Bool(0), args.Error(1)
}

func (m *EmergencyRepositoryMock) CountOpenOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	args := m.Called(ctx, cutoff)
	return args.Int(0), args.Error(1)
}

var _ repositories.ChatRepository = (*ChatRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.EmergencyRepository = (*EmergencyRepositoryMock)(nil)
